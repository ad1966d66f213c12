// Package classifier turns raw structural diff entries into a categorized,
// deduplicated change report and judges its breaking status.
package classifier

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/specwatch/specwatch/internal/diff"
)

// GlobalSecurityMarker is the fixed entry recorded when the document-level
// security requirements change.
const GlobalSecurityMarker = "Global security requirements changed"

// Categories maps a category name to a set of unique human-readable entries.
// Duplicates collapse; order is irrelevant and normalized on output.
type Categories map[string]map[string]struct{}

// Add records an entry under a category.
func (c Categories) Add(category, entry string) {
	set, ok := c[category]
	if !ok {
		set = make(map[string]struct{})
		c[category] = set
	}
	set[entry] = struct{}{}
}

// Has reports whether the entry is recorded under the category.
func (c Categories) Has(category, entry string) bool {
	_, ok := c[category][entry]
	return ok
}

// Entries returns the sorted entries of one category.
func (c Categories) Entries(category string) []string {
	set := c[category]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Len returns the total number of entries across all categories.
func (c Categories) Len() int {
	n := 0
	for _, set := range c {
		n += len(set)
	}
	return n
}

// MarshalJSON renders each category as a sorted string array.
func (c Categories) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(c))
	for category := range c {
		out[category] = c.Entries(category)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the category→array form produced by MarshalJSON.
func (c *Categories) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = make(Categories, len(raw))
	for category, entries := range raw {
		for _, e := range entries {
			c.Add(category, e)
		}
	}
	return nil
}

// Report is a categorized change report: added, changed and removed entries
// keyed by category name.
type Report struct {
	Added   Categories `json:"added"`
	Changed Categories `json:"changed"`
	Removed Categories `json:"removed"`
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{
		Added:   make(Categories),
		Changed: make(Categories),
		Removed: make(Categories),
	}
}

// Empty reports whether every category across added, changed and removed is
// empty. Callers treat an empty report as "no meaningful change".
func (r *Report) Empty() bool {
	return r.Added.Len() == 0 && r.Changed.Len() == 0 && r.Removed.Len() == 0
}

// Total returns the number of entries across the whole report.
func (r *Report) Total() int {
	return r.Added.Len() + r.Changed.Len() + r.Removed.Len()
}

// Classifier buckets diff entries into a change report.
type Classifier struct {
	logger *logrus.Logger
}

// New creates a new Classifier instance.
func New(logger *logrus.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Bootstrap builds the report for a document with no previous version: the
// whole document counts as new, reported as its paths and security schemes.
func (c *Classifier) Bootstrap(current map[string]any) *Report {
	report := NewReport()
	for _, p := range mapKeys(childMap(current, "paths")) {
		report.Added.Add("paths", p)
	}
	for _, name := range mapKeys(childMap(childMap(current, "components"), "securitySchemes")) {
		report.Added.Add("security_schemes", name)
	}
	return report
}

// Classify parses every diff entry into a semantic locator and dispatches it
// to the matching report category. Entries whose paths fall outside the
// recognized grammar are dropped silently.
func (c *Classifier) Classify(set diff.Set, previous, current map[string]any) *Report {
	report := NewReport()

	for _, e := range set.Added {
		loc, ok := diff.ParsePath(e.Path)
		if !ok {
			c.logger.Debugf("Ignoring unrecognized added entry at depth %d", len(e.Path))
			continue
		}
		c.classifyAdded(report, loc, e.Value, previous)
	}
	for _, e := range set.Removed {
		loc, ok := diff.ParsePath(e.Path)
		if !ok {
			c.logger.Debugf("Ignoring unrecognized removed entry at depth %d", len(e.Path))
			continue
		}
		c.classifyRemoved(report, loc)
	}
	for _, e := range set.Changed {
		loc, ok := diff.ParsePath(e.Path)
		if !ok {
			c.logger.Debugf("Ignoring unrecognized changed entry at depth %d", len(e.Path))
			continue
		}
		c.classifyChanged(report, loc, e.Old, e.New)
	}

	return report
}

func (c *Classifier) classifyAdded(report *Report, loc diff.Locator, value any, previous map[string]any) {
	switch loc.Kind {
	case diff.LocatorPathItem:
		report.Added.Add("paths", loc.PathKey)
		// A brand-new path carries its operations in the added value.
		if item, ok := value.(map[string]any); ok {
			for _, method := range mapKeys(item) {
				if diff.IsHTTPMethod(method) {
					report.Added.Add("operations", operationLabel(method, loc.PathKey))
				}
			}
		}
	case diff.LocatorOperation:
		if len(loc.Rest) > 0 {
			// A new field under an existing operation is a modification
			// of that operation, not a new one.
			report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
			return
		}
		if _, existed := childMap(previous, "paths")[loc.PathKey]; existed {
			report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
		} else {
			report.Added.Add("operations", operationLabel(loc.Method, loc.PathKey))
		}
	case diff.LocatorParameter:
		if len(loc.Rest) == 0 {
			if param, ok := value.(map[string]any); ok {
				if required, _ := param["required"].(bool); required {
					report.Added.Add("required_parameters",
						fmt.Sprintf("%s new parameter", operationLabel(loc.Method, loc.PathKey)))
					return
				}
			}
		}
		report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorRequestBody:
		if loc.RestHasKey("content") {
			report.Changed.Add("request_formats",
				operationLabel(loc.Method, loc.PathKey)+" (new content type)")
			return
		}
		report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorResponse:
		if loc.RestHasKey("content") {
			report.Changed.Add("response_formats",
				operationLabel(loc.Method, loc.PathKey)+" (new content type)")
			return
		}
		report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorSecurity:
		c.classifySecurity(report, loc)
	case diff.LocatorComponent:
		if len(loc.Rest) > 0 {
			// A new field inside an existing component modifies that
			// component; only a whole new definition counts as added.
			c.addComponent(report.Changed, loc)
			return
		}
		c.addComponent(report.Added, loc)
	}
}

func (c *Classifier) classifyRemoved(report *Report, loc diff.Locator) {
	switch loc.Kind {
	case diff.LocatorPathItem:
		report.Removed.Add("paths", loc.PathKey)
	case diff.LocatorOperation:
		if len(loc.Rest) > 0 {
			report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
			return
		}
		report.Removed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorParameter, diff.LocatorRequestBody, diff.LocatorResponse:
		report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorSecurity:
		c.classifySecurity(report, loc)
	case diff.LocatorComponent:
		if len(loc.Rest) > 0 {
			c.addComponent(report.Changed, loc)
			return
		}
		c.addComponent(report.Removed, loc)
	}
}

func (c *Classifier) classifyChanged(report *Report, loc diff.Locator, oldValue, newValue any) {
	switch loc.Kind {
	case diff.LocatorPathItem:
		report.Changed.Add("paths", loc.PathKey)
	case diff.LocatorOperation:
		report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorParameter:
		if loc.RestEndsWithKey("required") {
			oldRequired, _ := oldValue.(bool)
			newRequired, _ := newValue.(bool)
			entry := fmt.Sprintf("%s parameter", operationLabel(loc.Method, loc.PathKey))
			switch {
			case !oldRequired && newRequired:
				report.Added.Add("required_parameters", entry)
			case oldRequired && !newRequired:
				report.Removed.Add("required_parameters", entry)
			}
			return
		}
		report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorRequestBody:
		if loc.RestHasKey("schema") || loc.RestHasKey("content") {
			report.Changed.Add("request_formats", operationLabel(loc.Method, loc.PathKey))
			return
		}
		report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorResponse:
		if loc.RestHasKey("schema") || loc.RestHasKey("content") {
			report.Changed.Add("response_formats", operationLabel(loc.Method, loc.PathKey))
			return
		}
		report.Changed.Add("operations", operationLabel(loc.Method, loc.PathKey))
	case diff.LocatorSecurity:
		c.classifySecurity(report, loc)
	case diff.LocatorComponent:
		c.addComponent(report.Changed, loc)
	}
}

// addComponent routes a component entry to its category, mapping the
// securitySchemes category onto the report's security_schemes key.
func (c *Classifier) addComponent(dest Categories, loc diff.Locator) {
	if loc.Category == "securitySchemes" {
		dest.Add("security_schemes", loc.Name)
		return
	}
	dest.Add(loc.Category, loc.Name)
}

func (c *Classifier) classifySecurity(report *Report, loc diff.Locator) {
	if loc.Global() {
		report.Changed.Add("global_security", GlobalSecurityMarker)
		return
	}
	report.Changed.Add("operation_security",
		fmt.Sprintf("%s security changed", operationLabel(loc.Method, loc.PathKey)))
}

func operationLabel(method, pathKey string) string {
	return strings.ToUpper(method) + " " + pathKey
}

func childMap(doc map[string]any, key string) map[string]any {
	if doc == nil {
		return nil
	}
	m, _ := doc[key].(map[string]any)
	return m
}

func mapKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
