package diff

// LocatorKind identifies the API concept a diff path points into.
type LocatorKind int

const (
	// LocatorPathItem is a whole path entry under the top-level paths map.
	LocatorPathItem LocatorKind = iota
	// LocatorOperation is one HTTP method under a path, or any operation
	// field not covered by a more specific locator.
	LocatorOperation
	// LocatorParameter is an entry of an operation's parameters sequence.
	LocatorParameter
	// LocatorRequestBody is a node under an operation's requestBody.
	LocatorRequestBody
	// LocatorResponse is a node under one status code of an operation's
	// responses map.
	LocatorResponse
	// LocatorSecurity is a security requirement node, either at the
	// document root or inside an operation.
	LocatorSecurity
	// LocatorComponent is a named reusable definition under components.
	LocatorComponent
)

// Locator is the typed semantic location of a diff entry. Only the fields
// relevant to the Kind are populated.
type Locator struct {
	Kind       LocatorKind
	PathKey    string // API path, e.g. "/users"
	Method     string // lowercase HTTP method token
	ParamIndex int    // parameter sequence index, -1 if absent
	StatusCode string // response status code key
	Category   string // component category, e.g. "schemas"
	Name       string // component name
	Rest       Path   // segments below the recognized head
}

// Global reports whether a security locator refers to the document-level
// security requirements rather than one operation's.
func (l Locator) Global() bool {
	return l.Kind == LocatorSecurity && l.PathKey == ""
}

// RestHasKey reports whether any trailing segment is the given map key.
func (l Locator) RestHasKey(key string) bool {
	for _, seg := range l.Rest {
		if !seg.IsIndex && seg.Key == key {
			return true
		}
	}
	return false
}

// RestEndsWithKey reports whether the final trailing segment is the given
// map key.
func (l Locator) RestEndsWithKey(key string) bool {
	if len(l.Rest) == 0 {
		return false
	}
	last := l.Rest[len(l.Rest)-1]
	return !last.IsIndex && last.Key == key
}

var httpMethods = map[string]struct{}{
	"get": {}, "post": {}, "put": {}, "delete": {},
	"options": {}, "head": {}, "patch": {}, "trace": {},
}

// IsHTTPMethod reports whether the token is one of the eight OpenAPI
// operation method keys.
func IsHTTPMethod(token string) bool {
	_, ok := httpMethods[token]
	return ok
}

var componentCategories = map[string]struct{}{
	"schemas": {}, "parameters": {}, "responses": {},
	"requestBodies": {}, "headers": {}, "securitySchemes": {},
}

// ParsePath maps a structured diff path onto a semantic locator. It operates
// on the segment list only; paths outside the recognized grammar return
// ok=false and are dropped by the classifier without error.
func ParsePath(p Path) (Locator, bool) {
	if len(p) == 0 || p[0].IsIndex {
		return Locator{}, false
	}

	switch p[0].Key {
	case "security":
		return Locator{Kind: LocatorSecurity, ParamIndex: -1, Rest: p[1:]}, true
	case "paths":
		return parseUnderPaths(p[1:])
	case "components":
		return parseComponent(p[1:])
	}
	return Locator{}, false
}

func parseUnderPaths(p Path) (Locator, bool) {
	if len(p) == 0 || p[0].IsIndex || len(p[0].Key) == 0 || p[0].Key[0] != '/' {
		return Locator{}, false
	}
	pathKey := p[0].Key
	if len(p) == 1 {
		return Locator{Kind: LocatorPathItem, PathKey: pathKey, ParamIndex: -1}, true
	}
	if p[1].IsIndex || !IsHTTPMethod(p[1].Key) {
		return Locator{}, false
	}
	return parseUnderOperation(pathKey, p[1].Key, p[2:])
}

func parseUnderOperation(pathKey, method string, p Path) (Locator, bool) {
	loc := Locator{Kind: LocatorOperation, PathKey: pathKey, Method: method, ParamIndex: -1, Rest: p}
	if len(p) == 0 || p[0].IsIndex {
		return loc, true
	}

	switch p[0].Key {
	case "parameters":
		loc.Kind = LocatorParameter
		loc.Rest = p[1:]
		if len(p) > 1 && p[1].IsIndex {
			loc.ParamIndex = p[1].Index
			loc.Rest = p[2:]
		}
		return loc, true
	case "requestBody":
		loc.Kind = LocatorRequestBody
		loc.Rest = p[1:]
		return loc, true
	case "responses":
		if len(p) > 1 && !p[1].IsIndex {
			loc.Kind = LocatorResponse
			loc.StatusCode = p[1].Key
			loc.Rest = p[2:]
			return loc, true
		}
		// Bare "responses" with no status code: treated as a generic
		// operation-level change.
		return loc, true
	case "security":
		loc.Kind = LocatorSecurity
		loc.Rest = p[1:]
		return loc, true
	}
	return loc, true
}

func parseComponent(p Path) (Locator, bool) {
	if len(p) < 2 || p[0].IsIndex || p[1].IsIndex {
		return Locator{}, false
	}
	if _, ok := componentCategories[p[0].Key]; !ok {
		return Locator{}, false
	}
	return Locator{
		Kind:       LocatorComponent,
		Category:   p[0].Key,
		Name:       p[1].Key,
		ParamIndex: -1,
		Rest:       p[2:],
	}, true
}
