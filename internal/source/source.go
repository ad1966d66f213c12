// Package source fetches API specification documents over HTTP, detects
// their format and validates them before they enter the comparison pipeline.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SpecFormat represents the API specification format
type SpecFormat string

const (
	FormatSwagger2 SpecFormat = "swagger2"
	FormatOpenAPI3 SpecFormat = "openapi3"
)

const fetchTimeout = 30 * time.Second

// Fetcher retrieves the monitored specification from a remote URL and
// validates it with the validator matching its format.
type Fetcher struct {
	logger            *logrus.Logger
	client            *http.Client
	url               string
	swagger2Validator *Swagger2Validator
	openapi3Validator *OpenAPI3Validator
}

// New creates a new Fetcher instance for the given spec URL.
func New(logger *logrus.Logger, url string) *Fetcher {
	return &Fetcher{
		logger:            logger,
		client:            &http.Client{Timeout: fetchTimeout},
		url:               url,
		swagger2Validator: NewSwagger2Validator(logger),
		openapi3Validator: NewOpenAPI3Validator(logger),
	}
}

// URL returns the configured specification source URL.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch downloads, decodes and validates the current specification. A fetch
// or validation failure returns an error; callers skip the comparison cycle.
func (f *Fetcher) Fetch(ctx context.Context) (map[string]any, error) {
	f.logger.Infof("Fetching API specification from %s", f.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build spec request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching API specification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching API specification", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading API specification body: %w", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if err := f.Validate(doc); err != nil {
		return nil, err
	}

	f.logger.Info("API specification successfully fetched and validated")
	return doc, nil
}

// Validate detects the document format and runs the matching validator.
func (f *Fetcher) Validate(doc map[string]any) error {
	format, err := DetectFormat(doc)
	if err != nil {
		return err
	}
	f.logger.Debugf("Detected specification format: %s", format)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize spec for validation: %w", err)
	}

	switch format {
	case FormatSwagger2:
		return f.swagger2Validator.Validate(data)
	case FormatOpenAPI3:
		return f.openapi3Validator.Validate(data)
	}
	return fmt.Errorf("unsupported specification format")
}

// DetectFormat determines the specification format from the decoded document.
func DetectFormat(doc map[string]any) (SpecFormat, error) {
	if swagger, _ := doc["swagger"].(string); swagger == "2.0" {
		return FormatSwagger2, nil
	}
	if openapi, _ := doc["openapi"].(string); strings.HasPrefix(openapi, "3.") {
		return FormatOpenAPI3, nil
	}
	return "", fmt.Errorf("unable to determine specification format")
}

// Decode parses raw spec bytes, trying JSON first and falling back to YAML.
func Decode(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse spec as JSON or YAML: %w", err)
	}
	return doc, nil
}

// LoadFile reads and decodes a specification document from disk.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return Decode(data)
}
