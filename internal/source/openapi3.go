package source

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/sirupsen/logrus"
)

// OpenAPI3Validator handles OpenAPI 3.0 specification validation
type OpenAPI3Validator struct {
	logger *logrus.Logger
}

// NewOpenAPI3Validator creates a new OpenAPI 3.0 validator instance
func NewOpenAPI3Validator(logger *logrus.Logger) *OpenAPI3Validator {
	return &OpenAPI3Validator{
		logger: logger,
	}
}

// Validate validates an OpenAPI 3.0 specification
func (v *OpenAPI3Validator) Validate(data []byte) error {
	v.logger.Debug("Validating OpenAPI 3.0 specification")

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI 3.0 spec: %w", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		return fmt.Errorf("OpenAPI 3.0 validation failed: %w", err)
	}

	if doc.Paths != nil {
		v.logger.WithFields(logrus.Fields{
			"title":   doc.Info.Title,
			"version": doc.Info.Version,
			"paths":   doc.Paths.Len(),
		}).Debug("OpenAPI 3.0 specification is valid")
	}
	return nil
}
