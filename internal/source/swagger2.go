package source

import (
	"encoding/json"
	"fmt"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/spec"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
	"github.com/sirupsen/logrus"
)

// Swagger2Validator handles Swagger 2.0 specification validation
type Swagger2Validator struct {
	logger *logrus.Logger
}

// NewSwagger2Validator creates a new Swagger 2.0 validator instance
func NewSwagger2Validator(logger *logrus.Logger) *Swagger2Validator {
	return &Swagger2Validator{
		logger: logger,
	}
}

// Validate validates a Swagger 2.0 specification
func (v *Swagger2Validator) Validate(data []byte) error {
	v.logger.Debug("Validating Swagger 2.0 specification")

	doc, err := loads.Analyzed(json.RawMessage(data), "")
	if err != nil {
		return fmt.Errorf("failed to load Swagger 2.0 spec: %w", err)
	}

	if err := spec.ExpandSpec(doc.Spec(), &spec.ExpandOptions{}); err != nil {
		return fmt.Errorf("failed to expand spec: %w", err)
	}

	validator := validate.NewSpecValidator(doc.Schema(), strfmt.Default)
	result, _ := validator.Validate(doc)
	if result != nil && result.HasErrors() {
		for _, validationError := range result.Errors {
			v.logger.WithField("error", validationError.Error()).Warn("Swagger 2.0 validation error")
		}
		return fmt.Errorf("Swagger 2.0 validation failed with %d error(s)", len(result.Errors))
	}

	v.logger.WithFields(logrus.Fields{
		"title":   doc.Spec().Info.Title,
		"version": doc.Spec().Info.Version,
	}).Debug("Swagger 2.0 specification is valid")
	return nil
}
