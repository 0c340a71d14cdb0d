// Package config provides configuration management for the Wincast pipeline.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField enforces constraints spanning multiple fields.
func validateCrossField(cfg *Config) error {
	if cfg.Inference.RescaleFloor >= cfg.Inference.RescaleCeil {
		return fmt.Errorf("inference.rescale_floor (%.2f) must be below inference.rescale_ceil (%.2f)",
			cfg.Inference.RescaleFloor, cfg.Inference.RescaleCeil)
	}
	if cfg.Features.WinsorizeLow >= cfg.Features.WinsorizeHigh {
		return fmt.Errorf("features.winsorize_low (%.2f) must be below features.winsorize_high (%.2f)",
			cfg.Features.WinsorizeLow, cfg.Features.WinsorizeHigh)
	}
	formSum := cfg.Features.FormWeightClassRank + cfg.Features.FormWeightLast3 +
		cfg.Features.FormWeightLast5 + cfg.Features.FormWeightLastResult +
		cfg.Features.FormWeightSameCond
	if formSum <= 0 {
		return fmt.Errorf("features form weights must sum to a positive value, got %.3f", formSum)
	}
	if cfg.HasDatabase() && cfg.Database.Name == "" {
		return fmt.Errorf("database.name is required when database.host is set")
	}
	return nil
}

// formatValidationErrors converts validator errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid configuration: %v", messages)
}
