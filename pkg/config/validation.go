package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents one configuration validation failure.
type ValidationError struct {
	Field   string
	Tag     string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "min":
		return fmt.Sprintf("%s is below its minimum", e.Field)
	case "oneof":
		return fmt.Sprintf("%s must be one of the allowed values", e.Field)
	default:
		return fmt.Sprintf("%s failed validation", e.Field)
	}
}

// ValidationErrors collects every failure of one validation pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// Validate checks a configuration against its struct tags plus the
// cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationErrors{
			ValidationError{Field: "config", Tag: "required", Message: "config is nil"},
		}
	}

	var validationErrors ValidationErrors

	if err := validator.New().Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range errs {
				validationErrors = append(validationErrors, ValidationError{
					Field: e.Field(),
					Tag:   e.Tag(),
					Value: e.Value(),
				})
			}
		} else {
			validationErrors = append(validationErrors, ValidationError{Message: err.Error()})
		}
	}

	validationErrors = append(validationErrors, crossFieldRules(cfg)...)

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

func crossFieldRules(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	if cfg.Evolve.PopulationSize > 0 && cfg.Evolve.Elitism >= cfg.Evolve.PopulationSize {
		errs = append(errs, ValidationError{
			Field:   "Elitism",
			Value:   cfg.Evolve.Elitism,
			Message: fmt.Sprintf("elitism %d must be below population size %d", cfg.Evolve.Elitism, cfg.Evolve.PopulationSize),
		})
	}
	if cfg.Evaluator.CacheEnabled && cfg.Evaluator.Cache.Type == "sqlite" && cfg.Evaluator.Cache.SQLite.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "Path",
			Tag:     "required",
			Message: "sqlite cache requires a database path",
		})
	}

	return errs
}
