package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their koanf keys, so messages name the
// same path an operator sets in YAML or APP_ variables.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}

		return name
	})

	return v
}

// Validate checks field rules and then the rules spanning sections.
// All problems are reported together.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}

		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	problems = append(problems, c.crossCheck()...)

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(problems, "\n  "))
}

func (c *Config) crossCheck() []string {
	var problems []string

	if slices.Contains(c.Session.Sources, SourceRemote) && !c.Services.Quote.Enabled {
		problems = append(problems, "session.sources lists remote but services.quote is disabled")
	}

	if r := c.Services.Quote.Retry; r.MaxInterval > 0 && r.MaxInterval < r.InitialInterval {
		problems = append(problems, "services.quote.retry.max_interval must not be below initial_interval")
	}

	return problems
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, param)
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", field, param)
	case "unique":
		return field + " must not contain duplicates"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "url":
		return field + " must be a valid URL"
	}

	return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
}

// fieldPath drops the root type from "Config.server.read_timeout".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return rest
}
