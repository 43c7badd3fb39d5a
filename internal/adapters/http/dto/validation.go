package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation marks a request that decoded but broke a field rule.
	ErrValidation = errors.New("validation failed")

	// ErrBinding marks a body or query string that could not be decoded.
	ErrBinding = errors.New("binding failed")
)

// Validator returns the shared request validator. Field errors are named
// by JSON tag and the "notblank" rule is registered.
var Validator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}

	return v
})

// Validate checks v against its validate tags.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate decodes the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	return bind(c, binding.JSON, v)
}

// BindQueryAndValidate decodes the query string into v and validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	return bind(c, binding.Query, v)
}

func bind(c *gin.Context, b binding.Binding, v any) error {
	if err := c.ShouldBindWith(v, b); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) bool {
	var fes validator.ValidationErrors
	return errors.As(err, &fes)
}

// ValidationErrors returns one message per failing field, keyed by the
// path below the request struct, e.g. "quotes[0].content".
func ValidationErrors(err error) map[string]string {
	out := map[string]string{}

	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return out
	}

	for _, fe := range fes {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}

		out[path] = describeRule(fe)
	}

	return out
}

func describeRule(fe validator.FieldError) string {
	p := fe.Param()

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "notblank":
		return "must not be blank"
	case "url":
		return "must be a valid URL"
	case "unique":
		return "must not contain duplicates"
	case "oneof":
		return "must be one of: " + p
	case "gte":
		return "must be greater than or equal to " + p
	case "lte":
		return "must be less than or equal to " + p
	case "min":
		return "must be at least " + p + unitOf(fe.Kind())
	case "max":
		return "must be at most " + p + unitOf(fe.Kind())
	default:
		return "failed validation: " + fe.Tag()
	}
}

func unitOf(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array:
		return " items"
	default:
		return ""
	}
}
