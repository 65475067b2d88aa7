// Package validation wraps go-playground/validator and converts its failures
// into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/talesmith/talesmith-server/internal/domain"
	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the tale-specific tags registered:
//
//	agerange  value is one of domain.AgeRanges
//	notblank  string is not empty after trimming whitespace
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error details.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("agerange", func(fl validator.FieldLevel) bool {
		return domain.AgeRange(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain validation error whose
// details map each failing field to a message.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make([]string, 0, len(validationErrs))
	details := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		if _, seen := details[e.Field()]; !seen {
			fields = append(fields, e.Field())
		}
		details[e.Field()] = friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("invalid "+strings.Join(fields, ", "), details)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "agerange":
		ranges := make([]string, len(domain.AgeRanges))
		for i, r := range domain.AgeRanges {
			ranges[i] = string(r)
		}
		return "must be one of: " + strings.Join(ranges, " ")
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
