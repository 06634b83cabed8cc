// Package validation runs struct-tag validation for form input and reports
// failures as models.FieldErrors keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront-bff/internal/models"
)

const defaultMessage = "Invalid value."

var expiryRe = regexp.MustCompile(`^\d{2}/\d{2}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Card expiry as MM/YY.
	if err := v.RegisterValidation("mmyy", func(fl validator.FieldLevel) bool {
		return expiryRe.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Messages maps "field.tag" or "field" to the text shown next to the field.
// The more specific key wins.
type Messages map[string]string

func (m Messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return defaultMessage
}

// Struct validates v against its validate tags. It returns nil or
// models.FieldErrors with one message per failing field.
func Struct(v any, messages Messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := models.FieldErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = messages.lookup(field, fe.Tag())
	}
	return out
}

// Valid reports whether a single value satisfies tag.
func Valid(v any, tag string) bool {
	return validate.Var(v, tag) == nil
}
