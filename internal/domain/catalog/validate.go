package catalog

import (
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ValidateStruct checks the `validate` tags of v and reports the first
// failing field as a *ValidationError named after its json tag.
func ValidateStruct(v any) error {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
	}
	return errors.Wrap(err, "validate")
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return "must be " + fe.Param() + " characters"
	case "numeric":
		return "must contain digits only"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}
