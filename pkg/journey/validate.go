package journey

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce     sync.Once
	validateInstance *validator.Validate
)

// validatorInstance returns the shared validator, configured on first
// use: yaml tag names in messages, plus the journey_path rule.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("journey_path", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return strings.HasPrefix(s, "/") && !strings.ContainsAny(s, " \t")
		})
		validateInstance = v
	})
	return validateInstance
}

func validateDefinition(def *Definition, sourcePath string) error {
	err := validatorInstance().Struct(def)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ParseError{
			Path:    sourcePath,
			Message: describeFieldError(verrs[0]),
		}
	}
	return fmt.Errorf("validate journey definition: %w", err)
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Definition.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", field, fe.Param())
	case "journey_path":
		return fmt.Sprintf("%s must be an absolute path like /apply", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
