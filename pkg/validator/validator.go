package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// ValidateStruct checks s against its `validate` tags and folds every
// violation into a single error.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	var errMsgs []string
	for _, fe := range verrs {
		errMsgs = append(errMsgs, fmt.Sprintf(
			"Field: %s, Tag: %s, Param: %s", fe.Field(), fe.Tag(), fe.Param(),
		))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(errMsgs, "; "))
}

// MissingFields returns the names of the fields of s that failed the
// `required` tag. It returns nil when s is valid.
func MissingFields(s interface{}) []string {
	var verrs validator.ValidationErrors
	if err := validate.Struct(s); !errors.As(err, &verrs) {
		return nil
	}

	var fields []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
	}
	return fields
}
