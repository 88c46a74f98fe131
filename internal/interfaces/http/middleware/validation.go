package middleware

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/loanbook/backend/internal/interfaces/http/dto"
)

// SetupValidator configures the gin validator to use json tag names in
// error messages instead of Go struct field names.
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// FormatValidationErrors converts validator errors into response details
func FormatValidationErrors(err error) []dto.ValidationDetail {
	var details []dto.ValidationDetail

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return details
	}

	for _, fieldErr := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   fieldErr.Field(),
			Message: getValidationMessage(fieldErr),
		})
	}

	return details
}

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldErr.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fieldErr.Field(), fieldErr.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fieldErr.Field(), fieldErr.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", fieldErr.Field(), fieldErr.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fieldErr.Field(), fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fieldErr.Field(), fieldErr.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fieldErr.Field())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", fieldErr.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a valid date in format %s", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", fieldErr.Field(), fieldErr.Tag())
	}
}
