package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report JSON field names so error keys match the request body
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
}

// ValidateRequest validates a request struct
func ValidateRequest(obj interface{}) error {
	return validate.Struct(obj)
}

// ValidationErrorResponse converts validator errors to messages keyed by field
func ValidationErrorResponse(err error) map[string][]string {
	errs := make(map[string][]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["non_field_errors"] = []string{err.Error()}
		return errs
	}

	for _, fieldError := range validationErrors {
		field := fieldError.Field()

		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required."
		case "min":
			message = fmt.Sprintf("Ensure this value is at least %s.", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Ensure this value is at most %s.", fieldError.Param())
		case "oneof":
			message = fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fieldError.Value()))
		case "email":
			message = "Enter a valid email address."
		default:
			message = fmt.Sprintf("Failed validation: %s.", fieldError.Tag())
		}

		errs[field] = append(errs[field], message)
	}

	return errs
}

// BindAndValidate binds and validates a JSON request
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		AbortWithError(c, http.StatusBadRequest, "parse_error", "JSON parse error - "+err.Error())
		return false
	}

	return Validate(c, obj)
}

// BindQuery binds and validates query parameters
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		AbortWithError(c, http.StatusBadRequest, "parse_error", err.Error())
		return false
	}

	return Validate(c, obj)
}

// Validate aborts with field errors when obj is invalid
func Validate(c *gin.Context, obj interface{}) bool {
	if err := ValidateRequest(obj); err != nil {
		AbortWithFieldErrors(c, "Request validation failed", ValidationErrorResponse(err))
		return false
	}
	return true
}
