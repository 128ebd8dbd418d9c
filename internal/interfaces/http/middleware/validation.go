package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/notaria/backend/internal/interfaces/http/dto"
)

// binding tags looked up, in order, when naming a failed field
var fieldNameTags = []string{"json", "uri", "form"}

// messages for tags whose text does not depend on the field kind
var tagMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"numeric":  "Must be numeric",
}

// SetupValidator makes gin's validator report fields by their wire name.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(wireName)
}

func wireName(field reflect.StructField) string {
	for _, tag := range fieldNameTags {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		switch name {
		case "":
			continue
		case "-":
			return ""
		}
		return name
	}
	return field.Name
}

// HandleBindingError writes the answer for a failed ShouldBind* call: field
// failures are listed under ERR_VALIDATION, an oversized stream gets 413 and
// anything else is treated as an undecodable body.
func HandleBindingError(c *gin.Context, err error) {
	requestID := GetRequestID(c)

	var fieldErrs validator.ValidationErrors
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &fieldErrs):
		details := make([]dto.ValidationDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)})
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", requestID, details))
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", requestID))
	default:
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "Request body is not valid JSON: "+err.Error(), requestID))
	}
}

func describe(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("Must be at least %s%s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("Must be at most %s%s", fe.Param(), unit)
	case "len":
		return fmt.Sprintf("Must be exactly %s%s", fe.Param(), unit)
	case "oneof":
		return "Must be one of: " + fe.Param()
	}
	return "Invalid value"
}
