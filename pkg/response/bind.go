package response

import (
	"bitwise74/rating-api/internal/apperr"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON decodes the request body into dst and runs its binding tags.
// Failures come back as validation errors naming the offending field, or as
// a too large error when the body size limit was hit.
func BindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation(fe.Field(), describe(fe))
	}

	// The size limit cuts bodies without a Content-Length off mid decode
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.TooLarge(err)
	}

	return apperr.Validation("", "malformed request body")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "username":
		return "may only contain letters, digits and @.+-_ and can't be a reserved name"
	case "slug":
		return "may only contain lowercase letters, digits and dashes"
	default:
		return "invalid value"
	}
}
