// Package response writes the JSON bodies every handler returns
package response

import (
	"bitwise74/rating-api/internal/apperr"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestID,omitempty"`
}

// StatusOf maps an error to the HTTP status it is reported with.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindInvalidCode:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnavailable:
		return http.StatusBadGateway
	case apperr.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Error aborts the request with err rendered as JSON. Internal causes are
// logged and never shown to the client.
func Error(c *gin.Context, err error) {
	requestID := c.GetString("requestID")
	status := StatusOf(err)

	body := errorBody{RequestID: requestID}

	var e *apperr.Error
	switch {
	case status == http.StatusInternalServerError:
		body.Error = "Internal server error"
	case errors.As(err, &e):
		body.Error = e.Message
		body.Field = e.Field
	default:
		body.Error = err.Error()
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.Error(err),
			zap.Int("status", status),
			zap.String("requestID", requestID),
		)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
