package middleware

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/authz"
	"bitwise74/rating-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// Require runs the class-level permission check for resource, deriving the
// action from the request method.
func Require(resource authz.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.Allow(ActorFrom(c), authz.ActionFor(c.Request.Method), resource); err != nil {
			response.Error(c, err)
			return
		}

		c.Next()
	}
}

// RequireAuth only lets authenticated actors through.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorFrom(c).Anonymous() {
			response.Error(c, apperr.Unauthenticated("authentication required"))
			return
		}

		c.Next()
	}
}
