package middleware

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/authz"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/pkg/response"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	actorKey = "actor"
	userKey  = "user"
)

// TokenParser turns an access token into the ID of the user it was minted for.
type TokenParser interface {
	Parse(token string) (string, error)
}

type UserSource interface {
	ByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware resolves the bearer token into an actor. Requests without
// an Authorization header go on as anonymous, a bad token is rejected.
func NewAuthMiddleware(tokens TokenParser, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(actorKey, authz.Actor{})
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Error(c, apperr.Unauthenticated("authorization header must be a bearer token"))
			return
		}

		userID, err := tokens.Parse(token)
		if err != nil {
			zap.L().Debug("Rejected access token", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			response.Error(c, apperr.Unauthenticated("authorization token invalid"))
			return
		}

		// Tokens outlive deleted accounts
		u, err := users.ByID(c.Request.Context(), userID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				response.Error(c, apperr.Unauthenticated("authorization token invalid"))
				return
			}

			response.Error(c, err)
			return
		}

		c.Set(actorKey, authz.ActorFor(u))
		c.Set(userKey, u)
		c.Set("userID", u.ID)
		c.Next()
	}
}

// ActorFrom returns the actor the auth middleware stored, anonymous if none.
func ActorFrom(c *gin.Context) authz.Actor {
	a, _ := c.Get(actorKey)
	actor, _ := a.(authz.Actor)
	return actor
}

// UserFrom returns the authenticated user or nil.
func UserFrom(c *gin.Context) *model.User {
	u, _ := c.Get(userKey)
	user, _ := u.(*model.User)
	return user
}
