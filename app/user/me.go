// Package user holds the profile and user admin endpoints
package user

import (
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/internal/identity"
	"bitwise74/rating-api/pkg/middleware"
	"bitwise74/rating-api/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

// patchBody has no role field, a role sent by the user is dropped while decoding.
type patchBody struct {
	Username  *string `json:"username" binding:"omitempty,max=150,username"`
	Email     *string `json:"email" binding:"omitempty,max=254,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string `json:"bio"`
}

func (b patchBody) patch() identity.Patch {
	return identity.Patch{
		Username:  b.Username,
		Email:     b.Email,
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Bio:       b.Bio,
	}
}

// Me returns the caller's own profile.
func Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.UserFrom(c))
}

// UpdateMe edits the caller's profile. A role in the body is ignored.
func UpdateMe(c *gin.Context, d *internal.Deps) {
	var data patchBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	u, err := d.Users.UpdateSelf(c.Request.Context(), middleware.UserFrom(c), data.patch())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}
