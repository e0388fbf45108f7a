package auth

import (
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type signupBody struct {
	Username string `json:"username" binding:"required,max=150,username"`
	Email    string `json:"email" binding:"required,max=254,email"`
}

// Signup registers a user, or finds the one with the same username and email,
// and mails a confirmation code.
func Signup(c *gin.Context, d *internal.Deps) {
	var data signupBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	u, err := d.Auth.Signup(c.Request.Context(), data.Username, data.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": u.Username,
		"email":    u.Email,
	})
}
