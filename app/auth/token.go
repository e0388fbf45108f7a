package auth

import (
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type tokenBody struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// Token exchanges a confirmation code for an access token.
func Token(c *gin.Context, d *internal.Deps) {
	var data tokenBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	token, exp, err := d.Auth.Exchange(c.Request.Context(), data.Username, data.ConfirmationCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC(),
	})
}
