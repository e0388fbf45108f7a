package user

import (
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/internal/identity"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type createBody struct {
	Username  string     `json:"username" binding:"required,max=150,username"`
	Email     string     `json:"email" binding:"required,max=254,email"`
	FirstName string     `json:"first_name" binding:"max=150"`
	LastName  string     `json:"last_name" binding:"max=150"`
	Bio       string     `json:"bio"`
	Role      model.Role `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

type adminPatchBody struct {
	patchBody
	Role *model.Role `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

func List(c *gin.Context, d *internal.Deps) {
	page, err := response.PageOf(c, d.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	users, count, err := d.Users.List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, users, count, page)
}

func Create(c *gin.Context, d *internal.Deps) {
	var data createBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	u, err := d.Users.Create(c.Request.Context(), identity.Input{
		Username:  data.Username,
		Email:     data.Email,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Bio:       data.Bio,
		Role:      data.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, u)
}

func Get(c *gin.Context, d *internal.Deps) {
	u, err := d.Users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func Update(c *gin.Context, d *internal.Deps) {
	var data adminPatchBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	p := data.patch()
	p.Role = data.Role

	u, err := d.Users.Update(c.Request.Context(), c.Param("username"), p)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func Delete(c *gin.Context, d *internal.Deps) {
	if err := d.Users.Delete(c.Request.Context(), c.Param("username")); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
