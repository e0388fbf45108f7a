// Package catalog holds the title, genre and category endpoints
package catalog

import (
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type sluggedBody struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

func ListGenres(c *gin.Context, d *internal.Deps) {
	page, err := response.PageOf(c, d.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	genres, count, err := d.Catalog.ListGenres(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, genres, count, page)
}

func CreateGenre(c *gin.Context, d *internal.Deps) {
	var data sluggedBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	genre, err := d.Catalog.CreateGenre(c.Request.Context(), data.Name, data.Slug)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, genre)
}

func DeleteGenre(c *gin.Context, d *internal.Deps) {
	if err := d.Catalog.DeleteGenre(c.Request.Context(), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func ListCategories(c *gin.Context, d *internal.Deps) {
	page, err := response.PageOf(c, d.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	categories, count, err := d.Catalog.ListCategories(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, categories, count, page)
}

func CreateCategory(c *gin.Context, d *internal.Deps) {
	var data sluggedBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	category, err := d.Catalog.CreateCategory(c.Request.Context(), data.Name, data.Slug)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

func DeleteCategory(c *gin.Context, d *internal.Deps) {
	if err := d.Catalog.DeleteCategory(c.Request.Context(), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
