package catalog

import (
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/service"
	"bitwise74/rating-api/internal/store"
	"bitwise74/rating-api/pkg/response"
	"bitwise74/rating-api/pkg/util"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type titleBody struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" binding:"required,min=1"`
	Category    string   `json:"category" binding:"required"`
}

type titlePatchBody struct {
	Name        *string   `json:"name" binding:"omitempty,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Genre       *[]string `json:"genre" binding:"omitempty,min=1"`
	Category    *string   `json:"category"`
}

func ListTitles(c *gin.Context, d *internal.Deps) {
	page, err := response.PageOf(c, d.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	f := store.TitleFilter{
		Genre:    c.Query("genre"),
		Category: c.Query("category"),
		Name:     c.Query("name"),
	}

	if raw := c.Query("year"); raw != "" {
		if f.Year, err = strconv.Atoi(raw); err != nil {
			response.Error(c, apperr.Validation("year", "year must be a number"))
			return
		}
	}

	titles, count, err := d.Catalog.ListTitles(c.Request.Context(), f, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, titles, count, page)
}

func GetTitle(c *gin.Context, d *internal.Deps) {
	id, err := util.UintParam(c, "title_id", "title")
	if err != nil {
		response.Error(c, err)
		return
	}

	title, err := d.Catalog.GetTitle(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, title)
}

func CreateTitle(c *gin.Context, d *internal.Deps) {
	var data titleBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	title, err := d.Catalog.CreateTitle(c.Request.Context(), service.TitleInput{
		Name:        data.Name,
		Year:        data.Year,
		Description: data.Description,
		Genres:      data.Genre,
		Category:    data.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, title)
}

func UpdateTitle(c *gin.Context, d *internal.Deps) {
	id, err := util.UintParam(c, "title_id", "title")
	if err != nil {
		response.Error(c, err)
		return
	}

	var data titlePatchBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	title, err := d.Catalog.UpdateTitle(c.Request.Context(), id, service.TitlePatch{
		Name:        data.Name,
		Year:        data.Year,
		Description: data.Description,
		Genres:      data.Genre,
		Category:    data.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, title)
}

func DeleteTitle(c *gin.Context, d *internal.Deps) {
	id, err := util.UintParam(c, "title_id", "title")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := d.Catalog.DeleteTitle(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
