// Package review holds the review and comment endpoints nested under titles
package review

import (
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/internal/service"
	"bitwise74/rating-api/pkg/middleware"
	"bitwise74/rating-api/pkg/response"
	"bitwise74/rating-api/pkg/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type reviewBody struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required"`
}

type reviewPatchBody struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

func List(c *gin.Context, d *internal.Deps) {
	titleID, err := util.UintParam(c, "title_id", "title")
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := response.PageOf(c, d.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	reviews, count, err := d.Reviews.List(c.Request.Context(), titleID, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, reviews, count, page)
}

func Get(c *gin.Context, d *internal.Deps) {
	titleID, reviewID, err := ids(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	r, err := d.Reviews.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

func Create(c *gin.Context, d *internal.Deps) {
	titleID, err := util.UintParam(c, "title_id", "title")
	if err != nil {
		response.Error(c, err)
		return
	}

	var data reviewBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	r, err := d.Reviews.Create(c.Request.Context(), middleware.ActorFrom(c), titleID, data.Text, data.Score)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

func Update(c *gin.Context, d *internal.Deps) {
	titleID, reviewID, err := ids(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var data reviewPatchBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	r, err := d.Reviews.Update(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID, service.ReviewPatch{
		Text:  data.Text,
		Score: data.Score,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

func Delete(c *gin.Context, d *internal.Deps) {
	titleID, reviewID, err := ids(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := d.Reviews.Delete(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func ids(c *gin.Context) (titleID, reviewID uint, err error) {
	if titleID, err = util.UintParam(c, "title_id", "title"); err != nil {
		return 0, 0, err
	}

	if reviewID, err = util.UintParam(c, "review_id", "review"); err != nil {
		return 0, 0, err
	}

	return titleID, reviewID, nil
}
