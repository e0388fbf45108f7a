package review

import (
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/pkg/middleware"
	"bitwise74/rating-api/pkg/response"
	"bitwise74/rating-api/pkg/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type commentBody struct {
	Text string `json:"text" binding:"required"`
}

func ListComments(c *gin.Context, d *internal.Deps) {
	titleID, reviewID, err := ids(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := response.PageOf(c, d.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	comments, count, err := d.Comments.List(c.Request.Context(), titleID, reviewID, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, comments, count, page)
}

func GetComment(c *gin.Context, d *internal.Deps) {
	titleID, reviewID, commentID, err := commentIDs(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	comment, err := d.Comments.Get(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func CreateComment(c *gin.Context, d *internal.Deps) {
	titleID, reviewID, err := ids(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var data commentBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	comment, err := d.Comments.Create(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID, data.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func UpdateComment(c *gin.Context, d *internal.Deps) {
	titleID, reviewID, commentID, err := commentIDs(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var data commentBody
	if err := response.BindJSON(c, &data); err != nil {
		response.Error(c, err)
		return
	}

	comment, err := d.Comments.Update(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID, commentID, data.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func DeleteComment(c *gin.Context, d *internal.Deps) {
	titleID, reviewID, commentID, err := commentIDs(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := d.Comments.Delete(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID, commentID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func commentIDs(c *gin.Context) (titleID, reviewID, commentID uint, err error) {
	if titleID, reviewID, err = ids(c); err != nil {
		return 0, 0, 0, err
	}

	if commentID, err = util.UintParam(c, "comment_id", "comment"); err != nil {
		return 0, 0, 0, err
	}

	return titleID, reviewID, commentID, nil
}
