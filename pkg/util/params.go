package util

import (
	"bitwise74/rating-api/internal/apperr"
	"strconv"

	"github.com/gin-gonic/gin"
)

// UintParam reads a numeric path parameter. Anything that isn't a positive
// number can't name an existing row, so it is reported as not found.
func UintParam(c *gin.Context, name, resource string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.NotFound(resource)
	}

	return uint(v), nil
}
