package response

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/store"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

type listBody struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// PageOf reads the 1-based ?page= query parameter.
func PageOf(c *gin.Context, size int) (store.Page, error) {
	p := store.Page{Number: 1, Size: size}

	raw := c.Query("page")
	if raw == "" {
		return p, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return p, apperr.Validation("page", "page must be a positive number")
	}

	p.Number = n
	return p, nil
}

// List writes one page of results with links to its neighbours.
func List[T any](c *gin.Context, results []T, count int64, p store.Page) {
	if results == nil {
		results = []T{}
	}

	body := listBody{Count: count, Results: results}

	if p.Number > 1 {
		prev := pageURL(c, p.Number-1)
		body.Previous = &prev
	}

	if p.Size > 0 && int64(p.Number*p.Size) < count {
		next := pageURL(c, p.Number+1)
		body.Next = &next
	}

	c.JSON(http.StatusOK, body)
}

func pageURL(c *gin.Context, n int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(n))

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}

	return u.String()
}
