package response

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/store"
	"bitwise74/rating-api/pkg/validators"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Validation("name", "bad"), http.StatusBadRequest},
		{apperr.InvalidCode(), http.StatusBadRequest},
		{apperr.Conflict("title", "taken"), http.StatusConflict},
		{apperr.NotFound("title"), http.StatusNotFound},
		{apperr.Unauthenticated("who are you"), http.StatusUnauthorized},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.Unavailable("smtp", errors.New("timeout")), http.StatusBadGateway},
		{apperr.TooLarge(&http.MaxBytesError{Limit: 8}), http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

func TestError(t *testing.T) {
	t.Run("Should expose field and message", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("requestID", "req-1")

		Error(c, apperr.Conflict("title", "you have already reviewed this title"))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"you have already reviewed this title","field":"title","requestID":"req-1"}`, w.Body.String())
		assert.True(t, c.IsAborted())
	})

	t.Run("Should hide internal causes", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		Error(c, errors.New("dial tcp: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

type signupBody struct {
	Username string `json:"username" binding:"required,max=150,username"`
	Email    string `json:"email" binding:"required,email,max=254"`
}

func TestBindJSON(t *testing.T) {
	require.NoError(t, validators.RegisterBinding())

	bind := func(body string) error {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		var dst signupBody
		return BindJSON(c, &dst)
	}

	assert.NoError(t, bind(`{"username":"ann","email":"ann@example.com"}`))

	var e *apperr.Error

	require.ErrorAs(t, bind(`{"username":"me","email":"ann@example.com"}`), &e)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, "username", e.Field)

	require.ErrorAs(t, bind(`{"username":"ann"}`), &e)
	assert.Equal(t, "email", e.Field)

	require.ErrorAs(t, bind(`{"username":`), &e)
	assert.Equal(t, apperr.KindValidation, e.Kind)
}

func TestList(t *testing.T) {
	request := func(target string, p store.Page, count int64) map[string]any {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)

		List(c, []string{"a"}, count, p)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	first := request("http://api.test/api/v1/titles?year=2000", store.Page{Number: 1, Size: 1}, 3)
	assert.EqualValues(t, 3, first["count"])
	assert.Nil(t, first["previous"])
	assert.Equal(t, "http://api.test/api/v1/titles?page=2&year=2000", first["next"])

	last := request("http://api.test/api/v1/titles?page=3", store.Page{Number: 3, Size: 1}, 3)
	assert.Nil(t, last["next"])
	assert.Equal(t, "http://api.test/api/v1/titles?page=2", last["previous"])

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/titles", nil)
	List[string](c, nil, 0, store.Page{Number: 1, Size: 10})
	assert.JSONEq(t, `{"count":0,"next":null,"previous":null,"results":[]}`, w.Body.String())
}

func TestPageOf(t *testing.T) {
	page := func(target string) (store.Page, error) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		return PageOf(c, 10)
	}

	p, err := page("/titles")
	require.NoError(t, err)
	assert.Equal(t, store.Page{Number: 1, Size: 10}, p)

	p, err = page("/titles?page=4")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Number)

	for _, bad := range []string{"/titles?page=0", "/titles?page=x"} {
		_, err := page(bad)
		assert.True(t, apperr.Is(err, apperr.KindValidation), bad)
	}
}
