package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/recipebox/backend/internal/testhelpers"
)

func TestServerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.NewSQLiteDB(t)
	srv := NewServer(db, "test-secret", nil, nil)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Router().ServeHTTP(w, req)
		return w
	}

	t.Run("health", func(t *testing.T) {
		w := get("/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ok")
	})

	t.Run("recipe list is wired", func(t *testing.T) {
		w := get("/api/v1/recipes")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("meal plans require auth", func(t *testing.T) {
		w := get("/api/v1/mealplans")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		w := get("/api/v1/unknown")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
