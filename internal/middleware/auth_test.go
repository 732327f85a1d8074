package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/recipebox/backend/internal/types"
)

type stubValidator struct {
	claims *types.TokenClaims
	err    error
}

func (v *stubValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	return v.claims, v.err
}

func newAuthTestRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/probe", handler, func(c *gin.Context) {
		if id, ok := c.Get("user_id"); ok {
			c.JSON(http.StatusOK, gin.H{"user_id": id.(uuid.UUID).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
	})
	return router
}

func probe(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := &stubValidator{claims: &types.TokenClaims{UserID: userID, Username: "tester"}}
	invalid := &stubValidator{err: errors.New("bad token")}

	t.Run("valid token sets the principal", func(t *testing.T) {
		w := probe(newAuthTestRouter(AuthMiddleware(valid)), "Bearer good")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("missing header is 401", func(t *testing.T) {
		w := probe(newAuthTestRouter(AuthMiddleware(valid)), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is 401", func(t *testing.T) {
		w := probe(newAuthTestRouter(AuthMiddleware(valid)), "NotBearer token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		w := probe(newAuthTestRouter(AuthMiddleware(invalid)), "Bearer bad")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := &stubValidator{claims: &types.TokenClaims{UserID: userID, Username: "tester"}}
	invalid := &stubValidator{err: errors.New("bad token")}

	t.Run("no header proceeds anonymously", func(t *testing.T) {
		w := probe(newAuthTestRouter(OptionalAuthMiddleware(valid)), "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "null")
	})

	t.Run("valid token sets the principal", func(t *testing.T) {
		w := probe(newAuthTestRouter(OptionalAuthMiddleware(valid)), "Bearer good")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("present but invalid token is still rejected", func(t *testing.T) {
		w := probe(newAuthTestRouter(OptionalAuthMiddleware(invalid)), "Bearer bad")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
