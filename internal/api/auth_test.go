package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid registration returns a token", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "supersecret",
		}, "")
		requireStatus(t, w, http.StatusCreated)

		var resp map[string]string
		decodeJSON(t, w, &resp)
		assert.NotEmpty(t, resp["token"])
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"username": "alice",
			"email":    "alice2@example.com",
			"password": "supersecret",
		}, "")
		requireStatus(t, w, http.StatusConflict)
	})

	t.Run("missing fields produce per-field errors", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"username": "bob",
		}, "")
		requireStatus(t, w, http.StatusBadRequest)

		var resp struct {
			Errors []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"errors"`
		}
		decodeJSON(t, w, &resp)

		fields := make([]string, 0, len(resp.Errors))
		for _, fe := range resp.Errors {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(t, []string{"email", "password"}, fields)
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "supersecret",
	}, "")
	requireStatus(t, w, http.StatusCreated)

	t.Run("correct credentials", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "carol",
			"password": "supersecret",
		}, "")
		requireStatus(t, w, http.StatusOK)

		var resp map[string]string
		decodeJSON(t, w, &resp)
		require.NotEmpty(t, resp["token"])

		claims, err := env.auth.ValidateToken(resp["token"])
		require.NoError(t, err)
		assert.Equal(t, "carol", claims.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "carol",
			"password": "nope",
		}, "")
		requireStatus(t, w, http.StatusUnauthorized)
	})
}
