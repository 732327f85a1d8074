package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebox/backend/internal/models"
	"github.com/recipebox/backend/internal/testhelpers"
)

func TestRegisterAndLogin(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := NewAuthService(db, "test-secret")

	token, err := svc.Register("zoe", "zoe@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	t.Run("password is stored hashed", func(t *testing.T) {
		var user models.User
		require.NoError(t, db.First(&user, "username = ?", "zoe").Error)
		assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := svc.Register("zoe", "other@example.com", "another password")
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("login with correct credentials", func(t *testing.T) {
		token, err := svc.Login("zoe", "correct horse battery")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		_, err := svc.Login("zoe", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("login with unknown username", func(t *testing.T) {
		_, err := svc.Login("ghost", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := NewAuthService(db, "test-secret")

	user := createUser(t, db, "aaron")
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "aaron", claims.Username)

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		other := NewAuthService(db, "different-secret")
		otherToken, err := other.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.ValidateToken(otherToken)
		assert.Error(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}
