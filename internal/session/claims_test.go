package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return signed
}

func TestDecode(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	tokenString := signedToken(t, jwt.MapClaims{
		"user_id": "8e2f1f2a-0b5e-4a7e-9f1d-2a6c3b4d5e6f",
		"name":    "Frieda Holt",
		"role":    "PM",
		"exp":     exp.Unix(),
	})

	claims, err := session.Decode(tokenString)
	require.NoError(t, err)

	assert.Equal(t, "8e2f1f2a-0b5e-4a7e-9f1d-2a6c3b4d5e6f", claims.UserID)
	assert.Equal(t, "Frieda Holt", claims.Name)
	assert.Equal(t, domain.RoleProjectManager, claims.Role)
	assert.Equal(t, exp.Unix(), claims.ExpiresAt().Unix())
}

func TestDecodeFallsBackToSub(t *testing.T) {
	tokenString := signedToken(t, jwt.MapClaims{
		"sub": "user-77",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := session.Decode(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-77", claims.UserID)
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a jwt", token: "not.a.token"},
		{name: "garbage", token: "aGVsbG8"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := session.Decode(tc.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, session.ErrInvalidToken)
		})
	}
}

func TestDecodeRequiresExp(t *testing.T) {
	tokenString := signedToken(t, jwt.MapClaims{
		"user_id": "user-1",
	})

	_, err := session.Decode(tokenString)
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestDecodeRequiresUserID(t *testing.T) {
	tokenString := signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := session.Decode(tokenString)
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	t.Run("valid token is not expired", func(t *testing.T) {
		tokenString := signedToken(t, jwt.MapClaims{
			"user_id": "u1",
			"exp":     now.Add(time.Hour).Unix(),
		})
		assert.False(t, session.IsExpired(tokenString, now))
	})

	t.Run("past expiry", func(t *testing.T) {
		tokenString := signedToken(t, jwt.MapClaims{
			"user_id": "u1",
			"exp":     now.Add(-time.Minute).Unix(),
		})
		assert.True(t, session.IsExpired(tokenString, now))
	})

	t.Run("undecodable tokens fail closed", func(t *testing.T) {
		assert.True(t, session.IsExpired("???", now))
	})
}
