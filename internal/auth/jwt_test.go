package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(412, "maria@example.pt", testSecret, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(412), claims.AccountID)
	assert.Equal(t, "maria@example.pt", claims.Email)
}

func TestValidateToken(t *testing.T) {
	validToken, err := GenerateToken(7, "user@example.pt", testSecret, 24*time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken(7, "user@example.pt", testSecret, -1*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{
			name:      "expired token",
			token:     expiredToken,
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenExpired,
		},
		{
			name:   "wrong secret",
			token:  validToken,
			secret: "wrong-secret",
		},
		{
			name:   "garbage token",
			token:  "not.a.token",
			secret: testSecret,
		},
		{
			name:   "empty token",
			token:  "",
			secret: testSecret,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := ValidateToken(tc.token, tc.secret)
			require.Error(t, err)
			assert.Nil(t, claims)
			if tc.wantErrIs != nil {
				assert.ErrorIs(t, err, tc.wantErrIs)
			}
		})
	}
}
