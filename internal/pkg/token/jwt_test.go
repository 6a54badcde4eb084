package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invadjust/internal/pkg/token"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := token.NewService("segredo", time.Hour)

	tokenString, err := svc.GenerateToken("user-1", "staff")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "staff", claims.Role)
}

func TestValidateToken_Fail_WrongSecret(t *testing.T) {
	tokenString, err := token.NewService("segredo", time.Hour).GenerateToken("user-1", "staff")
	require.NoError(t, err)

	_, err = token.NewService("outro-segredo", time.Hour).ValidateToken(tokenString)

	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestValidateToken_Fail_Expired(t *testing.T) {
	tokenString, err := token.NewService("segredo", -time.Minute).GenerateToken("user-1", "admin")
	require.NoError(t, err)

	_, err = token.NewService("segredo", time.Hour).ValidateToken(tokenString)

	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestValidateToken_Fail_Garbage(t *testing.T) {
	_, err := token.NewService("segredo", time.Hour).ValidateToken("não-é-um-jwt")

	assert.ErrorIs(t, err, token.ErrInvalidToken)
}
