package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateConsoleToken(t *testing.T) {
	token, err := GenerateConsoleToken("admin", "default", "test-secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token, "test-secret")
	require.NoError(t, err)

	assert.Equal(t, "admin", RoleFromClaims(claims))
	assert.Equal(t, "default", claims["tenantId"])
	assert.Equal(t, "console", claims["surface"])
	assert.Equal(t, "console_auth", claims["type"])
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateConsoleToken("editor", "default", "test-secret")
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token", "test-secret")
	assert.Error(t, err)
}

func TestRoleFromClaims_MissingRole(t *testing.T) {
	token, err := GenerateConsoleToken("", "default", "test-secret")
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "", RoleFromClaims(claims))
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
