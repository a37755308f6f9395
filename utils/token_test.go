package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTokenEnv(t *testing.T) {
	t.Helper()

	t.Setenv("JWT_ACCESS_KEY", "test-access-key")
	t.Setenv("JWT_REFRESH_KEY", "test-refresh-key")
	t.Setenv("JWT_ACCESS_EXPIRE", "15")
	t.Setenv("JWT_REFRESH_EXPIRE", "10080")
}

func TestGenerateAndExtractTokens(t *testing.T) {
	setTokenEnv(t)

	tokens, err := GenerateTokens("user-1", false)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.Access)
	require.NotEmpty(t, tokens.Refresh)
	assert.NotEqual(t, tokens.Access, tokens.Refresh)

	claims, err := CheckAndExtractTokenMetadata(tokens.Access, "JWT_ACCESS_KEY")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Id)
	assert.False(t, claims.Otp)
	assert.Positive(t, claims.Exp)

	claims, err = CheckAndExtractTokenMetadata(tokens.Refresh, "JWT_REFRESH_KEY")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Id)
}

func TestExtractCarriesOtpFlag(t *testing.T) {
	setTokenEnv(t)

	tokens, err := GenerateTokens("user-1", true)
	require.NoError(t, err)

	claims, err := CheckAndExtractTokenMetadata(tokens.Access, "JWT_ACCESS_KEY")
	require.NoError(t, err)
	assert.True(t, claims.Otp)
}

func TestExtractRejectsWrongKey(t *testing.T) {
	setTokenEnv(t)

	tokens, err := GenerateTokens("user-1", false)
	require.NoError(t, err)

	// An access token must not validate against the refresh key.
	_, err = CheckAndExtractTokenMetadata(tokens.Access, "JWT_REFRESH_KEY")
	assert.Error(t, err)
}

func TestExtractRejectsGarbage(t *testing.T) {
	setTokenEnv(t)

	_, err := CheckAndExtractTokenMetadata("not-a-token", "JWT_ACCESS_KEY")
	assert.Error(t, err)
}
