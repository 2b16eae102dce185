package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	manager := NewTokenManager("test-secret-key", time.Hour)

	token, err := manager.Generate("voice-agent", []string{"notifications:send"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "voice-agent", claims.Service)
	assert.Equal(t, []string{"notifications:send"}, claims.Scopes)
	assert.Equal(t, "easymo-notify", claims.Issuer)
	assert.Equal(t, "voice-agent", claims.Subject)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Generate("voice-agent", nil)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	manager := NewTokenManager("test-secret-key", -time.Minute)

	token, err := manager.Generate("voice-agent", nil)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	manager := NewTokenManager("test-secret-key", time.Hour)

	_, err := manager.Validate("not.a.token")
	assert.Error(t, err)
}

func TestTokenManager_TTL(t *testing.T) {
	manager := NewTokenManager("test-secret-key", 24*time.Hour)
	assert.Equal(t, 24*time.Hour, manager.TTL())
}
