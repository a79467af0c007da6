package voiceauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenConfig_Validate(t *testing.T) {
	cfg := DefaultTokenConfig()
	assert.NoError(t, cfg.Validate())

	cfg = &TokenConfig{Secret: "", TTL: time.Minute}
	assert.Error(t, cfg.Validate())

	cfg = &TokenConfig{Secret: "secret", TTL: 0}
	assert.Error(t, cfg.Validate())
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(&TokenConfig{Secret: "test-secret", TTL: time.Minute})
	require.NoError(t, err)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	name, err := issuer.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestTokenIssuer_Verify_WrongSecret(t *testing.T) {
	issuer, err := NewTokenIssuer(&TokenConfig{Secret: "secret-a", TTL: time.Minute})
	require.NoError(t, err)

	other, err := NewTokenIssuer(&TokenConfig{Secret: "secret-b", TTL: time.Minute})
	require.NoError(t, err)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	issuer, err := NewTokenIssuer(&TokenConfig{Secret: "test-secret", TTL: time.Nanosecond})
	require.NoError(t, err)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIssuer_Verify_Garbage(t *testing.T) {
	issuer, err := NewTokenIssuer(nil)
	require.NoError(t, err)

	_, err = issuer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.Verify("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewTokenIssuer_DefaultConfig(t *testing.T) {
	issuer, err := NewTokenIssuer(nil)
	require.NoError(t, err)

	token, err := issuer.Issue("bob")
	require.NoError(t, err)

	name, err := issuer.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "bob", name)
}
