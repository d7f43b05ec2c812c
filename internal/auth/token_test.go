// ABOUTME: Tests for token issuance and verification.
// ABOUTME: Covers round-trips, expiry, tampering, and wrong-secret rejection.

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, ttl time.Duration) *Issuer {
	t.Helper()
	issuer, err := NewIssuer([]byte("test-secret"), ttl)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	return issuer
}

func TestNewIssuerEmptySecret(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour)
	require.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	token, err := issuer.Issue("f1-user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "f1-user", userID)
}

func TestVerifyExpired(t *testing.T) {
	// Negative ttl produces a token that is already expired.
	issuer := newTestIssuer(t, -time.Minute)

	token, err := issuer.Issue("f1-user")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.True(t, errors.Is(err, ErrExpiredToken), "expected ErrExpiredToken, got %v", err)
}

func TestVerifyTampered(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	token, err := issuer.Issue("f1-user")
	require.NoError(t, err)

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = issuer.Verify(tampered)
	assert.True(t, errors.Is(err, ErrInvalidToken), "expected ErrInvalidToken, got %v", err)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	other, err := NewIssuer([]byte("different-secret"), time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("f1-user")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyGarbage(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	for _, garbage := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Verify(garbage)
		assert.Error(t, err, "garbage %q should not verify", garbage)
	}
}

func TestIssueEmptyUserID(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	_, err := issuer.Issue("")
	require.Error(t, err)
}
