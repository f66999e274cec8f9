package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazify-app/service-membership/internal/domain"
)

func newProtector(t *testing.T) *Protector {
	t.Helper()
	p, err := New("test-secret", "subscriber-id")
	require.NoError(t, err)
	return p
}

func TestProtectRoundTrip(t *testing.T) {
	p := newProtector(t)

	for _, id := range []uint64{0, 1, 42, 1<<32 + 7, ^uint64(0)} {
		tok := p.Protect(id)
		got, err := p.Unprotect(tok)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestProtectIsDeterministic(t *testing.T) {
	p := newProtector(t)

	assert.Equal(t, p.Protect(99), p.Protect(99))
	assert.NotEqual(t, p.Protect(99), p.Protect(100))
}

func TestProtectIsURLSafe(t *testing.T) {
	p := newProtector(t)

	tok := p.Protect(123456)
	assert.False(t, strings.ContainsAny(tok, "+/= "), "token %q must be URL-safe", tok)
}

func TestUnprotectRejectsGarbage(t *testing.T) {
	p := newProtector(t)

	for _, tok := range []string{"", "not-a-token", "!!!", "AAAA"} {
		_, err := p.Unprotect(tok)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, "token %q", tok)
	}
}

func TestUnprotectRejectsTampering(t *testing.T) {
	p := newProtector(t)

	tok := p.Protect(7)
	// Flip a character in the ciphertext portion.
	flipped := []byte(tok)
	last := len(flipped) - 1
	if flipped[last] == 'A' {
		flipped[last] = 'B'
	} else {
		flipped[last] = 'A'
	}

	_, err := p.Unprotect(string(flipped))
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokensAreBoundToSecretAndPurpose(t *testing.T) {
	p := newProtector(t)
	tok := p.Protect(7)

	otherSecret, err := New("other-secret", "subscriber-id")
	require.NoError(t, err)
	_, err = otherSecret.Unprotect(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	otherPurpose, err := New("test-secret", "reading-id")
	require.NoError(t, err)
	_, err = otherPurpose.Unprotect(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewRejectsEmptyInputs(t *testing.T) {
	_, err := New("", "subscriber-id")
	assert.Error(t, err)

	_, err = New("test-secret", "")
	assert.Error(t, err)
}
