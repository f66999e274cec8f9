// Package token reversibly encodes internal numeric identifiers into opaque
// URL-safe strings. Internal ids are small sequential integers; exposing them
// raw would let anyone enumerate subscriber records, so every externally
// visible reference goes through Protect and every inbound reference through
// Unprotect.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"

	"github.com/gazify-app/service-membership/internal/domain"
)

// Protector produces and verifies opaque identifier tokens. The key and
// purpose are process-wide configuration fixed at startup; tokens minted under
// one purpose never verify under another.
type Protector struct {
	aead     cipher.AEAD
	nonceKey []byte
	purpose  []byte
}

// New derives a Protector from a secret and a purpose string. The secret may
// be any length; it is stretched to a 256-bit AES key.
func New(secret, purpose string) (*Protector, error) {
	if secret == "" {
		return nil, errors.New("token: secret must not be empty")
	}
	if purpose == "" {
		return nil, errors.New("token: purpose must not be empty")
	}

	key := sha256.Sum256([]byte("enc:" + purpose + ":" + secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceKey := sha256.Sum256([]byte("nonce:" + purpose + ":" + secret))
	return &Protector{
		aead:     aead,
		nonceKey: nonceKey[:],
		purpose:  []byte(purpose),
	}, nil
}

// Protect encodes id into an opaque token. The nonce is a keyed digest of the
// plaintext, so the same id always yields the same token under a given
// key/purpose while remaining unpredictable to anyone without the key.
func (p *Protector) Protect(id uint64) string {
	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], id)

	mac := hmac.New(sha256.New, p.nonceKey)
	mac.Write(plain[:])
	nonce := mac.Sum(nil)[:p.aead.NonceSize()]

	sealed := p.aead.Seal(nonce, nonce, plain[:], p.purpose)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Unprotect decodes a token back to the internal id. Any malformed, tampered
// or foreign-purpose token fails with InvalidTokenError.
func (p *Protector) Unprotect(tok string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return 0, &domain.InvalidTokenError{Cause: err}
	}

	ns := p.aead.NonceSize()
	if len(raw) <= ns {
		return 0, &domain.InvalidTokenError{Cause: errors.New("token too short")}
	}

	plain, err := p.aead.Open(nil, raw[:ns], raw[ns:], p.purpose)
	if err != nil {
		return 0, &domain.InvalidTokenError{Cause: err}
	}
	if len(plain) != 8 {
		return 0, &domain.InvalidTokenError{Cause: errors.New("unexpected payload length")}
	}

	return binary.BigEndian.Uint64(plain), nil
}
