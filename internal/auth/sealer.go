package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealKeySize   = 32
	sealNonceSize = 24
	sealInfo      = "matchdash session token v1"
)

var ErrSealedTokenInvalid = errors.New("sealed_token_invalid")

// TokenSealer encrypts backend bearer tokens before they are written to a
// session store.
type TokenSealer struct {
	key [sealKeySize]byte
}

// NewTokenSealer derives the sealing key from secret. With an empty secret a
// random key is used, so sealed tokens do not survive a restart.
func NewTokenSealer(secret []byte) (*TokenSealer, error) {
	s := &TokenSealer{}
	if len(secret) == 0 {
		if _, err := io.ReadFull(rand.Reader, s.key[:]); err != nil {
			return nil, fmt.Errorf("generate sealing key: %w", err)
		}
		return s, nil
	}

	r := hkdf.New(sha256.New, secret, nil, []byte(sealInfo))
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	return s, nil
}

func (s *TokenSealer) Seal(token string) ([]byte, error) {
	var nonce [sealNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key), nil
}

func (s *TokenSealer) Open(sealed []byte) (string, error) {
	if len(sealed) < sealNonceSize+secretbox.Overhead {
		return "", ErrSealedTokenInvalid
	}
	var nonce [sealNonceSize]byte
	copy(nonce[:], sealed[:sealNonceSize])
	out, ok := secretbox.Open(nil, sealed[sealNonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrSealedTokenInvalid
	}
	return string(out), nil
}
