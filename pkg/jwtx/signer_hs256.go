package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinHS256SecretLen is the minimum accepted secret length in bytes. HMAC-SHA256
// keys shorter than the hash output weaken the construction.
const MinHS256SecretLen = 32

// HS256Signer implements the Signer interface using HMAC-SHA256 with a
// server-held shared secret.
type HS256Signer struct {
	secret []byte
	alg    string
}

func newHS256Signer(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinHS256SecretLen {
		return nil, errors.New("jwtx: HS256 secret must be at least 32 bytes")
	}

	return &HS256Signer{
		secret: secret,
		alg:    jwt.SigningMethodHS256.Alg(),
	}, nil
}

func (s *HS256Signer) Alg() string { return s.alg }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Validate does a quick sanity check to make sure we actually have a secret.
func (s *HS256Signer) Validate() error {
	if len(s.secret) < MinHS256SecretLen {
		return errors.New("jwtx: HS256 secret too short")
	}
	return nil
}
