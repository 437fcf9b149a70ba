package jwtx

// Signer is our interface for anything that can sign access-token claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// NewSignerHS256 creates an HS256 signer from raw secret bytes. The secret
// is whatever key material the deployment supplies; MinHS256SecretLen is
// enforced so a typo'd one-char secret can't make it to production.
func NewSignerHS256(secret []byte) (Signer, error) {
	return newHS256Signer(secret)
}
