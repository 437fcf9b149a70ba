package domain

import "time"

// TokenPair is what a successful login or refresh returns: the short-lived
// signed access token (JWT) and the opaque refresh token, with their expiries.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expiry"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expiry"`
}

// RefreshToken models the stored refresh token record. The opaque value never
// touches the database; only its SHA-256 fingerprint does. A record is valid
// iff now < ExpiresAt, regardless of whether housekeeping has swept it yet.
// Rotation replaces TokenHash and ExpiresAt in place rather than appending a
// second record, so a session owns exactly one row for its lifetime.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
