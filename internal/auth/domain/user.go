package domain

import "time"

// User is a registered identity. Username and email are each globally unique;
// the record is created on registration and never mutated by the token core.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
