package store

import (
	"context"
	"errors"
	"time"

	"github.com/wattlesec/authd/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and lets the auth engine be exercised against fakes without a
// database.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error, the transaction is rolled back; otherwise it is committed.
	// This is the recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// ExistsByUsernameOrEmail reports whether any user already claims the
	// username or the email. Registration runs this and CreateUser in one
	// transaction.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists on a username/email uniqueness violation.
	CreateUser(ctx context.Context, u domain.User) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record by its fingerprint. Expiry is
	// NOT filtered here; callers decide how stale records are reported.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RotateRefreshToken atomically replaces the token fingerprint and expiry
	// of the record matching oldHash, but only while the record is still
	// unexpired at now. Returns ErrNotFound when no live record matched --
	// which is exactly what a raced or replayed rotation observes. This is a
	// single conditional UPDATE, never a read followed by a write.
	RotateRefreshToken(ctx context.Context, oldHash, newHash string, expiresAt, now time.Time) error

	// DeleteRefreshToken removes the record by fingerprint. Idempotent:
	// deleting an absent record is not an error.
	DeleteRefreshToken(ctx context.Context, hash string) error

	// DeleteExpiredRefreshTokens is housekeeping; correctness never depends
	// on it because expiry is checked at read time.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}
