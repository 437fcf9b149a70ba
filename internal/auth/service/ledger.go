package service

import (
	"context"
	"errors"
	"time"

	"github.com/wattlesec/authd/internal/auth/domain"
	"github.com/wattlesec/authd/internal/auth/store"
	"github.com/wattlesec/authd/pkg/cryptox"
	"github.com/wattlesec/authd/pkg/idx"
)

// RefreshLedger owns the durable record of issued refresh tokens. Tokens are
// opaque 256-bit random values handed to the client once; the ledger only
// ever stores their SHA-256 fingerprint.
type RefreshLedger struct {
	Store store.Store
	TTL   time.Duration
}

// Issue mints a fresh opaque token for ownerID and persists its record.
func (l *RefreshLedger) Issue(ctx context.Context, ownerID string) (string, time.Time, error) {
	now := time.Now().UTC()

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", time.Time{}, err
	}

	record := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    ownerID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(l.TTL),
	}

	if err := l.Store.RefreshTokens().CreateRefreshToken(ctx, record); err != nil {
		return "", time.Time{}, err
	}

	return token, record.ExpiresAt, nil
}

// Rotate swaps the record matching oldToken for a brand-new value and expiry,
// in place. The store performs the swap as one conditional update, so when two
// callers race on the same token exactly one gets the new value and the other
// gets store.ErrNotFound -- the same result as presenting an unknown token.
// Once Rotate returns nil the old value is dead for good, whether or not the
// new one reaches the client.
func (l *RefreshLedger) Rotate(ctx context.Context, oldToken string) (string, time.Time, string, error) {
	now := time.Now().UTC()

	newToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", time.Time{}, "", err
	}
	newHash := cryptox.FingerprintToken(newToken)
	expiry := now.Add(l.TTL)

	var ownerID string
	err = l.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RotateRefreshToken(
			ctx, cryptox.FingerprintToken(oldToken), newHash, expiry, now,
		); err != nil {
			return err
		}

		// Nobody else knows newHash yet, so this read can only see our row.
		record, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, newHash)
		if err != nil {
			return err
		}
		ownerID = record.UserID
		return nil
	})
	if err != nil {
		return "", time.Time{}, "", err
	}

	return newToken, expiry, ownerID, nil
}

// Revoke deletes the record for token. Idempotent: unknown and already-expired
// tokens are not errors.
func (l *RefreshLedger) Revoke(ctx context.Context, token string) error {
	return l.Store.RefreshTokens().DeleteRefreshToken(ctx, cryptox.FingerprintToken(token))
}

// Lookup reports the owner and expiry of a live token. Expired records are
// reported as store.ErrNotFound even while they still physically exist.
func (l *RefreshLedger) Lookup(ctx context.Context, token string) (string, time.Time, error) {
	record, err := l.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		return "", time.Time{}, err
	}

	if !time.Now().UTC().Before(record.ExpiresAt) {
		return "", time.Time{}, store.ErrNotFound
	}

	return record.UserID, record.ExpiresAt, nil
}

// IsNotFound reports whether err is the ledger's miss sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
