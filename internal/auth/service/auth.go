package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wattlesec/authd/internal/auth/domain"
	"github.com/wattlesec/authd/internal/auth/store"
	"github.com/wattlesec/authd/pkg/cryptox"
	"github.com/wattlesec/authd/pkg/idx"
	"github.com/wattlesec/authd/pkg/jwtx"
	"github.com/wattlesec/authd/pkg/slogx"
)

// Expected outcomes of the auth engine. These travel to the HTTP boundary as
// client-facing rejections; anything else is an infrastructure failure and
// maps to a generic server error, never to one of these.
var (
	ErrAlreadyRegistered  = errors.New("already_registered")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
)

// dummyHash keeps the unknown-user login path doing the same argon2 work as a
// real verification, so "no such user" and "wrong password" cannot be told
// apart by response timing.
var dummyHash = func() string {
	h, err := cryptox.HashPassword(cryptox.FingerprintToken("authd-login-padding"))
	if err != nil {
		panic(fmt.Sprintf("service: failed to precompute dummy hash: %v", err))
	}
	return h
}()

// AuthService orchestrates credential verification, token issuance, rotation
// and revocation. Storage and signing are injected capabilities so the engine
// tests against in-process fakes and swaps drivers without changes here.
type AuthService struct {
	Store     store.Store
	Ledger    *RefreshLedger
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration
}

// Register creates a new identity. Both conflict cases (username taken, email
// taken) collapse into ErrAlreadyRegistered; the existence check and the
// insert share one transaction so a duplicate can't slip between them. No
// side effects on failure.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		taken, err := tx.Users().ExistsByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return err
		}
		if taken {
			return ErrAlreadyRegistered
		}
		return tx.Users().CreateUser(ctx, user)
	})
	if err != nil {
		// The unique indexes are the backstop should two registrations race
		// past the existence check.
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrAlreadyRegistered
		}
		return domain.User{}, err
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown usernames
// and wrong passwords fail identically with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same hashing cost as the found-user path.
			_ = cryptox.VerifyPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login rejected", slog.String("user_id", user.ID))
			return nil, ErrInvalidCredentials
		}
		// A hash that fails to parse is stored-data corruption, not a bad
		// credential.
		return nil, err
	}

	accessToken, err := s.signAccess(user, now)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiry, err := s.Ledger.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	l.Info("login succeeded", slog.String("user_id", user.ID))

	return &domain.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(s.AccessTTL),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Refresh trades a live refresh token for a brand-new pair. The presented
// value is single-use: rotation invalidates it atomically before the new pair
// is returned, and an expired or unknown token fails with the same
// ErrInvalidRefresh either way.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	newToken, newExpiry, ownerID, err := s.Ledger.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Owner deleted out from under the session; the token is dead.
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	accessToken, err := s.signAccess(user, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(s.AccessTTL),
		RefreshToken:     newToken,
		RefreshExpiresAt: newExpiry,
	}, nil
}

// Logout revokes the presented refresh token. Idempotent: unknown, expired
// and already-revoked tokens all return nil. Outstanding access tokens stay
// valid until their natural expiry; that is the accepted trade-off of
// stateless access tokens.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.Ledger.Revoke(ctx, refreshToken)
}

func (s *AuthService) signAccess(u domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Username, s.AccessTTL, s.Issuer, now)
	return s.Signer.Sign(claims)
}
