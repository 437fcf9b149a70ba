package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wattlesec/authd/internal/auth/store"
	"github.com/wattlesec/authd/internal/auth/store/drivers/sqlite"
	"github.com/wattlesec/authd/pkg/jwtx"
)

var testSigningSecret = []byte("0123456789abcdef0123456789abcdef")

const testIssuer = "authd-test"

func newTestService(t *testing.T) *AuthService {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_pragma=foreign_keys(ON)",
		filepath.Join(t.TempDir(), "auth.db"))

	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSignerHS256(testSigningSecret)
	require.NoError(t, err)

	return &AuthService{
		Store:     st,
		Ledger:    &RefreshLedger{Store: st, TTL: time.Hour},
		Signer:    signer,
		Issuer:    testIssuer,
		AccessTTL: 15 * time.Minute,
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	t.Run("creates a retrievable user", func(t *testing.T) {
		user, err := svc.Register(ctx, "alice", "alice@example.com", "hunter2hunter2")
		require.NoError(t, err)
		require.NotEmpty(t, user.ID)

		got, err := svc.Store.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.NotEqual(t, "hunter2hunter2", got.PasswordHash)
	})

	t.Run("duplicate username is rejected without side effects", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice", "alice2@example.com", "password")
		require.ErrorIs(t, err, ErrAlreadyRegistered)

		taken, err := svc.Store.Users().ExistsByUsernameOrEmail(ctx, "none", "alice2@example.com")
		require.NoError(t, err)
		require.False(t, taken)
	})

	t.Run("duplicate email is rejected identically", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice2", "alice@example.com", "password")
		require.ErrorIs(t, err, ErrAlreadyRegistered)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "bob@example.com", "correct horse battery")
	require.NoError(t, err)

	t.Run("issues a verifiable token pair", func(t *testing.T) {
		pair, err := svc.Login(ctx, "bob", "correct horse battery")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

		verifier := jwtx.NewCommonHS256(testSigningSecret, testIssuer)
		claims, err := verifier.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "bob", claims.Username)
	})

	t.Run("unknown user and wrong password fail identically", func(t *testing.T) {
		_, errUnknown := svc.Login(ctx, "no-such-user", "whatever")
		_, errWrongPw := svc.Login(ctx, "bob", "incorrect horse")

		require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		require.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
		require.Equal(t, errUnknown.Error(), errWrongPw.Error())
	})

	t.Run("each login issues distinct refresh tokens", func(t *testing.T) {
		a, err := svc.Login(ctx, "bob", "correct horse battery")
		require.NoError(t, err)
		b, err := svc.Login(ctx, "bob", "correct horse battery")
		require.NoError(t, err)
		require.NotEqual(t, a.RefreshToken, b.RefreshToken)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol", "carol@example.com", "secret passphrase")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "carol", "secret passphrase")
	require.NoError(t, err)

	t.Run("rotation invalidates the presented token", func(t *testing.T) {
		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		// The spent value is dead.
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)

		// The new value works.
		_, err = svc.Refresh(ctx, next.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave", "dave@example.com", "passphrase here")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "dave", "passphrase here")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	// Revoked token cannot refresh.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Logout is idempotent, for revoked and never-issued values alike.
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, svc.Logout(ctx, "never-issued"))
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "erin", "erin@example.com", "a long passphrase")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "erin", "a long passphrase")
	require.NoError(t, err)

	// Walk a chain of rotations; only the newest value ever works.
	current := pair.RefreshToken
	for range 3 {
		next, err := svc.Refresh(ctx, current)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, current)
		require.ErrorIs(t, err, ErrInvalidRefresh)

		current = next.RefreshToken
	}

	require.NoError(t, svc.Logout(ctx, current))
	_, err = svc.Refresh(ctx, current)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "frank", "frank@example.com", "race condition bait")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "frank", "race condition bait")
	require.NoError(t, err)

	const workers = 8

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Refresh(ctx, pair.RefreshToken)
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, ErrInvalidRefresh)
	}
	require.Equal(t, 1, winners, "exactly one concurrent rotation must win")
}

func TestLedgerExpiry(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "grace", "grace@example.com", "expiring soon")
	require.NoError(t, err)

	// A ledger with a negative TTL issues already-expired tokens.
	expired := &RefreshLedger{Store: svc.Store, TTL: -time.Minute}
	token, _, err := expired.Issue(ctx, user.ID)
	require.NoError(t, err)

	t.Run("expired token cannot be rotated", func(t *testing.T) {
		_, _, _, err := svc.Ledger.Rotate(ctx, token)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired token reports not found on lookup", func(t *testing.T) {
		_, _, err := svc.Ledger.Lookup(ctx, token)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("live token reports its owner", func(t *testing.T) {
		live, expiry, err := svc.Ledger.Issue(ctx, user.ID)
		require.NoError(t, err)

		ownerID, gotExpiry, err := svc.Ledger.Lookup(ctx, live)
		require.NoError(t, err)
		require.Equal(t, user.ID, ownerID)
		require.WithinDuration(t, expiry, gotExpiry, time.Second)
	})
}
