package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wattlesec/authd/pkg/jwtx"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	require.Equal(t, "HS256", signer.Alg())

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims("user-1", "alice", time.Minute, "authd-test", now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewCommonHS256(testSecret, "authd-test")
	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "authd-test", got.Issuer)
	require.NotEmpty(t, got.ID)
}

func TestSignerRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewSignerHS256([]byte("short"))
	require.Error(t, err)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", "alice", time.Minute, "authd-test", time.Now().UTC()))
	require.NoError(t, err)

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	verifier := jwtx.NewCommonHS256(testSecret, "authd-test")
	_, err = verifier.Verify(tampered)
	require.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", "alice", time.Minute, "authd-test", time.Now().UTC()))
	require.NoError(t, err)

	verifier := jwtx.NewCommonHS256([]byte("fedcba9876543210fedcba9876543210"), "authd-test")
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	issuedAt := time.Now().UTC().Add(-time.Hour)
	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", "alice", time.Minute, "authd-test", issuedAt))
	require.NoError(t, err)

	verifier := jwtx.NewCommonHS256(testSecret, "authd-test")
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", "alice", time.Minute, "someone-else", time.Now().UTC()))
	require.NoError(t, err)

	verifier := jwtx.NewCommonHS256(testSecret, "authd-test")
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	verifier := jwtx.NewCommonHS256(testSecret, "authd-test")

	for _, input := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := verifier.Verify(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestIssuancesDiffer(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	a, err := signer.Sign(jwtx.NewAccessClaims("user-1", "alice", time.Minute, "authd-test", time.Now().UTC()))
	require.NoError(t, err)
	b, err := signer.Sign(jwtx.NewAccessClaims("user-1", "alice", time.Minute, "authd-test", time.Now().UTC()))
	require.NoError(t, err)

	// jti differs even when iat lands on the same second.
	require.NotEqual(t, a, b)
}
