package cryptox_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wattlesec/authd/pkg/cryptox"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.Len(t, token, 43) // 32 bytes base64url, no padding

	other, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, token, other)

	_, err = cryptox.GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := cryptox.FingerprintToken("opaque-value")

	require.Equal(t, fp, cryptox.FingerprintToken("opaque-value"))
	require.NotEqual(t, fp, cryptox.FingerprintToken("other-value"))
	require.Len(t, fp, 43) // SHA-256 base64url
}
