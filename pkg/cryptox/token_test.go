package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken(TokenSize256)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	require.Len(t, raw, TokenSize256)
}

func TestGenerateTokenRejectsBadSize(t *testing.T) {
	t.Parallel()

	_, err := GenerateToken(0)
	require.Error(t, err)
	_, err = GenerateToken(-8)
	require.Error(t, err)
}

func TestGenerateTokenUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 64)
	for range 64 {
		token, err := GenerateToken(TokenSize128)
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestFingerprintTokenDeterministic(t *testing.T) {
	t.Parallel()

	token := MustGenerateToken(TokenSize256)
	require.Equal(t, FingerprintToken(token), FingerprintToken(token))
	require.NotEqual(t, FingerprintToken(token), FingerprintToken(token+"x"))
	require.Len(t, FingerprintToken(token), 43)
}
