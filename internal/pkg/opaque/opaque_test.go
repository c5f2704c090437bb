package opaque

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	t.Run("default length is 64 hex characters", func(t *testing.T) {
		token := NewToken(DefaultByteLength)
		require.Len(t, token, 64)

		decoded, err := hex.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, decoded, DefaultByteLength)
	})

	t.Run("non-positive length falls back to default", func(t *testing.T) {
		require.Len(t, NewToken(0), 64)
		require.Len(t, NewToken(-5), 64)
	})

	t.Run("custom length", func(t *testing.T) {
		require.Len(t, NewToken(16), 32)
	})

	t.Run("tokens are distinct", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			token := NewToken(DefaultByteLength)
			require.False(t, seen[token], "duplicate token generated")
			seen[token] = true
		}
	})
}
