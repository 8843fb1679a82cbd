package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registrar/pkg/domain-errors"
)

const checksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

// TestParseIdentity_Invariants validates the parsing invariant:
// "identities are 0x-prefixed 20-byte hex addresses in canonical lower case"
func TestParseIdentity_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseIdentity(strings.Repeat("a", 42))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseIdentity("0x1234")
		require.Error(t, err)
	})

	t.Run("rejects non-hex digits", func(t *testing.T) {
		_, err := ParseIdentity("0x" + strings.Repeat("g", 40))
		require.Error(t, err)
	})

	t.Run("accepts valid checksum and canonicalizes", func(t *testing.T) {
		id, err := ParseIdentity(checksummed)
		require.NoError(t, err)
		assert.Equal(t, Identity(strings.ToLower(checksummed)), id)
		assert.Equal(t, checksummed, id.Checksum())
	})

	t.Run("rejects broken checksum", func(t *testing.T) {
		broken := "0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
		_, err := ParseIdentity(broken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum")
	})

	t.Run("accepts single-case input without checksum", func(t *testing.T) {
		upper := "0x" + strings.ToUpper(checksummed[2:])
		id, err := ParseIdentity(upper)
		require.NoError(t, err)
		assert.Equal(t, Identity(strings.ToLower(checksummed)), id)

		trimmed, err := ParseIdentity("  " + strings.ToLower(checksummed) + "\n")
		require.NoError(t, err)
		assert.Equal(t, id, trimmed)
	})
}

func TestZeroIdentity(t *testing.T) {
	id, err := ParseIdentity("0x" + strings.Repeat("0", 40))
	require.NoError(t, err)
	assert.True(t, id.IsZero())
	assert.False(t, id.IsNil())
	assert.True(t, Identity("").IsNil())
}
