package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixTale)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixTale, PrefixUser, "tok"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			// NanoID default is 21 characters
			assert.Len(t, id, len(prefix)+1+21, "ID: %s", id)

			for _, c := range strings.TrimPrefix(id, prefix+"-") {
				isValid := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
					(c >= '0' && c <= '9') || c == '_' || c == '-'
				assert.True(t, isValid, "invalid character %q in %s", c, id)
			}
		})
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, HasPrefix(MustGenerate(PrefixUser), PrefixUser))
	})
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("tale-abc", PrefixTale))
	assert.False(t, HasPrefix("tale-", PrefixTale))
	assert.False(t, HasPrefix("user-abc", PrefixTale))
	assert.False(t, HasPrefix("taleabc", PrefixTale))
}
