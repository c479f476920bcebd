package cli

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "long…", truncate("longer", 5))
}

func TestTruncateMultiByte(t *testing.T) {
	// Cutting mid-rune would produce invalid UTF-8 in the table output.
	s := "sélect * from commandes où total > 100"
	for max := 2; max < len(s); max++ {
		out := truncate(s, max)
		assert.True(t, utf8.ValidString(out), "truncate(%q, %d) = %q", s, max, out)
		assert.LessOrEqual(t, len([]rune(out)), max)
	}
}
