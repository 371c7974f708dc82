package remover

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_ZeroValue(t *testing.T) {
	var r Record
	assert.False(t, r.Contains("/a"))
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Paths())
}

func TestRecord_WithIsImmutable(t *testing.T) {
	var r Record
	r1 := r.With("/a")
	r2 := r1.With("/b")

	assert.False(t, r.Contains("/a"))
	assert.True(t, r1.Contains("/a"))
	assert.False(t, r1.Contains("/b"))
	assert.True(t, r2.Contains("/a"))
	assert.True(t, r2.Contains("/b"))
	assert.Equal(t, []string{"/a", "/b"}, r2.Paths())
}

func TestRecord_WithDirCoversDescendants(t *testing.T) {
	r := Record{}.WithDir("/d", []string{"/d/f"})

	assert.True(t, r.Contains("/d"))
	assert.True(t, r.Contains("/d/f"))
	assert.True(t, r.Contains("/d/unlisted/deep"))
	assert.True(t, r.Contains("/d/./f"))
	assert.False(t, r.Contains("/dd/f"))
	assert.False(t, r.Contains("/"))
	assert.Equal(t, 2, r.Len())

	r2 := r.WithDir("/e", nil)
	assert.False(t, r.Contains("/e/x"))
	assert.True(t, r2.Contains("/e/x"))
}

func TestRecord_KeptProtectsAncestors(t *testing.T) {
	r := Record{}.WithKept("/c/x", "/b")

	assert.True(t, r.Protects("/c/x"))
	assert.True(t, r.Protects("/c"))
	assert.True(t, r.Protects("/"))
	assert.True(t, r.Protects("/b"))
	assert.False(t, r.Protects("/c/x/inner"))
	assert.False(t, r.Protects("/c/xy"))
	assert.False(t, r.Protects("/a"))
	assert.False(t, r.Contains("/c/x"), "kept paths are not removed paths")

	var zero Record
	assert.False(t, zero.Protects("/c"))
	assert.False(t, r.With("/a").Protects("/a"))
	assert.True(t, r.With("/a").Protects("/c"))
}
