package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleLike(t *testing.T) {
	t.Parallel()

	t.Run("toggle once likes", func(t *testing.T) {
		t.Parallel()
		likedBy, count := ToggleLike(nil, 0, "u1")
		assert.Equal(t, []string{"u1"}, likedBy)
		assert.Equal(t, 1, count)
	})

	t.Run("toggle twice returns to original", func(t *testing.T) {
		t.Parallel()
		likedBy, count := ToggleLike([]string{}, 0, "u1")
		likedBy, count = ToggleLike(likedBy, count, "u1")
		assert.Empty(t, likedBy)
		assert.Equal(t, 0, count)
	})

	t.Run("unlike clamps at zero", func(t *testing.T) {
		t.Parallel()
		likedBy, count := ToggleLike([]string{"u1"}, 0, "u1")
		assert.Empty(t, likedBy)
		assert.Equal(t, 0, count)
	})

	t.Run("other likers are kept in order", func(t *testing.T) {
		t.Parallel()
		likedBy, count := ToggleLike([]string{"a", "u1", "b"}, 3, "u1")
		assert.Equal(t, []string{"a", "b"}, likedBy)
		assert.Equal(t, 2, count)
	})

	t.Run("input is not modified", func(t *testing.T) {
		t.Parallel()
		in := []string{"a", "b"}
		out, _ := ToggleLike(in, 2, "c")
		out[0] = "changed"
		assert.Equal(t, []string{"a", "b"}, in)
	})
}

func TestHasLiked(t *testing.T) {
	t.Parallel()
	assert.True(t, HasLiked([]string{"x", "y"}, "y"))
	assert.False(t, HasLiked(nil, "y"))
}
