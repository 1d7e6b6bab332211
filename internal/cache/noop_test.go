package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNoOpCache verifies that NoOpCache implements the Cache interface correctly
func TestNoOpCache(t *testing.T) {
	var c Cache = NewNoOpCache()
	ctx := context.Background()

	result, err := c.GetSuggestion(ctx, "test-key")
	require.NoError(t, err)
	assert.Nil(t, result)

	require.NoError(t, c.SetSuggestion(ctx, "test-key", &SuggestionResult{ID: "1", Suggestion: "Use a shorter title."}, time.Hour))

	// Nothing was actually cached.
	result, err = c.GetSuggestion(ctx, "test-key")
	require.NoError(t, err)
	assert.Nil(t, result)

	assert.NoError(t, c.Invalidate(ctx, "1"))
	assert.NoError(t, c.Close())
}

func TestGenerateCacheKey(t *testing.T) {
	base := GenerateCacheKey("improve", "Title", []string{Digest("aGk=")})

	assert.Len(t, base, 64)
	assert.Equal(t, base, GenerateCacheKey("improve", "Title", []string{Digest("aGk=")}))
	assert.NotEqual(t, base, GenerateCacheKey("citations", "Title", []string{Digest("aGk=")}))
	assert.NotEqual(t, base, GenerateCacheKey("improve", "Title ", []string{Digest("aGk=")}))
	assert.NotEqual(t, base, GenerateCacheKey("improve", "Title", nil))
	assert.NotEqual(t,
		GenerateCacheKey("improve", "", []string{"a", "b"}),
		GenerateCacheKey("improve", "", []string{"b", "a"}),
		"image order matters")
	assert.NotEqual(t,
		GenerateCacheKey("improve", "ab", nil),
		GenerateCacheKey("improve", "a", []string{"b"}))
}
