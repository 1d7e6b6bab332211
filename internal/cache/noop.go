package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable - all operations succeed
// but no actual caching occurs (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetSuggestion always returns nil (cache miss)
func (c *NoOpCache) GetSuggestion(ctx context.Context, key string) (*SuggestionResult, error) {
	return nil, nil
}

// SetSuggestion does nothing and always succeeds
func (c *NoOpCache) SetSuggestion(ctx context.Context, key string, result *SuggestionResult, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Invalidate(ctx context.Context, id string) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
