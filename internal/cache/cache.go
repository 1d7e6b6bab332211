package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores generated suggestions so identical slides are answered once.
type Cache interface {
	// GetSuggestion retrieves a cached suggestion by key.
	// Returns nil if not found.
	GetSuggestion(ctx context.Context, key string) (*SuggestionResult, error)

	// SetSuggestion stores a suggestion with TTL and indexes it by its ID.
	SetSuggestion(ctx context.Context, key string, result *SuggestionResult, ttl time.Duration) error

	// Invalidate removes the cached suggestion with the given ID, if any.
	Invalidate(ctx context.Context, id string) error

	// Close closes the cache connection
	Close() error
}

// SuggestionResult represents a cached suggestion response.
type SuggestionResult struct {
	ID         string `json:"id"`
	Suggestion string `json:"suggestion"`
	Model      string `json:"model"`
}

// GenerateCacheKey derives a stable key from the prompt mode, the slide text
// and the image digests, in order.
func GenerateCacheKey(mode, text string, imageDigests []string) string {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(text))
	for _, d := range imageDigests {
		h.Write([]byte{0})
		h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the hex SHA-256 of a base64 image payload.
func Digest(image string) string {
	sum := sha256.Sum256([]byte(image))
	return hex.EncodeToString(sum[:])
}
