package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Key prefix for cached suggestions
	cacheKeyPrefix = "suggestion:"

	// Key prefix for the id -> cache key index
	idKeyPrefix = "suggestion-id:"
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

func (c *RedisCache) GetSuggestion(ctx context.Context, key string) (*SuggestionResult, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var result SuggestionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *RedisCache) SetSuggestion(ctx context.Context, key string, result *SuggestionResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, cacheKeyPrefix+key, data, ttl)
	if result.ID != "" {
		pipe.Set(ctx, idKeyPrefix+result.ID, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate drops the suggestion indexed under id so the next identical
// request asks the model again.
func (c *RedisCache) Invalidate(ctx context.Context, id string) error {
	key, err := c.client.Get(ctx, idKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.client.Del(ctx, cacheKeyPrefix+key, idKeyPrefix+id).Err()
}

// Close closes the cache connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
