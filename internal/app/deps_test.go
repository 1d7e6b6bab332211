package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slide-suggest/internal/cache"
	"slide-suggest/internal/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuildProvidersRejectInvalidConfig(t *testing.T) {
	_, err := buildStore(config.Config{StoreProvider: "sqlite"}, discard)
	assert.ErrorContains(t, err, "invalid STORE_PROVIDER")

	_, err = buildStore(config.Config{StoreProvider: "postgres"}, discard)
	assert.ErrorContains(t, err, "DB_URL is required")

	_, err = buildQueue(config.Config{QueueProvider: "kafka"}, discard)
	assert.ErrorContains(t, err, "invalid QUEUE_PROVIDER")

	_, err = buildQueue(config.Config{QueueProvider: "nats"}, discard)
	assert.ErrorContains(t, err, "QUEUE_URL is required")

	_, err = buildLLM(config.Config{LLMProvider: "openai"}, discard)
	assert.ErrorContains(t, err, "OPENAI_API_KEY is required")

	_, err = buildLLM(config.Config{LLMProvider: "local"}, discard)
	assert.ErrorContains(t, err, "invalid LLM_PROVIDER")
}

func TestBuildLLM(t *testing.T) {
	c, err := buildLLM(config.Config{LLMProvider: "openai", OpenAIKey: "sk-test", LLMModel: "gpt-4o-mini"}, discard)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.Model())
}

func TestBuildCacheFallsBack(t *testing.T) {
	assert.IsType(t, &cache.NoOpCache{}, buildCache(config.Config{CacheProvider: "none"}, discard))
	// Nothing listens on port 1.
	assert.IsType(t, &cache.NoOpCache{}, buildCache(config.Config{CacheProvider: "redis", RedisAddr: "127.0.0.1:1"}, discard))
}

func TestLoadEnvOptional(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, LoadEnv(), "missing .env is fine")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SLIDE_SUGGEST_TEST_KEY=from-dotenv\n"), 0o600))
	t.Setenv("SLIDE_SUGGEST_TEST_KEY", "")
	os.Unsetenv("SLIDE_SUGGEST_TEST_KEY")
	require.NoError(t, LoadEnv())
	assert.Equal(t, "from-dotenv", os.Getenv("SLIDE_SUGGEST_TEST_KEY"))
}
