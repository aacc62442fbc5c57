package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyrelay/pkg/config"
)

type retryConfig struct {
	MaxRetries int           `env:"TEST_MAX_RETRIES" envDefault:"3"`
	BaseDelay  time.Duration `env:"TEST_BASE_DELAY" envDefault:"1s"`
}

type brokerConfig struct {
	URL string `env:"TEST_BROKER_URL,required"`
}

type queueNames struct {
	Email string `env:"TEST_QUEUE_EMAIL" envDefault:"email_notifications"`
}

type fileConfig struct {
	Value string `env:"TEST_FROM_FILE"`
}

func TestLoad_Defaults(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	var cfg retryConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.BaseDelay)
}

func TestLoad_FromEnvironment(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("TEST_MAX_RETRIES", "5")
	t.Setenv("TEST_BASE_DELAY", "250ms")

	var cfg retryConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.BaseDelay)
}

func TestLoad_MissingRequired(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	os.Unsetenv("TEST_BROKER_URL")

	var cfg brokerConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoad_CachesPerType(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("TEST_QUEUE_EMAIL", "first")

	var first queueNames
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_QUEUE_EMAIL", "second")

	var second queueNames
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Email)

	config.Reset()

	var third queueNames
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Email)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *retryConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_FROM_FILE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TEST_FROM_FILE") })

	require.NoError(t, config.LoadEnv(path))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-file", cfg.Value)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(t.TempDir(), "missing.env")), config.ErrLoadingEnvFile)
}
