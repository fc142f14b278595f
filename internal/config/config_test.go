package config

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "games.db", cfg.SQLitePath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/games")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/games", cfg.DatabaseURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConfigureLogger(t *testing.T) {
	logger := log.New()
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	require.NoError(t, cfg.ConfigureLogger(logger))
	assert.Equal(t, log.WarnLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	require.Error(t, Config{LogLevel: "noisy", LogFormat: "text"}.ConfigureLogger(logger))
	require.Error(t, Config{LogLevel: "info", LogFormat: "xml"}.ConfigureLogger(logger))
}
