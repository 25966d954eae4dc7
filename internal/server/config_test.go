package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averix/wsgate/internal/server"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := server.NewConfig()

	assert.Equal(t, 1091, cfg.Port)
	assert.False(t, cfg.ReusePort)
	assert.Equal(t, 1024, cfg.ReadBufferSize)
	assert.Equal(t, 1024, cfg.WriteBufferSize)
	assert.Equal(t, 256, cfg.SendQueueSize)
	assert.Equal(t, int64(0), cfg.MaxMessageSize)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_REUSE_PORT", "true")
	t.Setenv("WS_SEND_QUEUE_SIZE", "16")
	t.Setenv("MAX_MESSAGE_SIZE", "4096")

	cfg, err := server.NewConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.ReusePort)
	assert.Equal(t, 16, cfg.SendQueueSize)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	// Unset variables keep their defaults.
	assert.Equal(t, 1024, cfg.ReadBufferSize)
}

func TestNewConfigFromEnvSanitizesInvalidValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "-5")
	t.Setenv("WS_READ_BUFFER_SIZE", "0")
	t.Setenv("WS_SEND_QUEUE_SIZE", "-1")
	t.Setenv("MAX_MESSAGE_SIZE", "-100")

	cfg, err := server.NewConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 1091, cfg.Port)
	assert.Equal(t, 1024, cfg.ReadBufferSize)
	assert.Equal(t, 256, cfg.SendQueueSize)
	assert.Equal(t, int64(0), cfg.MaxMessageSize)
}

func TestNewConfigFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	_, err := server.NewConfigFromEnv()
	require.Error(t, err)
}

func TestConfigAddr(t *testing.T) {
	cfg := server.NewConfig()
	assert.Equal(t, ":1091", cfg.Addr())

	cfg.Port = 8080
	assert.Equal(t, ":8080", cfg.Addr())
}
