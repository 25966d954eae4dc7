// Package server provides configuration helpers that define runtime defaults
// and validation for the wsgate listener.
package server

import (
	"fmt"

	"github.com/caarlos0/env/v7"
)

// Config holds the listener configuration. It is built once at startup and
// passed down explicitly; nothing in this package mutates it afterwards.
type Config struct {
	Port            int   `env:"SERVER_PORT"          envDefault:"1091"`
	ReusePort       bool  `env:"SERVER_REUSE_PORT"    envDefault:"false"`
	ReadBufferSize  int   `env:"WS_READ_BUFFER_SIZE"  envDefault:"1024"`
	WriteBufferSize int   `env:"WS_WRITE_BUFFER_SIZE" envDefault:"1024"`
	SendQueueSize   int   `env:"WS_SEND_QUEUE_SIZE"   envDefault:"256"`
	MaxMessageSize  int64 `env:"MAX_MESSAGE_SIZE"     envDefault:"0"`
}

func defaultConfig() Config {
	return Config{
		Port:            1091,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendQueueSize:   256,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = 1091
	}

	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = 1024
	}

	if cfg.WriteBufferSize <= 0 {
		cfg.WriteBufferSize = 1024
	}

	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = 256
	}

	// MaxMessageSize of zero means no read limit is applied.
	if cfg.MaxMessageSize < 0 {
		cfg.MaxMessageSize = 0
	}

	return cfg
}

// NewConfig creates a Config populated with default values for all settings.
func NewConfig() Config {
	return defaultConfig()
}

// NewConfigFromEnv creates a Config from environment variables, falling back
// to default values for anything unset or invalid.
func NewConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return sanitizeConfig(cfg), nil
}

// Addr returns the TCP listen address for the configured port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
