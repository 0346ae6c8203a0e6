// Package config loads runtime configuration for the live leaderboard
// service: defaults, then an optional config file, then ELO_-prefixed
// environment variables, via spf13/viper exactly as the Go v3 server
// this package started from, plus an optional .env file loaded before
// viper ever runs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the live leaderboard service.
type Config struct {
	ChannelName  string          `mapstructure:"channel_name"`
	Leaderboards []string        `mapstructure:"leaderboards"`
	Server       ServerConfig    `mapstructure:"server"`
	WebSocket    WebSocketConfig `mapstructure:"websocket"`
	Elo          EloConfig       `mapstructure:"elo"`
	Guard        GuardConfig     `mapstructure:"guard"`
	Metrics      MetricsConfig   `mapstructure:"metrics"`
	Logging      LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds the server.* network settings. The metrics/health
// listener does not read them: it listens on MetricsConfig.ListenAddr
// with fixed timeouts.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// WebSocketConfig controls hub behaviour and connection limits.
type WebSocketConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Path               string `mapstructure:"path"`
	ShardCount         int    `mapstructure:"shard_count"`
	BroadcastQueueSize int    `mapstructure:"broadcast_queue_size"`
}

// EloConfig exposes the rating algorithm's tunables.
type EloConfig struct {
	K              float32 `mapstructure:"k"`
	OpponentBudget float32 `mapstructure:"opponent_budget"`
	StartingElo    float32 `mapstructure:"starting_elo"`
}

// GuardConfig controls the resource guard's broadcast rate limiting.
type GuardConfig struct {
	Enabled             bool    `mapstructure:"enabled"`
	BroadcastsPerSecond float64 `mapstructure:"broadcasts_per_second"`
	Burst               int     `mapstructure:"burst"`
}

// MetricsConfig controls the Prometheus/diagnostics endpoint.
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ListenAddr  string `mapstructure:"listen_addr"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// LoggingConfig controls zap logger level/encoding.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from defaults, an optional config file, and
// ELO_-prefixed environment variables, in that order of increasing
// precedence. An optional .env file is loaded into the process
// environment first without overriding variables that are already set,
// so its values rank with environment variables: above the config file,
// below variables set in the real environment. Nested keys map to
// variables with dots replaced by underscores (elo.k -> ELO_ELO_K).
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("channel_name", "")
	v.SetDefault("leaderboards", []string{"message_count"})

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("websocket.host", "0.0.0.0")
	v.SetDefault("websocket.port", 8080)
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.shard_count", 64)
	v.SetDefault("websocket.broadcast_queue_size", 10)

	v.SetDefault("elo.k", 2.0)
	v.SetDefault("elo.opponent_budget", 100.0)
	v.SetDefault("elo.starting_elo", 1200.0)

	v.SetDefault("guard.enabled", true)
	v.SetDefault("guard.broadcasts_per_second", 1.0)
	v.SetDefault("guard.burst", 1)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_addr", ":9095")
	v.SetDefault("metrics.endpoint", "/metrics")
	v.SetDefault("metrics.service_name", "live-elo")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetConfigName("live-elo")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("ELO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Attempt to read config file (optional)
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}

	if cfg.ChannelName == "" {
		return Config{}, fmt.Errorf("config: channel_name is required")
	}
	if len(cfg.Leaderboards) == 0 {
		cfg.Leaderboards = []string{"message_count"}
	}
	if cfg.WebSocket.ShardCount <= 0 {
		cfg.WebSocket.ShardCount = 64
	}
	if cfg.WebSocket.BroadcastQueueSize <= 0 {
		cfg.WebSocket.BroadcastQueueSize = 10
	}

	return cfg, nil
}
