// Package config loads client configuration from yaml files and environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Config holds all configuration for the notification client.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	API       APIConfig       `mapstructure:"api"`
	Push      PushConfig      `mapstructure:"push"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Version   string          `mapstructure:"version"`
}

// ServiceConfig holds service-specific configuration
type ServiceConfig struct {
	Name        string `mapstructure:"name" envconfig:"SERVICE_NAME"`
	Environment string `mapstructure:"environment" envconfig:"ENVIRONMENT" default:"development"`
}

// APIConfig holds the REST notification service configuration.
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url" envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	Timeout  time.Duration `mapstructure:"timeout" envconfig:"API_TIMEOUT" default:"15s"`
	PageSize int           `mapstructure:"page_size" envconfig:"API_PAGE_SIZE" default:"20"`
}

// PushConfig holds the WebSocket push channel configuration.
type PushConfig struct {
	URL               string          `mapstructure:"url" envconfig:"PUSH_URL" default:"ws://localhost:8080/ws"`
	HandshakeTimeout  time.Duration   `mapstructure:"handshake_timeout" envconfig:"PUSH_HANDSHAKE_TIMEOUT" default:"10s"`
	HeartbeatInterval time.Duration   `mapstructure:"heartbeat_interval" envconfig:"PUSH_HEARTBEAT_INTERVAL" default:"4s"`
	QueueSize         int             `mapstructure:"queue_size" envconfig:"PUSH_QUEUE_SIZE" default:"256"`
	Reconnect         ReconnectConfig `mapstructure:"reconnect"`
}

// ReconnectConfig holds the push channel reconnection policy. The delay grows
// exponentially from InitialDelay up to MaxDelay with jitter; after
// MaxAttempts consecutive failures the channel stays down until a manual
// connect.
type ReconnectConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts" envconfig:"PUSH_RECONNECT_MAX_ATTEMPTS" default:"5"`
	InitialDelay  time.Duration `mapstructure:"initial_delay" envconfig:"PUSH_RECONNECT_INITIAL_DELAY" default:"5s"`
	MaxDelay      time.Duration `mapstructure:"max_delay" envconfig:"PUSH_RECONNECT_MAX_DELAY" default:"1m"`
	BackoffFactor float64       `mapstructure:"backoff_factor" envconfig:"PUSH_RECONNECT_BACKOFF_FACTOR" default:"2.0"`
	JitterFactor  float64       `mapstructure:"jitter_factor" envconfig:"PUSH_RECONNECT_JITTER_FACTOR" default:"0.2"`
}

// AuthConfig holds credential handling configuration.
type AuthConfig struct {
	// ExpiryLeeway is subtracted from the token's embedded expiry when
	// checking validity locally, so requests are not issued with a token
	// about to die in flight.
	ExpiryLeeway time.Duration `mapstructure:"expiry_leeway" envconfig:"AUTH_EXPIRY_LEEWAY" default:"30s"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format     string `mapstructure:"format" envconfig:"LOG_FORMAT" default:"json"`
	OutputPath string `mapstructure:"output_path" envconfig:"LOG_OUTPUT_PATH" default:"stdout"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
	MetricsPort    int  `mapstructure:"metrics_port" envconfig:"METRICS_PORT" default:"9091"`
}

// Load loads configuration from files and environment
func Load(serviceName string) (*Config, error) {
	var cfg Config

	cfg.Service.Name = serviceName

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("./configs/services/" + serviceName)
	viper.AddConfigPath(".")

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; ignore error and continue with env vars
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env vars: %w", err)
	}

	if version := os.Getenv("VERSION"); version != "" {
		cfg.Version = version
	} else {
		cfg.Version = "dev"
	}

	return &cfg, nil
}
