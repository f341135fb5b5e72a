// Package config loads the publish engine's configuration via viper,
// following the teacher's go.mod-declared but domain-general pattern: a YAML
// file as the base layer, overridden by environment variables, with
// defaults applied for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete, resolved configuration for one publish engine
// process.
type Config struct {
	Service     ServiceConfig     `mapstructure:"service"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Transport   TransportConfig   `mapstructure:"transport"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServiceConfig identifies this process for logs and metrics.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig controls the health/metrics HTTP server.
type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// TransportConfig holds circuit-breaker settings for secure-channel sends
// (SPEC_FULL.md §4.7). cmd/publishengine loads it but builds no breaker from
// it, since it attaches no secure channels of its own.
type TransportConfig struct {
	BreakerMaxRequests      uint32        `mapstructure:"breaker_max_requests"`
	BreakerInterval         time.Duration `mapstructure:"breaker_interval"`
	BreakerTimeout          time.Duration `mapstructure:"breaker_timeout"`
	BreakerFailureThreshold uint32        `mapstructure:"breaker_failure_threshold"`
}

// DiagnosticsConfig controls the optional MQTT lifecycle-event bridge
// (SPEC_FULL.md §4.8). Disabled by default: the core engine never requires
// it to function.
type DiagnosticsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BrokerURL    string        `mapstructure:"broker_url"`
	ClientID     string        `mapstructure:"client_id"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	TopicPrefix  string        `mapstructure:"topic_prefix"`
	QoS          byte          `mapstructure:"qos"`
	ConnectDelay time.Duration `mapstructure:"connect_delay"`
}

// EngineConfig holds engine-wide subscription defaults. Load validates it;
// no component in this module reads it, and the module has no
// CreateSubscription handler to apply it.
type EngineConfig struct {
	DefaultRetransmissionQueueSize int `mapstructure:"default_retransmission_queue_size"`
}

// LoggingConfig controls the base logger built by pkg/logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configPath (if present), layers in environment variable
// overrides under the NEXUS_PUBLISH prefix, applies defaults, and validates
// the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("NEXUS_PUBLISH")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			// Missing file is not fatal: defaults + env vars still apply.
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "publish-engine")
	v.SetDefault("service.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)

	v.SetDefault("transport.breaker_max_requests", uint32(1))
	v.SetDefault("transport.breaker_interval", 60*time.Second)
	v.SetDefault("transport.breaker_timeout", 30*time.Second)
	v.SetDefault("transport.breaker_failure_threshold", uint32(5))

	v.SetDefault("diagnostics.enabled", false)
	v.SetDefault("diagnostics.broker_url", "tcp://localhost:1883")
	v.SetDefault("diagnostics.client_id", "publish-engine")
	v.SetDefault("diagnostics.topic_prefix", "$nexus/publish-engine")
	v.SetDefault("diagnostics.qos", byte(1))
	v.SetDefault("diagnostics.connect_delay", 5*time.Second)

	v.SetDefault("engine.default_retransmission_queue_size", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func validate(cfg *Config) error {
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", cfg.HTTP.Port)
	}
	if cfg.Engine.DefaultRetransmissionQueueSize < 0 {
		return fmt.Errorf("engine.default_retransmission_queue_size cannot be negative")
	}
	if cfg.Diagnostics.Enabled && cfg.Diagnostics.BrokerURL == "" {
		return fmt.Errorf("diagnostics.broker_url is required when diagnostics.enabled is true")
	}
	return nil
}
