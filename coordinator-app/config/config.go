package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	API     APIServerConfig `mapstructure:"api"     yaml:"api"`
	Yield   YieldConfig     `mapstructure:"yield"   yaml:"yield"`
	Storage StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Ledger  LedgerConfig    `mapstructure:"ledger"  yaml:"ledger"`
	Metrics MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Log     LogConfig       `mapstructure:"log"     yaml:"log"`
}

// APIServerConfig holds HTTP API server configuration
type APIServerConfig struct {
	ListenAddr        string        `mapstructure:"listen_addr"         yaml:"listen_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"        yaml:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"       yaml:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"        yaml:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"    yaml:"max_header_bytes"`
}

// YieldConfig holds continuation host configuration
type YieldConfig struct {
	Horizon time.Duration `mapstructure:"horizon" yaml:"horizon" env:"YIELD_HORIZON"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path" env:"STORAGE_PATH"`

	// Reinitialize repoints the ledger namespaces on startup, preserving
	// old tables for audit. Required after a contract redeploy.
	Reinitialize     bool   `mapstructure:"reinitialize" yaml:"reinitialize"`
	ReinitProposalID uint64 `mapstructure:"reinit_proposal_id" yaml:"reinit_proposal_id"`
}

// LedgerConfig holds coordination ledger configuration
type LedgerConfig struct {
	// Owner is the admin account used on first initialization only;
	// afterwards the persisted owner wins.
	Owner string `mapstructure:"owner" yaml:"owner" env:"LEDGER_OWNER"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `mapstructure:"path"    yaml:"path"    env:"METRICS_PATH"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  env:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" env:"LOG_PRETTY"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.listen_addr", ":8081")
	v.SetDefault("api.read_header_timeout", "5s")
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "30s")
	v.SetDefault("api.idle_timeout", "120s")
	v.SetDefault("api.max_header_bytes", 1048576)

	v.SetDefault("yield.horizon", "5m")

	v.SetDefault("storage.path", "coordinator.db")
	v.SetDefault("storage.reinitialize", false)
	v.SetDefault("storage.reinit_proposal_id", 0)

	v.SetDefault("ledger.owner", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Yield.Horizon <= 0 {
		return fmt.Errorf("yield.horizon must be positive, got %s", c.Yield.Horizon)
	}
	if c.API.ListenAddr == "" {
		return fmt.Errorf("api.listen_addr must not be empty")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		API: APIServerConfig{
			ListenAddr:        ":8081",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		Yield: YieldConfig{
			Horizon: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Path: "coordinator.db",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}
