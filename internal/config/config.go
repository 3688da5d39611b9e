// Package config loads application configuration from file, environment and
// defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/atlas-desktop/quantbt/pkg/types"
)

// Config is the root of quantbt.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	LogLevel string         `mapstructure:"log_level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	WebSocketPath  string        `mapstructure:"websocket_path"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxConnections int           `mapstructure:"max_connections"`
	EnableMetrics  bool          `mapstructure:"enable_metrics"`
}

// DataConfig holds data directory settings.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// BacktestConfig holds default backtest parameters.
type BacktestConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
	Commission     float64 `mapstructure:"commission"`
	RiskFreeRate   float64 `mapstructure:"risk_free_rate"`
}

// Load reads configuration from the given file. An empty path loads
// quantbt.yaml from the working directory when present; a missing default
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.websocket_path", "/ws")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_connections", 256)
	v.SetDefault("server.enable_metrics", true)
	v.SetDefault("data.dir", "./data")
	v.SetDefault("backtest.initial_capital", 10000.0)
	v.SetDefault("backtest.commission", 1.0)
	v.SetDefault("backtest.risk_free_rate", 0.05)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("QUANTBT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		v.SetConfigName("quantbt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ServerTypes converts the server section to the shared type.
func (c *Config) ServerTypes() *types.ServerConfig {
	return &types.ServerConfig{
		Host:           c.Server.Host,
		Port:           c.Server.Port,
		WebSocketPath:  c.Server.WebSocketPath,
		ReadTimeout:    c.Server.ReadTimeout,
		WriteTimeout:   c.Server.WriteTimeout,
		MaxConnections: c.Server.MaxConnections,
		EnableMetrics:  c.Server.EnableMetrics,
	}
}

// BacktestTypes converts the backtest section to the shared type.
func (c *Config) BacktestTypes(strategy string) *types.BacktestConfig {
	return &types.BacktestConfig{
		Strategy:       strategy,
		InitialCapital: decimal.NewFromFloat(c.Backtest.InitialCapital),
		Commission:     decimal.NewFromFloat(c.Backtest.Commission),
		RiskFreeRate:   decimal.NewFromFloat(c.Backtest.RiskFreeRate),
	}
}
