// Package types provides configuration types for the backtesting core.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// BacktestConfig represents the configuration for a single backtest run
type BacktestConfig struct {
	ID             string          `json:"id"`
	Strategy       string          `json:"strategy"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
	Commission     decimal.Decimal `json:"commission"`
	RiskFreeRate   decimal.Decimal `json:"riskFreeRate"`
}

// DefaultBacktestConfig returns a config with the standard capital and
// commission used throughout the test suite and CLI.
func DefaultBacktestConfig(strategy string) *BacktestConfig {
	return &BacktestConfig{
		Strategy:       strategy,
		InitialCapital: decimal.NewFromInt(10000),
		Commission:     decimal.NewFromFloat(1.0),
		RiskFreeRate:   decimal.NewFromFloat(0.05),
	}
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	WebSocketPath  string        `json:"websocketPath"`
	ReadTimeout    time.Duration `json:"readTimeout"`
	WriteTimeout   time.Duration `json:"writeTimeout"`
	MaxConnections int           `json:"maxConnections"`
	EnableMetrics  bool          `json:"enableMetrics"`
}

