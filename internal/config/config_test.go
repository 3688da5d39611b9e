package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Server.WebSocketPath != "/ws" {
		t.Errorf("websocket path = %q", cfg.Server.WebSocketPath)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if !cfg.Server.EnableMetrics {
		t.Error("metrics should default on")
	}
	if cfg.Server.MaxConnections != 256 {
		t.Errorf("max connections = %d, want 256", cfg.Server.MaxConnections)
	}
	if cfg.Data.Dir != "./data" {
		t.Errorf("data dir = %q", cfg.Data.Dir)
	}
	if cfg.Backtest.InitialCapital != 10000 || cfg.Backtest.Commission != 1.0 {
		t.Errorf("backtest defaults = %+v", cfg.Backtest)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quantbt.yaml")
	content := `server:
  port: 9090
  enable_metrics: false
backtest:
  initial_capital: 50000
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.EnableMetrics {
		t.Error("metrics should be disabled by the file")
	}
	if cfg.Backtest.InitialCapital != 50000 {
		t.Errorf("initial capital = %f, want 50000", cfg.Backtest.InitialCapital)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("unset keys should keep defaults, host = %q", cfg.Server.Host)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QUANTBT_SERVER_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
}

func TestServerTypes(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sc := cfg.ServerTypes()
	if sc.Port != 8080 || sc.WebSocketPath != "/ws" {
		t.Errorf("server types = %+v", sc)
	}
	if sc.MaxConnections != 256 {
		t.Errorf("max connections = %d, want 256", sc.MaxConnections)
	}
}

func TestBacktestTypes(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bt := cfg.BacktestTypes("rsi")
	if bt.Strategy != "rsi" {
		t.Errorf("strategy = %q", bt.Strategy)
	}
	if !bt.InitialCapital.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("initial capital = %s", bt.InitialCapital)
	}
	if !bt.RiskFreeRate.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("risk-free rate = %s", bt.RiskFreeRate)
	}
}
