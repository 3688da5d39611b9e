package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlas-desktop/quantbt/internal/api"
	"github.com/atlas-desktop/quantbt/internal/data"
	"github.com/atlas-desktop/quantbt/internal/runner"
	"github.com/atlas-desktop/quantbt/internal/strategy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/WebSocket API server",
	RunE:  runServeCmd,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel)
	defer logger.Sync()

	store, err := data.NewStore(logger.Named("data"), cfg.Data.Dir)
	if err != nil {
		return err
	}

	registry := strategy.NewRegistry(logger.Named("strategy"))
	promRegistry := prometheus.NewRegistry()
	run := runner.New(logger.Named("runner"), registry, promRegistry)

	serverConfig := cfg.ServerTypes()
	server := api.NewServer(logger.Named("api"), serverConfig, store, registry, run, promRegistry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("Server started",
		zap.String("http", fmt.Sprintf("http://%s:%d/api/v1", serverConfig.Host, serverConfig.Port)),
		zap.String("ws", fmt.Sprintf("ws://%s:%d%s", serverConfig.Host, serverConfig.Port, serverConfig.WebSocketPath)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}
