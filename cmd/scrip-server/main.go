package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/scrip/internal/app"
	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/server"
)

func main() {
	configPath := os.Getenv("SCRIP_CONFIG")
	if configPath == "" {
		configPath = "scrip.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	common.PrintBanner(config, logger)

	a, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize app")
	}

	if err := a.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start background services")
	}

	srv := server.NewServer(a)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", config.Server.Port)).
		Msg("Server ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	if err := a.Close(); err != nil {
		logger.Error().Err(err).Msg("App shutdown failed")
	}
	common.PrintShutdownBanner(logger)
}
