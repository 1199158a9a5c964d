package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pdfsum/cli/config"
	"github.com/pdfsum/cli/internal/logging"
	"github.com/pdfsum/cli/internal/mockapi"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	var (
		configPath = flag.String("config", config.Path(), "Path to the config file")
		addr       = flag.String("addr", "", "Listen address (overrides mock.addr)")
		publicURL  = flag.String("public-url", "", "Base URL used in upload links")
		debug      = flag.Bool("debug", false, "Log at debug level")
	)
	flag.Parse()

	logger := logging.Console(os.Stderr, zerolog.InfoLevel)

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	level := cfg.LogLevel()
	if *debug {
		level = zerolog.DebugLevel
	}
	logger = logger.Level(level)
	if *addr != "" {
		cfg.Mock.Addr = *addr
	}

	gin.SetMode(gin.ReleaseMode)
	backend := mockapi.NewServer(mockapi.Options{
		Token:          cfg.Mock.Token,
		PublicURL:      *publicURL,
		ExtractDelay:   cfg.Mock.ExtractDelay,
		SummarizeDelay: cfg.Mock.SummarizeDelay,
		Logger:         &logger,
	})

	srv := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Bool("token_required", cfg.Mock.Token != "").Msg("stand-in API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdownSignal(logger)
	gracefulShutdown(srv, backend, logger)
}

func waitForShutdownSignal(logger zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")
}

func gracefulShutdown(srv *http.Server, backend *mockapi.Server, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown warning")
	}
	backend.Close()
	logger.Info().Msg("server exited cleanly")
}
