package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"screenknow/internal/bootstrap"
	"screenknow/internal/config"
	"screenknow/internal/observability"
	"screenknow/internal/observability/logging"
)

func main() {
	// .env is optional; plain environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.Config{Level: "info"})
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("configuration failed")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log := logging.WithComponent("server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := bootstrap.BuildServer(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("backend bootstrap failed")
	}
	defer services.Publisher.Close()

	metricsServer := observability.NewServer(cfg.Server.MetricsAddr)
	metricsServer.Start()

	apiServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           services.Server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("analysis backend listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("api server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics listener shutdown failed")
	}
}
