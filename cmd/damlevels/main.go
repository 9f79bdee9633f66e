package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/dam-levels-etl/internal/adapter/dws"
	httpadapter "github.com/couchcryptid/dam-levels-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/dam-levels-etl/internal/adapter/kafka"
	"github.com/couchcryptid/dam-levels-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/dam-levels-etl/internal/config"
	"github.com/couchcryptid/dam-levels-etl/internal/observability"
	"github.com/couchcryptid/dam-levels-etl/internal/pipeline"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := observability.NewLogger(cfg)
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.LogFile, "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	metrics := observability.NewMetrics()

	client := dws.NewClient(cfg.DWSBaseURL, cfg.DWSTimeout, cfg.DWSRequestInterval, metrics, logger)
	transformer := pipeline.NewTransformer(logger, metrics)
	writer := xlsx.NewWriter(cfg.OutputDir, logger)

	var opts []pipeline.Option
	var publisher *kafkaadapter.Publisher
	if cfg.PublishEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("summary publishing enabled", "topic", cfg.KafkaSummaryTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("summary publishing disabled")
	}

	p := pipeline.New(client, transformer, writer, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.HTTPWriteTimeout, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
