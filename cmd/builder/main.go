// Command builder runs the network build service: an HTTP API that accepts
// GIS layer sets and returns EPANET INP documents, with optional Kafka
// progress publishing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/aquaforge/netbuilder/internal/adapter/http"
	kafkaadapter "github.com/aquaforge/netbuilder/internal/adapter/kafka"
	"github.com/aquaforge/netbuilder/internal/config"
	"github.com/aquaforge/netbuilder/internal/observability"
	"github.com/aquaforge/netbuilder/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	builder := pipeline.New(logger, metrics, cfg.SnapTolerance, cfg.CoordPrecision)

	// Progress publishing is feature-flagged via KAFKA_BROKERS /
	// KAFKA_PROGRESS_ENABLED.
	var publisher httpadapter.ProgressPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka progress publishing enabled", "topic", cfg.KafkaProgressTopic)
	} else {
		logger.Info("kafka progress publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, builder, builder, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
