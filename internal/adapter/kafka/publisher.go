// Package kafka publishes build progress events to a Kafka topic so
// interested consumers (UIs, audit pipelines) can follow builds without
// holding the HTTP connection.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/aquaforge/netbuilder/internal/config"
	"github.com/aquaforge/netbuilder/internal/domain"
	"github.com/aquaforge/netbuilder/internal/pipeline"
)

// Publisher produces progress events to the configured topic. Events for one
// build share the build ID as message key, so partitioning preserves their
// order.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the progress topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaProgressTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and sends one event. Publishing is best-effort:
// a broker outage must not fail the build, so errors are logged and dropped.
func (p *Publisher) Publish(ctx context.Context, buildID string, event pipeline.Event) {
	msg, err := Message(buildID, event)
	if err != nil {
		p.logger.Warn("serialize progress event failed", "build_id", buildID, "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("publish progress event failed",
			"build_id", buildID, "type", event.Type, "error", err)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message marshals an event into a Kafka message.
func Message(buildID string, event pipeline.Event) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(buildID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "emitted_at", Value: []byte(domain.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
