// Package kafka publishes extracted archetypes to a topic for
// downstream consumers (coaching tools, balance dashboards). One
// message per archetype, keyed by position name so per-position
// ordering is preserved across partitions.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/domain/buildorder"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

// messageWriter is the subset of kafka.Writer the publisher needs,
// extracted for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ArchetypeMessage is the wire payload for one published archetype.
type ArchetypeMessage struct {
	RunID     string               `json:"runId"`
	Archetype buildorder.Archetype `json:"archetype"`
}

// Publisher emits archetype records to kafka.
type Publisher struct {
	writer messageWriter
	topic  string
	log    logging.Logger
}

// NewPublisher constructs a Publisher from configuration.
func NewPublisher(cfg config.KafkaConfig, log logging.Logger) *Publisher {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchSize:    batchSize,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafkago.RequireOne,
	}
	return &Publisher{writer: w, topic: cfg.Topic, log: log.Named("kafka")}
}

// newPublisherWithWriter wires a fake writer (for testing).
func newPublisherWithWriter(w messageWriter, topic string, log logging.Logger) *Publisher {
	return &Publisher{writer: w, topic: topic, log: log}
}

// PublishArchetypes sends one message per archetype, keyed by position
// name. The batch is written in a single call; a failed write fails the
// whole publication.
func (p *Publisher) PublishArchetypes(ctx context.Context, runID string, archetypes []buildorder.Archetype) error {
	if len(archetypes) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(archetypes))
	for _, a := range archetypes {
		payload, err := json.Marshal(ArchetypeMessage{RunID: runID, Archetype: a})
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "marshal archetype "+a.Name)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(a.PositionName),
			Value: payload,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrap(err, errors.ErrCodePublishFailed, "publish archetypes to "+p.topic)
	}

	p.log.Info("archetypes published",
		logging.String("topic", p.topic),
		logging.String("run_id", runID),
		logging.Int("count", len(msgs)))
	return nil
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodePublishFailed, "close kafka writer")
	}
	return nil
}
