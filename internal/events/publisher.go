// Package events publishes session lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"screenknow/internal/observability/metrics"
)

// Event types published to the session topic.
const (
	TypeSessionStarted  = "session_started"
	TypeSessionAnswered = "session_answered"
	TypeSessionFailed   = "session_failed"
	TypeDescribeServed  = "describe_served"
)

// SessionEvent is one record on the session topic.
type SessionEvent struct {
	EventID    string `json:"eventId"`
	Type       string `json:"type"`
	SessionID  string `json:"sessionId"`
	Question   string `json:"question,omitempty"`
	Provider   string `json:"provider,omitempty"`
	AudioBytes int    `json:"audioBytes,omitempty"`
	ElapsedMS  int64  `json:"elapsedMs,omitempty"`
	Error      string `json:"error,omitempty"`
	OccurredAt string `json:"occurredAt"`
}

// Publisher publishes session events to Kafka. When disabled the
// events are logged instead of published.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	metrics *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// New creates a new session event publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("kafka disabled, session events use log-only mode")
		p := &Publisher{enabled: false, metrics: m}
		if cfg != nil {
			p.topic = cfg.Topic
		}
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("kafka session event publisher initialized")

	return &Publisher{
		writer:  writer,
		topic:   cfg.Topic,
		enabled: true,
		metrics: m,
	}
}

// Publish writes one session event, keyed by session so per-session
// ordering survives partitioning.
func (p *Publisher) Publish(ctx context.Context, event SessionEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", p.topic).Msg("failed to marshal session event")
		return err
	}

	log.Debug().
		Str("topic", p.topic).
		Str("sessionId", event.SessionID).
		RawJSON("payload", payload).
		Msg("publishing session event")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordKafkaPublish(p.topic, event.Type, nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("sessionId", event.SessionID).
			Msg("failed to write session event to kafka")
		p.metrics.RecordKafkaPublish(p.topic, event.Type, err)
		return err
	}

	p.metrics.RecordKafkaPublish(p.topic, event.Type, nil)
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
