// Package events publishes resolved query outcomes for offline analysis.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Outcome is one resolved query.
type Outcome struct {
	SessionID    string    `json:"session_id"`
	Query        string    `json:"query"`
	Category     string    `json:"category"`
	Sentiment    string    `json:"sentiment"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StepCount    int       `json:"step_count"`
	LatencyMS    int64     `json:"latency_ms"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

type Publisher interface {
	Publish(ctx context.Context, o Outcome) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes outcomes keyed by session id so one browser's
// queries stay ordered within a partition.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshaling outcome: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(o.SessionID),
		Value: data,
		Time:  o.ResolvedAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing outcome: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Nop discards outcomes; used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Outcome) error { return nil }

func (Nop) Close() error { return nil }
