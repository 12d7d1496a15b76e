package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is published on every booking lifecycle transition and
// consumed by the notification worker.
type BookingEvent struct {
	Type        string    `json:"type"`
	BookingCode string    `json:"booking_code"`
	UserID      int64     `json:"user_id"`
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	OccurredAt  time.Time `json:"occurred_at"`
}

const (
	EventBookingCreated   = "booking_created"
	EventBookingIssued    = "booking_issued"
	EventBookingCancelled = "booking_cancelled"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
