package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher emits order lifecycle events to a Kafka topic. One writer, one
// topic; the event type travels in the payload and a header so consumers can
// filter without decoding.
type Publisher struct {
	writer *kafka.Writer
}

// NewWriter builds a kafka.Writer for the given brokers and topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// NewPublisher wraps a configured writer.
func NewPublisher(writer *kafka.Writer) *Publisher {
	return &Publisher{writer: writer}
}

type orderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	OrderCode  string    `json:"order_code,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (p *Publisher) publish(ctx context.Context, event orderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, orderID, orderCode string) error {
	return p.publish(ctx, orderEvent{
		Type:       "order.placed",
		OrderID:    orderID,
		OrderCode:  orderCode,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) PublishOrderCancelled(ctx context.Context, orderID, reason string) error {
	return p.publish(ctx, orderEvent{
		Type:       "order.cancelled",
		OrderID:    orderID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
