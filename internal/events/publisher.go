// Package events publishes order lifecycle events to Kafka. Publishing is
// best-effort: checkout success never depends on the broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// OrderFulfilled is emitted once per completed checkout.
type OrderFulfilled struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	TotalAmount float64   `json:"total_amount"`
	Units       int       `json:"units"`
	FulfilledAt time.Time `json:"fulfilled_at"`
}

// Publisher emits order events.
type Publisher interface {
	PublishOrderFulfilled(ctx context.Context, ev OrderFulfilled) error
	Close() error
}

// NopPublisher drops all events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderFulfilled(context.Context, OrderFulfilled) error { return nil }
func (NopPublisher) Close() error                                                { return nil }

// KafkaPublisher publishes events via a sarama sync producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher connects a sync producer to the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}, nil
}

// PublishOrderFulfilled sends the event as JSON keyed by order id.
func (p *KafkaPublisher) PublishOrderFulfilled(_ context.Context, ev OrderFulfilled) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.OrderID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return err
	}
	p.logger.Info("order event published",
		zap.String("order_id", ev.OrderID),
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close shuts the producer down.
func (p *KafkaPublisher) Close() error { return p.producer.Close() }
