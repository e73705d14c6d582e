package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const writeTimeout = 5 * time.Second

type CheckoutItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CheckoutEvent is emitted once a checkout has committed.
type CheckoutEvent struct {
	UserID     uint            `json:"user_id"`
	Items      []CheckoutItem  `json:"items"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type Publisher interface {
	PublishCheckout(ctx context.Context, event CheckoutEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishCheckout(context.Context, CheckoutEvent) error { return nil }
func (NopPublisher) Close() error                                        { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	logger.Info("Initializing Kafka publisher", logger.Fields{
		"brokers": brokers,
		"topic":   topic,
	})

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           writeTimeout,
		},
		topic: topic,
	}
}

// PublishCheckout keys messages by user id so one user's checkouts stay ordered.
func (p *KafkaPublisher) PublishCheckout(ctx context.Context, event CheckoutEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal checkout event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: data,
		Time:  event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("kafka: write checkout event: %w", err)
	}

	logger.Debug("Checkout event published", logger.Fields{
		"topic":   p.topic,
		"user_id": event.UserID,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewPublisher returns a Kafka publisher when brokers are set and a no-op one otherwise.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		logger.Info("Kafka brokers not configured, checkout events disabled")
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
