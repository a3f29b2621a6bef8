package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicUserEvents    = "user_events"
	TopicCatalogEvents = "catalog_events"

	writeTimeout = 5 * time.Second
	maxAttempts  = 3
)

// DeliveryFunc receives the outcome of every message once the broker has
// acknowledged or rejected it.
type DeliveryFunc func(topic string, err error)

type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds an async writer that routes each message by its own
// topic and partitions by key. PublishEvent returns once the message is
// queued; onDelivery, when set, reports what happened to it.
func NewProducer(brokers []string, onDelivery DeliveryFunc) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           writeTimeout,
		MaxAttempts:            maxAttempts,
		Async:                  true,
		Completion:             completion(onDelivery),
	}

	return &Producer{writer: w}, nil
}

func completion(onDelivery DeliveryFunc) func([]kafka.Message, error) {
	if onDelivery == nil {
		return nil
	}
	return func(msgs []kafka.Message, err error) {
		for _, m := range msgs {
			onDelivery(m.Topic, err)
		}
	}
}

// PublishEvent queues the event. Topic metadata is still resolved inline, so
// an unreachable broker blocks until ctx or the write timeout expires.
func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: enqueue to %s failed: %w", topic, err)
	}
	return nil
}

// Close flushes queued messages before releasing the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
