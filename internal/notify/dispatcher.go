package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/showgate/ticketd/pkg/logger"
)

// Message is a notification payload with a partitioning key
type Message interface {
	Key() string
}

// Dispatcher publishes notification events. Dispatch is best-effort: the
// business operation that triggered the event has already committed, so a
// failed dispatch is logged and never propagated.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message)
	Close()
}

// KafkaConfig holds Kafka/Redpanda connection settings for the dispatcher
type KafkaConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

// KafkaDispatcher implements Dispatcher on a Kafka topic
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
	log    *logger.Logger
}

// NewKafkaDispatcher creates a KafkaDispatcher with its own client
func NewKafkaDispatcher(cfg KafkaConfig, log *logger.Logger) (*KafkaDispatcher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaDispatcher{client: client, topic: cfg.Topic, log: log}, nil
}

// Dispatch publishes the message asynchronously. Failures are logged only.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		d.log.ErrorContext(ctx, "marshal notification", zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(msg.Key()),
		Value: payload,
	}
	d.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			d.log.Error("publish notification",
				zap.String("topic", r.Topic),
				zap.String("key", string(r.Key)),
				zap.Error(err))
		}
	})
}

// Close flushes pending records and closes the client
func (d *KafkaDispatcher) Close() {
	d.client.Close()
}

// NopDispatcher discards every message. Used when notifications are disabled.
type NopDispatcher struct{}

// Dispatch discards the message
func (NopDispatcher) Dispatch(ctx context.Context, msg Message) {}

// Close does nothing
func (NopDispatcher) Close() {}
