// Package sink provides alternate store adapters for flushed request
// log entries. Every sink satisfies the same contract as the Postgres
// repository: accept a whole batch or fail it.
package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/mukhulaazam/large-req-handling/internal/config"
	"github.com/mukhulaazam/large-req-handling/internal/model"
)

// KafkaSink produces one message per entry to a single topic. The whole
// batch goes through one WriteMessages call.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink returns a KafkaSink for the configured brokers and topic.
func NewKafkaSink(cfg *config.KafkaConfig) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Append writes the batch to Kafka, keyed by entry ID.
func (s *KafkaSink) Append(ctx context.Context, entries []model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(entries))
	for _, entry := range entries {
		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", entry.ID, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(entry.ID.String()),
			Value: value,
		})
	}
	if err := s.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("write %d message(s) to %s: %w", len(messages), s.writer.Topic, err)
	}
	return nil
}

// Close releases the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
