package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	kafkago "github.com/segmentio/kafka-go"
)

// batchTimeout bounds how long a single event waits for a batch to fill;
// publishing is synchronous on the file-read path.
const batchTimeout = 10 * time.Millisecond

// messageWriter is the part of kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink forwards published activity events to a Kafka topic, keyed by the
// affected user so each user's events stay ordered within a partition.
type Sink struct {
	writer messageWriter
}

// NewSink creates a Sink writing to topic on brokers.
func NewSink(brokers []string, topic string) *Sink {
	return &Sink{writer: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		MaxAttempts:            3,
	}}
}

// Publish writes event as JSON.
func (s *Sink) Publish(ctx context.Context, event activity.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.AffectedUser),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "app", Value: []byte(event.App)},
			{Key: "type", Value: []byte(event.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("write event %d: %w", event.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}
