package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier appends notifications to a topic, keyed by channel so every message for one
// shop, zone or customer lands on the same partition in order.
type KafkaNotifier struct {
	writer messageWriter
}

// NewKafkaNotifier creates an async writer for topic on brokers. Writes return as soon as
// the message is queued; delivery failures are logged from the writer's completion hook.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion:   logFailedWrites,
	}}
}

func logFailedWrites(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		log.Printf("warning: kafka notification on %s was not delivered: %v", m.Key, err)
	}
}

func (k *KafkaNotifier) Notify(ctx context.Context, channelKey string, payload Payload) error {
	body, err := encode(channelKey, payload)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(channelKey),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(payload.Event)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write for %s: %w", channelKey, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
