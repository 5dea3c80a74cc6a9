package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher is the subset of *amqp.Channel used here.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes to a topic exchange. "shop:12" is routed as "shop.12" so
// consumers can bind "shop.*" or "zone.#".
type AMQPNotifier struct {
	conn     *amqp.Connection
	ch       publisher
	exchange string
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
}

// DialAMQP connects, opens a channel and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPNotifier{conn: conn, ch: ch, exchange: exchange}, nil
}

func routingKey(channelKey string) string {
	return strings.ReplaceAll(channelKey, ":", ".")
}

func (a *AMQPNotifier) Notify(ctx context.Context, channelKey string, payload Payload) error {
	body, err := encode(channelKey, payload)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	err = a.ch.PublishWithContext(ctx, a.exchange, routingKey(channelKey), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         payload.Event,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish for %s: %w", channelKey, err)
	}
	return nil
}

// Close closes the connection, which also closes the channel.
func (a *AMQPNotifier) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
