package amqphook

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Session is a RabbitMQ connection with one channel and a declared topic
// exchange.
type Session struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to url, opens a channel and declares exchange as a durable
// topic exchange.
func Dial(url, exchange string) (*Session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp_hook: failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp_hook: failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp_hook: failed to declare exchange: %w", err)
	}

	return &Session{conn: conn, channel: ch}, nil
}

// Channel returns the session's channel. It satisfies Publisher.
func (s *Session) Channel() *amqp.Channel { return s.channel }

// Close closes the channel and then the connection.
func (s *Session) Close() error {
	var chErr error
	if s.channel != nil {
		chErr = s.channel.Close()
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			return err
		}
	}
	return chErr
}
