package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// EventPublisher publishes domain events to a topic exchange.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type amqpPublisher struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	mu           sync.Mutex
}

// NewEventPublisher dials RabbitMQ and declares a durable topic exchange.
func NewEventPublisher(amqpURL, exchangeName string) (EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &amqpPublisher{conn: conn, channel: ch, exchangeName: exchangeName}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return amqp.ErrClosed
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(ctx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

type noopPublisher struct {
	log logrus.FieldLogger
}

// NewNoopPublisher returns a publisher that drops events. It is used when
// AMQP_URL is not configured or the broker is unreachable at startup.
func NewNoopPublisher(log logrus.FieldLogger) EventPublisher {
	return &noopPublisher{log: log}
}

func (n *noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	n.log.WithField("routing_key", routingKey).Debug("RabbitMQ not configured; skipping publish")
	return nil
}

func (n *noopPublisher) Close() error { return nil }
