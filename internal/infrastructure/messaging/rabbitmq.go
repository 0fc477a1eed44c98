// Package messaging publishes operational alerts and outbound mail jobs to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/estatevest/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPublisherClosed is returned after Close
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher sends one JSON message. An empty exchange publishes to the
// default exchange, routing straight to the queue named by key.
type Publisher interface {
	PublishJSON(ctx context.Context, exchange, key string, message any) error
}

// Dial connects to RabbitMQ, retrying while the broker comes up.
func Dial(ctx context.Context, cfg config.RabbitMQConfig, logger *zap.Logger) (*amqp.Connection, error) {
	attempts := max(cfg.DialRetries, 1)
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp.Dial(cfg.URL)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", i))
			return conn, nil
		}
		lastErr = err
		if i == attempts {
			break
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_delay", cfg.RetryDelay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

// RabbitPublisher publishes persistent JSON messages over one channel,
// reopening it when the broker closes it.
type RabbitPublisher struct {
	conn   *amqp.Connection
	logger *zap.Logger

	mu      sync.Mutex
	channel *amqp.Channel
	closed  bool
}

// NewRabbitPublisher opens a channel on conn
func NewRabbitPublisher(conn *amqp.Connection, logger *zap.Logger) (*RabbitPublisher, error) {
	if conn == nil {
		return nil, errors.New("RabbitMQ connection not initialized")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &RabbitPublisher{conn: conn, logger: logger, channel: ch}, nil
}

// DeclareTopology declares the durable alert exchange and mail queue
func (p *RabbitPublisher) DeclareTopology(alertExchange, mailQueue string) error {
	ch, err := p.activeChannel()
	if err != nil {
		return err
	}
	if alertExchange != "" {
		if err := ch.ExchangeDeclare(alertExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", alertExchange, err)
		}
	}
	if mailQueue != "" {
		if _, err := ch.QueueDeclare(mailQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", mailQueue, err)
		}
	}
	return nil
}

// PublishJSON implements Publisher
func (p *RabbitPublisher) PublishJSON(ctx context.Context, exchange, key string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	ch, err := p.activeChannel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %q/%q: %w", exchange, key, err)
	}
	return nil
}

func (p *RabbitPublisher) activeChannel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to reopen channel: %w", err)
	}
	p.logger.Info("Reopened RabbitMQ channel")
	p.channel = ch
	return ch, nil
}

// Close closes the channel. The connection belongs to the caller.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.channel == nil || p.channel.IsClosed() {
		return nil
	}
	return p.channel.Close()
}
