package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"dataset-hub-service/internal/config"
	output "dataset-hub-service/internal/core/ports/output"
)

const (
	publishTimeout = 5 * time.Second
	reconnectDelay = 5 * time.Second
)

var errPublisherClosed = errors.New("event publisher is closed")

// AMQPPublisher publishes hub events to a topic exchange. The routing key
// is the event type, e.g. "dataset.uploaded".
type AMQPPublisher struct {
	url      string
	exchange string

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

var _ output.EventPublisher = (*AMQPPublisher)(nil)

func NewAMQPPublisher(cfg *config.AMQPConfig) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: cfg.URL, exchange: cfg.Exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	go p.watch()

	log.WithField("exchange", cfg.Exchange).Info("event publisher initialized")
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("connect to amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	p.mu.Lock()
	p.conn, p.channel = conn, ch
	p.mu.Unlock()
	return nil
}

// watch reconnects whenever the broker drops the connection, until Close.
func (p *AMQPPublisher) watch() {
	for {
		p.mu.RLock()
		conn := p.conn
		p.mu.RUnlock()

		closeErr, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok || closeErr == nil {
			return
		}
		log.WithError(closeErr).Error("amqp connection lost, reconnecting")

		for {
			time.Sleep(reconnectDelay)
			p.mu.RLock()
			closed := p.closed
			p.mu.RUnlock()
			if closed {
				return
			}
			if err := p.connect(); err != nil {
				log.WithError(err).Error("amqp reconnect failed")
				continue
			}
			log.Info("amqp reconnected")
			break
		}
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, e output.Event) error {
	msg, err := message(e)
	if err != nil {
		return err
	}

	p.mu.RLock()
	ch, closed := p.channel, p.closed
	p.mu.RUnlock()
	if closed {
		return errPublisherClosed
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx, p.exchange, e.Type, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	log.WithFields(log.Fields{
		"routing_key": e.Type,
		"exchange":    p.exchange,
		"body_size":   len(msg.Body),
	}).Debug("event published")
	return nil
}

func message(e output.Event) (amqp.Publishing, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    e.OccurredAt,
		MessageId:    uuid.NewString(),
		Type:         e.Type,
	}, nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.WithError(err).Warn("failed to close amqp channel")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close amqp connection: %w", err)
		}
	}
	log.Info("event publisher closed")
	return nil
}

// Ping fails when the broker connection is down.
func (p *AMQPPublisher) Ping(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("amqp connection is closed")
	}
	return nil
}

// Noop discards events. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, e output.Event) error {
	log.WithField("event", e.Type).Debug("event dropped, no broker configured")
	return nil
}

func (Noop) Close() error { return nil }
