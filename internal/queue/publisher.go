package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	dialTimeout   = 2 * time.Second
	redialPause   = 5 * time.Second
	amqpLocale    = "en_US"
	amqpHeartbeat = 10 * time.Second
)

// ErrBrokerUnavailable is returned while a failed dial is still cooling
// down.  No connection attempt is made during that window.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// Publisher writes events to a durable queue as persistent JSON messages.
// The connection is opened on first use and reopened after it drops.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger

	dial func(url string) (*amqp.Connection, error)
	now  func() time.Time

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	downUntil time.Time
}

// dialBounded caps the TCP connect so a silent broker cannot hold the
// publisher lock for the library default of 30s.
func dialBounded(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: amqpHeartbeat,
		Locale:    amqpLocale,
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

// NewPublisher returns a Publisher for the named queue.  No connection is
// made until the first Publish.
func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, queue: queue, log: log.Named("publisher"), dial: dialBounded, now: time.Now}
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		if p.now().Before(p.downUntil) {
			return nil, ErrBrokerUnavailable
		}
		conn, err := p.dial(p.url)
		if err != nil {
			p.downUntil = p.now().Add(redialPause)
			return nil, fmt.Errorf("%w: dial: %w", ErrBrokerUnavailable, err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// Publish sends ev.  Errors are logged and returned; callers treat them as
// advisory.
func (p *Publisher) Publish(ctx context.Context, ev RequestEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		p.log.Warn("broker unavailable", zap.Error(err))
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Type),
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.log.Warn("publish failed", zap.String("event", string(ev.Type)), zap.Error(err))
		_ = ch.Close()
		p.ch = nil
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

// NopPublisher drops every event.  It is used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, RequestEvent) error { return nil }
