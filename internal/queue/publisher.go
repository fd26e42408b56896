package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// defaultDialTimeout bounds a broker dial when the caller's context has no
// deadline of its own.
const defaultDialTimeout = 5 * time.Second

// ErrBrokerBusy is returned when another caller is already dialing the
// broker.  The event is dropped rather than queued behind the dial.
var ErrBrokerBusy = errors.New("broker connection in progress")

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// Publisher sends BookingEvents to a durable topic exchange.  It keeps a
// single connection and channel, opened on first use and re-opened after
// a failed publish, so a broker outage never blocks startup.
//
// The mutex only guards the connection fields; dialing happens outside it
// with a timeout taken from the caller's context, and only one caller
// dials at a time.
type Publisher struct {
	url      string
	exchange string
	log      logrus.FieldLogger

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	dialing bool
	closed  bool
}

// NewPublisher returns a publisher for the exchange.  No connection is
// made until the first Publish.
func NewPublisher(url, exchange string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, exchange: exchange, log: log.WithField("component", "publisher")}
}

// Publish marshals the event and sends it as a persistent message with
// routing key booking.<type>.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev.Type), false, false, msg); err != nil {
		p.mu.Lock()
		if p.ch == ch {
			p.reset()
		}
		p.mu.Unlock()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// channel returns the open channel, dialing and declaring the exchange if
// needed.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPublisherClosed
	}
	if p.dialing {
		p.mu.Unlock()
		return nil, ErrBrokerBusy
	}
	p.reset()
	p.dialing = true
	p.mu.Unlock()

	conn, ch, err := p.connect(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		return nil, err
	}
	if p.closed {
		_ = ch.Close()
		_ = conn.Close()
		return nil, ErrPublisherClosed
	}
	p.conn, p.ch = conn, ch
	p.log.WithField("exchange", p.exchange).Info("connected to broker")
	return ch, nil
}

func (p *Publisher) connect(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	timeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	if timeout <= 0 {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", context.DeadlineExceeded)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

// reset drops the connection.  Callers hold p.mu.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}
