package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrBadPayload marks a message that can never be processed.
var ErrBadPayload = errors.New("bad notification payload")

const (
	dedupeTTL  = 24 * time.Hour
	maxBackoff = 30 * time.Second
)

// Consumer drains the notification queue: it binds a durable queue to the
// booking exchange, renders each event and hands it to a Mailer.
type Consumer struct {
	url      string
	exchange string
	queue    string
	rdb      *redis.Client // optional; nil disables de-duplication
	mailer   Mailer
	log      logrus.FieldLogger
}

// NewConsumer wires a consumer.  rdb may be nil.
func NewConsumer(url, exchange, queue string, rdb *redis.Client, mailer Mailer, log logrus.FieldLogger) *Consumer {
	return &Consumer{
		url:      url,
		exchange: exchange,
		queue:    queue,
		rdb:      rdb,
		mailer:   mailer,
		log:      log.WithField("component", "consumer"),
	}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-dialed with exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).WithField("retry_in", backoff.String()).Warn("failed to dial broker")
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("set QoS failed")
	}
	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, BindingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.WithFields(logrus.Fields{"queue": q.Name, "binding": BindingKey}).Info("consuming notifications")

	for d := range msgs {
		err := c.Handle(ctx, d.Body)
		switch {
		case err == nil:
			_ = d.Ack(false)
		case errors.Is(err, ErrBadPayload):
			c.log.WithError(err).WithField("routing_key", d.RoutingKey).Warn("dropping message")
			_ = d.Nack(false, false)
		default:
			// one redelivery for transient mailer failures
			c.log.WithError(err).WithField("routing_key", d.RoutingKey).Error("handle message failed")
			_ = d.Nack(false, !d.Redelivered)
		}
	}
	return errors.New("deliveries channel closed")
}

// Handle processes one message body.  Duplicate event ids are acknowledged
// without sending again.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if ev.EventID == "" {
		return fmt.Errorf("%w: missing event_id", ErrBadPayload)
	}
	msg, err := Render(ev)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	key := "notify:event:" + ev.EventID
	if c.rdb != nil {
		fresh, err := c.rdb.SetNX(ctx, key, 1, dedupeTTL).Result()
		if err != nil {
			c.log.WithError(err).Warn("dedupe check failed; sending anyway")
		} else if !fresh {
			c.log.WithField("event_id", ev.EventID).Debug("duplicate event skipped")
			return nil
		}
	}

	if err := c.mailer.Send(ctx, msg); err != nil {
		if c.rdb != nil {
			_ = c.rdb.Del(ctx, key).Err()
		}
		return err
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
