package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/model"
)

// defaultDialTimeout bounds a broker dial when the caller's context has
// no deadline.
const defaultDialTimeout = 10 * time.Second

// Publisher sends booking events to RabbitMQ.  The connection is opened
// on first use and reopened after a failure, so a broker outage only
// costs the events published while it lasts.
type Publisher struct {
	url string
	log *zap.Logger

	// slot guards conn and ch.  It is a channel rather than a mutex so
	// that callers waiting behind a slow dial give up with their context.
	slot chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log, slot: make(chan struct{}, 1)}
}

func (p *Publisher) lock(ctx context.Context) error {
	select {
	case p.slot <- struct{}{}:
		if err := ctx.Err(); err != nil {
			<-p.slot
			return err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) unlock() { <-p.slot }

// PublishBookingConfirmed publishes b to the booking.confirmed queue as a
// persistent message.  Dialing, waiting for another publish and the
// publish itself all stop at ctx's deadline.  Errors are logged and
// returned so the caller can choose to ignore them.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, b *model.Booking) error {
	body, err := json.Marshal(NewBookingConfirmedEvent(b))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		p.log.Warn("rabbitmq: channel unavailable", zap.Error(err))
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    b.ReferenceID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("reference_id", b.ReferenceID), zap.Error(err))
		p.reset()
		return err
	}
	p.log.Debug("booking.confirmed published", zap.String("reference_id", b.ReferenceID))
	return nil
}

// channel returns an open channel with the queue declared.  The caller
// must hold the slot.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	timeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareBookingQueue(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

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
	p.slot <- struct{}{}
	defer p.unlock()
	p.reset()
	return nil
}

func declareBookingQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(
		BookingConfirmedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
