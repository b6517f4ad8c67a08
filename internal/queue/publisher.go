package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/model"
)

// Publisher enqueues emails on EmailQueueName. It keeps one connection and
// redials lazily after the broker drops it.
type Publisher struct {
	url string
	log *logrus.Entry

	// lock guards conn and ch. It is a channel so a caller whose context
	// ends stops waiting instead of queueing behind a slow dial.
	lock chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

// defaultDialTimeout bounds a broker dial when the caller set no deadline.
const defaultDialTimeout = 5 * time.Second

// NewPublisher returns a Publisher for the broker at url. No connection is
// made until the first message.
func NewPublisher(url string, log *logrus.Entry) *Publisher {
	return &Publisher{url: url, log: log.WithField("component", "email-publisher"), lock: make(chan struct{}, 1)}
}

func (p *Publisher) acquire(ctx context.Context) error {
	select {
	case p.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) release() { <-p.lock }

// dialTimeout is what is left of ctx's deadline.
func dialTimeout(ctx context.Context) (time.Duration, error) {
	dl, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout, nil
	}
	left := time.Until(dl)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	return left, nil
}

func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()
	timeout, err := dialTimeout(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(EmailQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// SendEmail publishes msg as a persistent message.
func (p *Publisher) SendEmail(ctx context.Context, msg model.EmailMessage) error {
	if msg.RecipientEmail == "" {
		return errors.New("email without recipient")
	}
	ev := EmailEvent{MessageID: uuid.NewString(), QueuedAt: time.Now().UTC(), Email: msg}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()
	ch, err := p.channel(ctx)
	if err != nil {
		p.log.WithError(err).Warn("broker unavailable")
		return err
	}
	err = ch.PublishWithContext(ctx, "", EmailQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.MessageID,
		Timestamp:    ev.QueuedAt,
		Body:         body,
	})
	if err != nil {
		// force a redial next time
		p.closeLocked()
		return err
	}
	p.log.WithFields(logrus.Fields{"message_id": ev.MessageID, "template": msg.Template}).Debug("email queued")
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.lock <- struct{}{}
	defer p.release()
	p.closeLocked()
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
