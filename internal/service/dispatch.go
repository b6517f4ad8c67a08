package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/realtime"
)

// NotificationSink persists in-app notifications.
type NotificationSink interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// EmailSink hands an email to the asynchronous delivery pipeline.
type EmailSink interface {
	SendEmail(ctx context.Context, msg model.EmailMessage) error
}

// Dispatcher fires the side effects of a state transition. Every method is
// best effort: failures are logged and swallowed so that a committed
// transition is never reported as failed. Each call runs under its own
// timeout and survives cancellation of the request context.
type Dispatcher struct {
	Notifications NotificationSink
	Emails        EmailSink
	Feed          realtime.Feed
	Timeout       time.Duration
	Log           *logrus.Entry
}

func (d *Dispatcher) logger() *logrus.Entry {
	if d.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return d.Log
}

func (d *Dispatcher) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// Notify stores an in-app notification for n.UserID.
func (d *Dispatcher) Notify(ctx context.Context, n model.Notification) {
	if d == nil || d.Notifications == nil {
		return
	}
	cctx, cancel := d.callCtx(ctx)
	defer cancel()
	if err := d.Notifications.CreateNotification(cctx, &n); err != nil {
		d.logger().WithError(err).WithFields(logrus.Fields{
			"user_id": n.UserID,
			"type":    n.Type,
		}).Warn("notification dispatch failed")
	}
}

// Email queues a transactional email.
func (d *Dispatcher) Email(ctx context.Context, msg model.EmailMessage) {
	if d == nil || d.Emails == nil || msg.RecipientEmail == "" {
		return
	}
	cctx, cancel := d.callCtx(ctx)
	defer cancel()
	if err := d.Emails.SendEmail(cctx, msg); err != nil {
		d.logger().WithError(err).WithFields(logrus.Fields{
			"recipient": msg.RecipientEmail,
			"template":  msg.Template,
		}).Warn("email dispatch failed")
	}
}

// Changed tells availability subscribers of a billboard to reload.
func (d *Dispatcher) Changed(ctx context.Context, billboardID uint64, kind string, bookingID uint64) {
	if d == nil || d.Feed == nil {
		return
	}
	cctx, cancel := d.callCtx(ctx)
	defer cancel()
	ev := realtime.Event{BillboardID: billboardID, Kind: kind, BookingID: bookingID, At: time.Now().UTC()}
	if err := d.Feed.Publish(cctx, ev); err != nil {
		d.logger().WithError(err).WithField("billboard_id", billboardID).Warn("change event publish failed")
	}
}
