// Package service holds the glue between the booking core and the
// notification pipeline.
package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/queue"
)

// HallLookup loads the hall named in an event.
type HallLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.Hall, error)
}

// AccountLookup loads the requester named in an event.
type AccountLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Account, error)
}

// EventPublisher sends a notification message to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// BookingNotifier turns core events into queue messages.  Publishing is
// best effort: failures are logged and never reach the caller.
type BookingNotifier struct {
	halls    HallLookup
	accounts AccountLookup
	pub      EventPublisher
	log      logrus.FieldLogger
	timeout  time.Duration
}

// NewBookingNotifier wires the notifier with a 5 second publish timeout.
func NewBookingNotifier(halls HallLookup, accounts AccountLookup, pub EventPublisher, log logrus.FieldLogger) *BookingNotifier {
	return &BookingNotifier{
		halls:    halls,
		accounts: accounts,
		pub:      pub,
		log:      log.WithField("component", "notifier"),
		timeout:  5 * time.Second,
	}
}

// Notify enriches and publishes ev.  It detaches from the request context
// so a client disconnect does not drop the message.
func (n *BookingNotifier) Notify(ctx context.Context, ev booking.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	msg := n.build(ctx, ev)
	if err := n.pub.Publish(ctx, msg); err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{
			"booking_id": ev.Booking.ID,
			"type":       ev.Type,
		}).Warn("failed to publish booking event")
	}
}

// Remind publishes a reminder for an upcoming booking.  The detail already
// carries the names so no lookups are needed.
func (n *BookingNotifier) Remind(ctx context.Context, d model.BookingDetail, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	msg := fromBooking(string(booking.EventReminder), d.Booking, at)
	msg.HallName = d.HallName
	msg.HallLocation = d.HallLocation
	msg.RequesterName = d.RequesterName
	msg.RequesterEmail = d.RequesterEmail
	return n.pub.Publish(ctx, msg)
}

func (n *BookingNotifier) build(ctx context.Context, ev booking.Event) queue.BookingEvent {
	msg := fromBooking(string(ev.Type), ev.Booking, ev.OccurredAt)
	msg.ActorID = ev.Actor.UserID
	msg.ActorRole = string(ev.Actor.Role)
	msg.Reason = ev.Reason

	if h, err := n.halls.GetByID(ctx, ev.Booking.HallID); err == nil {
		msg.HallName = h.Name
		msg.HallLocation = h.Location
	} else {
		n.log.WithError(err).WithField("hall_id", ev.Booking.HallID).Debug("hall lookup failed")
	}
	if a, err := n.accounts.GetByID(ctx, ev.Booking.RequesterID); err == nil {
		msg.RequesterName = a.Name
		msg.RequesterEmail = a.Email
	} else {
		n.log.WithError(err).WithField("requester_id", ev.Booking.RequesterID).Debug("requester lookup failed")
	}
	return msg
}

func fromBooking(eventType string, b model.Booking, at time.Time) queue.BookingEvent {
	msg := queue.NewBookingEvent(eventType, at)
	msg.BookingID = b.ID
	msg.HallID = b.HallID
	msg.Date = b.Date
	msg.StartTime = b.StartTime
	msg.EndTime = b.EndTime
	msg.Purpose = b.Purpose
	msg.Attendees = b.Attendees
	msg.Status = string(b.Status)
	msg.RequesterID = b.RequesterID
	return msg
}
