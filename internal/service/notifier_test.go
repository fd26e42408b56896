package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/queue"
	"github.com/iliyamo/hall-booking/internal/repository"
)

type stubHalls map[uint64]*model.Hall

func (s stubHalls) GetByID(_ context.Context, id uint64) (*model.Hall, error) {
	if h, ok := s[id]; ok {
		return h, nil
	}
	return nil, repository.ErrHallNotFound
}

type stubAccounts map[uint64]model.Account

func (s stubAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	if a, ok := s[id]; ok {
		return a, nil
	}
	return model.Account{}, repository.ErrAccountNotFound
}

type capturePublisher struct {
	events []queue.BookingEvent
	ctxErr error
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	p.ctxErr = ctx.Err()
	p.events = append(p.events, ev)
	return p.err
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBookingNotifierNotify(t *testing.T) {
	halls := stubHalls{7: {ID: 7, Name: "Main Auditorium", Location: "Block A"}}
	accounts := stubAccounts{3: {ID: 3, Name: "Dana", Email: "dana@example.edu"}}
	b := model.Booking{ID: 11, HallID: 7, RequesterID: 3, Date: "2026-05-04", StartTime: "09:00", EndTime: "10:00", Status: model.StatusRejected}

	t.Run("enriches and publishes", func(t *testing.T) {
		pub := &capturePublisher{}
		n := NewBookingNotifier(halls, accounts, pub, quiet())

		n.Notify(context.Background(), booking.Event{
			Type:       booking.EventRejected,
			Booking:    b,
			Actor:      booking.Identity{UserID: 1, Role: model.RoleAdmin},
			Reason:     "double booked",
			OccurredAt: time.Now(),
		})

		require.Len(t, pub.events, 1)
		ev := pub.events[0]
		assert.Equal(t, "rejected", ev.Type)
		assert.Equal(t, "Main Auditorium", ev.HallName)
		assert.Equal(t, "dana@example.edu", ev.RequesterEmail)
		assert.Equal(t, uint64(1), ev.ActorID)
		assert.Equal(t, "ADMIN", ev.ActorRole)
		assert.Equal(t, "double booked", ev.Reason)
		assert.Equal(t, "REJECTED", ev.Status)
		assert.NotEmpty(t, ev.EventID)
	})

	t.Run("survives a cancelled request context", func(t *testing.T) {
		pub := &capturePublisher{}
		n := NewBookingNotifier(halls, accounts, pub, quiet())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		n.Notify(ctx, booking.Event{Type: booking.EventCancelled, Booking: b})

		require.Len(t, pub.events, 1)
		assert.NoError(t, pub.ctxErr)
	})

	t.Run("publish failure is swallowed", func(t *testing.T) {
		pub := &capturePublisher{err: errors.New("broker down")}
		n := NewBookingNotifier(stubHalls{}, stubAccounts{}, pub, quiet())

		assert.NotPanics(t, func() {
			n.Notify(context.Background(), booking.Event{Type: booking.EventCreated, Booking: b})
		})
		require.Len(t, pub.events, 1)
		assert.Empty(t, pub.events[0].HallName)
	})
}

func TestBookingNotifierRemind(t *testing.T) {
	pub := &capturePublisher{}
	n := NewBookingNotifier(stubHalls{}, stubAccounts{}, pub, quiet())
	d := model.BookingDetail{
		Booking:        model.Booking{ID: 5, HallID: 2, Date: "2026-05-05", StartTime: "14:00", EndTime: "15:00", Status: model.StatusApproved},
		HallName:       "Seminar Room",
		HallLocation:   "Library",
		RequesterName:  "Lee",
		RequesterEmail: "lee@example.edu",
	}

	require.NoError(t, n.Remind(context.Background(), d, time.Now()))
	require.Len(t, pub.events, 1)
	assert.Equal(t, "reminder", pub.events[0].Type)
	assert.Equal(t, "Library", pub.events[0].HallLocation)
}
