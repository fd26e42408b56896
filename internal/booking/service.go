package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/repository"
)

// HallReader loads halls for existence and capacity checks.
type HallReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Hall, error)
}

// Store is the persistence the core relies on.  CreateNoOverlap and
// RescheduleNoOverlap must perform the overlap scan and the write
// atomically (repository.ErrOverlap on a clash).  Transition must be a
// compare-and-swap on the current status and report
// repository.ErrStatusChanged when the row exists but no longer matches.
type Store interface {
	ListActiveOnDate(ctx context.Context, hallID uint64, date string, excludeID uint64) ([]model.Booking, error)
	CreateNoOverlap(ctx context.Context, b *model.Booking) error
	RescheduleNoOverlap(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	Transition(ctx context.Context, id uint64, t repository.StatusTransition) error
}

// Notifier receives booking events after they are persisted.  It must not
// block the caller for long and its failures never undo a transition.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// EventType names what happened to a booking.
type EventType string

const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventApproved  EventType = "approved"
	EventRejected  EventType = "rejected"
	EventCancelled EventType = "cancelled"
	EventReminder  EventType = "reminder"
)

// Event describes a persisted change to a booking.
type Event struct {
	Type       EventType
	Booking    model.Booking
	Actor      Identity
	Reason     string
	OccurredAt time.Time
}

// Policy holds the tunable validation rules.
type Policy struct {
	Window     Window
	PurposeMin int
}

// DefaultPolicy is the 08:00-20:00 window with a 10 character purpose.
var DefaultPolicy = Policy{Window: DefaultWindow, PurposeMin: 10}

// Option customizes a Service.
type Option func(*Service)

// WithPolicy overrides the validation policy.
func WithPolicy(p Policy) Option { return func(s *Service) { s.policy = p } }

// WithClock overrides the time source used for stamps and past-date checks.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// Service implements availability checks and booking transitions.
type Service struct {
	halls    HallReader
	store    Store
	notifier Notifier
	policy   Policy
	now      func() time.Time
}

// NewService wires the core.  notifier may be nil.
func NewService(halls HallReader, store Store, notifier Notifier, opts ...Option) *Service {
	if halls == nil || store == nil {
		panic("nil dependency passed to booking.NewService")
	}
	s := &Service{
		halls:    halls,
		store:    store,
		notifier: notifier,
		policy:   DefaultPolicy,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the active validation policy.
func (s *Service) Policy() Policy { return s.policy }

// CreateInput carries the fields of a new booking request.
type CreateInput struct {
	HallID    uint64
	Date      string
	StartTime string
	EndTime   string
	Purpose   string
	Attendees uint32
}

// UpdateInput carries optional changes to a pending booking.  Nil fields
// keep their current value.
type UpdateInput struct {
	Date      *string
	StartTime *string
	EndTime   *string
	Purpose   *string
	Attendees *uint32
}

// CheckAvailability reports whether [start, end) on date is free for the
// hall, ignoring excludeID when it is non-zero.
func (s *Service) CheckAvailability(ctx context.Context, hallID uint64, date, start, end string, excludeID uint64) (bool, error) {
	slot, err := ParseSlot(date, start, end)
	if err != nil {
		return false, err
	}
	if _, err := s.activeHall(ctx, hallID); err != nil {
		return false, err
	}
	existing, err := s.store.ListActiveOnDate(ctx, hallID, slot.Date, excludeID)
	if err != nil {
		return false, err
	}
	for i := range existing {
		if excludeID != 0 && existing[i].ID == excludeID {
			continue
		}
		other, err := ParseSlot(existing[i].Date, existing[i].StartTime, existing[i].EndTime)
		if err != nil {
			return false, fmt.Errorf("booking %d has a malformed slot: %w", existing[i].ID, err)
		}
		if slot.Overlaps(other) {
			return false, nil
		}
	}
	return true, nil
}

// CreateBooking validates the request and inserts it as PENDING.  The
// overlap scan and insert run atomically in the store.
func (s *Service) CreateBooking(ctx context.Context, who Identity, in CreateInput) (*model.Booking, error) {
	if !who.Role.Valid() || who.UserID == 0 {
		return nil, ErrForbidden
	}
	slot, err := s.validate(in.Date, in.StartTime, in.EndTime, in.Purpose, in.Attendees)
	if err != nil {
		return nil, err
	}
	hall, err := s.activeHall(ctx, in.HallID)
	if err != nil {
		return nil, err
	}
	if in.Attendees > hall.Capacity {
		return nil, fmt.Errorf("%w: attendees (%d) exceed hall capacity (%d)", ErrInvalid, in.Attendees, hall.Capacity)
	}

	b := &model.Booking{
		HallID:        hall.ID,
		RequesterID:   who.UserID,
		RequesterRole: who.Role,
		Date:          slot.Date,
		StartTime:     slot.StartClock(),
		EndTime:       slot.EndClock(),
		Purpose:       strings.TrimSpace(in.Purpose),
		Attendees:     in.Attendees,
		Status:        model.StatusPending,
	}
	if err := s.store.CreateNoOverlap(ctx, b); err != nil {
		return nil, translate(err)
	}
	s.emit(ctx, EventCreated, b, who, "")
	return b, nil
}

// UpdateBooking changes the schedule or details of a PENDING booking.  The
// new slot is re-checked against every other active booking.
func (s *Service) UpdateBooking(ctx context.Context, who Identity, id uint64, in UpdateInput) (*model.Booking, error) {
	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.Owns(cur) && !who.IsAdmin() {
		return nil, ErrForbidden
	}
	if cur.Status != model.StatusPending {
		return nil, ErrInvalidState
	}

	next := *cur
	if in.Date != nil {
		next.Date = *in.Date
	}
	if in.StartTime != nil {
		next.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		next.EndTime = *in.EndTime
	}
	if in.Purpose != nil {
		next.Purpose = *in.Purpose
	}
	if in.Attendees != nil {
		next.Attendees = *in.Attendees
	}
	slot, err := s.validate(next.Date, next.StartTime, next.EndTime, next.Purpose, next.Attendees)
	if err != nil {
		return nil, err
	}
	hall, err := s.activeHall(ctx, next.HallID)
	if err != nil {
		return nil, err
	}
	if next.Attendees > hall.Capacity {
		return nil, fmt.Errorf("%w: attendees (%d) exceed hall capacity (%d)", ErrInvalid, next.Attendees, hall.Capacity)
	}
	next.Date, next.StartTime, next.EndTime = slot.Date, slot.StartClock(), slot.EndClock()
	next.Purpose = strings.TrimSpace(next.Purpose)

	if err := s.store.RescheduleNoOverlap(ctx, &next); err != nil {
		return nil, translate(err)
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, EventUpdated, updated, who, "")
	return updated, nil
}

// DecideBooking approves or rejects a PENDING booking.  Only admins may
// decide; a rejection requires a reason.  Two concurrent decisions on the
// same booking yield one success and one ErrInvalidState.
func (s *Service) DecideBooking(ctx context.Context, who Identity, id uint64, d Decision, reason string) (*model.Booking, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	target, ok := d.target()
	if !ok {
		return nil, fmt.Errorf("%w: decision must be approve or reject", ErrInvalid)
	}
	reason = strings.TrimSpace(reason)
	if target == model.StatusRejected && reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrInvalid)
	}

	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, target) {
		return nil, ErrInvalidState
	}

	at := s.now().UTC()
	admin := who.UserID
	t := repository.StatusTransition{
		From:       sourcesOf(target),
		To:         target,
		ApprovedBy: &admin,
		ApprovedAt: &at,
	}
	if target == model.StatusRejected {
		t.Reason = &reason
	}
	if err := s.store.Transition(ctx, id, t); err != nil {
		return nil, translate(err)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ev := EventApproved
	if target == model.StatusRejected {
		ev = EventRejected
	}
	s.emit(ctx, ev, updated, who, reason)
	return updated, nil
}

// CancelBooking moves a PENDING or APPROVED booking to CANCELLED.  The
// owner (same role and id) or an admin may cancel.  Approver fields are
// left untouched.
func (s *Service) CancelBooking(ctx context.Context, who Identity, id uint64) (*model.Booking, error) {
	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.CanCancel(cur) {
		return nil, ErrForbidden
	}
	if !CanTransition(cur.Status, model.StatusCancelled) {
		return nil, ErrInvalidState
	}
	t := repository.StatusTransition{
		From: sourcesOf(model.StatusCancelled),
		To:   model.StatusCancelled,
	}
	if err := s.store.Transition(ctx, id, t); err != nil {
		return nil, translate(err)
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, EventCancelled, updated, who, "")
	return updated, nil
}

// Get returns a booking visible to the caller: its owner or any admin.
func (s *Service) Get(ctx context.Context, who Identity, id uint64) (*model.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.IsAdmin() && !who.Owns(b) {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) validate(date, start, end, purpose string, attendees uint32) (Slot, error) {
	slot, err := ParseSlot(date, start, end)
	if err != nil {
		return Slot{}, err
	}
	if !s.policy.Window.Contains(slot) {
		return Slot{}, fmt.Errorf("%w: bookings must fall within %s", ErrInvalid, s.policy.Window)
	}
	if slot.Date < s.now().Format(dateLayout) {
		return Slot{}, fmt.Errorf("%w: date is in the past", ErrInvalid)
	}
	if utf8.RuneCountInString(strings.TrimSpace(purpose)) < s.policy.PurposeMin {
		return Slot{}, fmt.Errorf("%w: purpose must be at least %d characters", ErrInvalid, s.policy.PurposeMin)
	}
	if attendees < 1 {
		return Slot{}, fmt.Errorf("%w: attendees must be at least 1", ErrInvalid)
	}
	return slot, nil
}

func (s *Service) activeHall(ctx context.Context, id uint64) (*model.Hall, error) {
	h, err := s.halls.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !h.IsActive {
		return nil, ErrNotFound
	}
	return h, nil
}

func (s *Service) load(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (s *Service) emit(ctx context.Context, t EventType, b *model.Booking, who Identity, reason string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, Event{
		Type:       t,
		Booking:    *b,
		Actor:      who,
		Reason:     reason,
		OccurredAt: s.now().UTC(),
	})
}

// translate maps repository sentinels onto the core taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrHallNotFound), errors.Is(err, repository.ErrBookingNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrOverlap):
		return ErrConflict
	case errors.Is(err, repository.ErrStatusChanged):
		return ErrInvalidState
	}
	return err
}
