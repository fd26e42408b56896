package booking

import "github.com/iliyamo/hall-booking/internal/model"

// transitions maps a target status to the statuses it may be entered from.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusApproved:  {model.StatusPending},
	model.StatusRejected:  {model.StatusPending},
	model.StatusCancelled: {model.StatusPending, model.StatusApproved},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to model.BookingStatus) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// sourcesOf returns the statuses a transition into `to` may start from.
func sourcesOf(to model.BookingStatus) []model.BookingStatus {
	return append([]model.BookingStatus(nil), transitions[to]...)
}

// Decision is an admin verdict on a pending booking.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

func (d Decision) target() (model.BookingStatus, bool) {
	switch d {
	case Approve:
		return model.StatusApproved, true
	case Reject:
		return model.StatusRejected, true
	}
	return "", false
}

// Identity is the authenticated caller, resolved once per request.
type Identity struct {
	UserID uint64
	Role   model.Role
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (i Identity) IsAdmin() bool { return i.Role == model.RoleAdmin }

// Owns reports whether the caller created the booking.  Both the role tag
// and the id must match.
func (i Identity) Owns(b *model.Booking) bool {
	return b != nil && b.RequesterID == i.UserID && b.RequesterRole == i.Role
}

// CanCancel applies the cancellation guard: the owner or any admin.
func (i Identity) CanCancel(b *model.Booking) bool {
	return i.IsAdmin() || i.Owns(b)
}
