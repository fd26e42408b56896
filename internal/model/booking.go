package model

import "time"

// BookingStatus is the lifecycle state of a booking request.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusApproved  BookingStatus = "APPROVED"
	StatusRejected  BookingStatus = "REJECTED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Active reports whether a booking in this status still holds its slot.
// Rejected and cancelled bookings free the interval for re-booking.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Booking records a request to use a hall on one date between two
// wall-clock times.  Date is "YYYY-MM-DD"; StartTime and EndTime are
// "HH:MM" and describe the half-open interval [StartTime, EndTime).
//
// RequesterRole disambiguates who owns the booking: ownership checks
// compare both the role tag and the id.  ApprovedBy/ApprovedAt are set
// by an admin decision (approve or reject); RejectionReason is set only
// when Status is REJECTED.
type Booking struct {
	ID              uint64        `json:"id"`                         // bookings.id
	HallID          uint64        `json:"hall_id"`                    // bookings.hall_id
	RequesterID     uint64        `json:"requester_id"`               // bookings.requester_id
	RequesterRole   Role          `json:"requester_role"`             // bookings.requester_role
	Date            string        `json:"date"`                       // bookings.date
	StartTime       string        `json:"start_time"`                 // bookings.start_time
	EndTime         string        `json:"end_time"`                   // bookings.end_time
	Purpose         string        `json:"purpose"`                    // bookings.purpose
	Attendees       uint32        `json:"attendees"`                  // bookings.attendees
	Status          BookingStatus `json:"status"`                     // bookings.status
	ApprovedBy      *uint64       `json:"approved_by,omitempty"`      // bookings.approved_by (nullable)
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`      // bookings.approved_at (nullable)
	RejectionReason *string       `json:"rejection_reason,omitempty"` // bookings.rejection_reason (nullable)
	CreatedAt       time.Time     `json:"created_at"`                 // bookings.created_at
	UpdatedAt       time.Time     `json:"updated_at"`                 // bookings.updated_at
}

// BookingDetail is a booking joined with the names shown in listings
// (hall, requester, department, approver).
type BookingDetail struct {
	Booking
	HallName       string  `json:"hall_name"`
	HallLocation   string  `json:"hall_location"`
	RequesterName  string  `json:"requester_name"`
	RequesterEmail string  `json:"requester_email"`
	DepartmentName *string `json:"department_name,omitempty"`
	ApproverName   *string `json:"approved_by_name,omitempty"`
}
