package booking

import (
	"fmt"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Slot is a wall-clock interval on one calendar day.  Start and End are
// minutes since midnight and describe the half-open range [Start, End).
type Slot struct {
	Date  string
	Start int
	End   int
}

// ParseSlot validates a "YYYY-MM-DD" date and two "HH:MM" times and
// returns the slot.  The end must be strictly after the start.
func ParseSlot(date, start, end string) (Slot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Slot{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalid)
	}
	from, err := parseClock(start)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: start_time must be HH:MM", ErrInvalid)
	}
	to, err := parseClock(end)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: end_time must be HH:MM", ErrInvalid)
	}
	if from >= to {
		return Slot{}, fmt.Errorf("%w: start_time must be before end_time", ErrInvalid)
	}
	return Slot{Date: date, Start: from, End: to}, nil
}

// Overlaps reports whether two slots share any instant.  Touching slots
// (one ends exactly when the other starts) do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return s.Date == o.Date && s.Start < o.End && s.End > o.Start
}

// StartClock and EndClock format the bounds back to "HH:MM".
func (s Slot) StartClock() string { return formatClock(s.Start) }
func (s Slot) EndClock() string   { return formatClock(s.End) }

// Window is the daily opening range inside which bookings must fall.
type Window struct {
	Open  int
	Close int
}

// NewWindow parses "HH:MM" bounds.
func NewWindow(open, closing string) (Window, error) {
	o, err := parseClock(open)
	if err != nil {
		return Window{}, fmt.Errorf("open: %w", err)
	}
	c, err := parseClock(closing)
	if err != nil {
		return Window{}, fmt.Errorf("close: %w", err)
	}
	if o >= c {
		return Window{}, fmt.Errorf("window %s-%s is empty", open, closing)
	}
	return Window{Open: o, Close: c}, nil
}

// DefaultWindow is 08:00-20:00.
var DefaultWindow = Window{Open: 8 * 60, Close: 20 * 60}

// Contains reports whether the slot lies within the window.
func (w Window) Contains(s Slot) bool {
	return s.Start >= w.Open && s.End <= w.Close
}

func (w Window) String() string {
	return formatClock(w.Open) + "-" + formatClock(w.Close)
}

// parseClock accepts exactly "HH:MM" with a zero-padded hour.
func parseClock(v string) (int, error) {
	if len(v) != len(clockLayout) {
		return 0, fmt.Errorf("clock %q is not HH:MM", v)
	}
	t, err := time.Parse(clockLayout, v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
