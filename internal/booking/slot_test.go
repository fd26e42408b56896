package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("2026-05-01", "09:00", "10:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60, s.Start)
	assert.Equal(t, 10*60+30, s.End)
	assert.Equal(t, "09:00", s.StartClock())
	assert.Equal(t, "10:30", s.EndClock())

	bad := []struct{ date, start, end string }{
		{"2026-13-01", "09:00", "10:00"},
		{"01/05/2026", "09:00", "10:00"},
		{"2026-05-01", "9am", "10:00"},
		{"2026-05-01", "9:00", "10:00"},
		{"2026-05-01", "09:00", "10:00:00"},
		{"2026-05-01", " 09:00", "10:00"},
		{"2026-05-01", "09:00", "25:00"},
		{"2026-05-01", "10:00", "10:00"},
		{"2026-05-01", "11:00", "10:00"},
	}
	for _, b := range bad {
		_, err := ParseSlot(b.date, b.start, b.end)
		assert.ErrorIs(t, err, ErrInvalid, "%s %s-%s", b.date, b.start, b.end)
	}
}

func TestSlotOverlaps(t *testing.T) {
	mk := func(date, a, b string) Slot {
		s, err := ParseSlot(date, a, b)
		require.NoError(t, err)
		return s
	}
	base := mk("2026-05-01", "10:00", "12:00")

	assert.True(t, base.Overlaps(mk("2026-05-01", "11:00", "13:00")))
	assert.True(t, base.Overlaps(mk("2026-05-01", "09:00", "10:01")))
	assert.True(t, base.Overlaps(mk("2026-05-01", "10:30", "11:00")), "contained")
	assert.True(t, base.Overlaps(mk("2026-05-01", "08:00", "14:00")), "containing")

	assert.False(t, base.Overlaps(mk("2026-05-01", "12:00", "13:00")), "back-to-back after")
	assert.False(t, base.Overlaps(mk("2026-05-01", "08:00", "10:00")), "back-to-back before")
	assert.False(t, base.Overlaps(mk("2026-05-02", "10:00", "12:00")), "other day")
}

func TestWindow(t *testing.T) {
	w, err := NewWindow("08:00", "20:00")
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, w)
	assert.Equal(t, "08:00-20:00", w.String())

	in, _ := ParseSlot("2026-05-01", "08:00", "20:00")
	early, _ := ParseSlot("2026-05-01", "07:59", "09:00")
	late, _ := ParseSlot("2026-05-01", "19:00", "20:01")
	assert.True(t, w.Contains(in))
	assert.False(t, w.Contains(early))
	assert.False(t, w.Contains(late))

	_, err = NewWindow("8:00", "20:00")
	assert.Error(t, err)
	_, err = NewWindow("20:00", "08:00")
	assert.Error(t, err)
	_, err = NewWindow("8", "20:00")
	assert.Error(t, err)
}
