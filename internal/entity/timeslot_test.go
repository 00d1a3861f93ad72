package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "midnight", input: "00:00"},
		{name: "half past", input: "09:30"},
		{name: "last slot", input: "23:30"},
		{name: "off grid", input: "09:15", wantErr: true},
		{name: "end of day", input: "24:00", wantErr: true},
		{name: "hour out of range", input: "25:00", wantErr: true},
		{name: "missing padding", input: "9:00", wantErr: true},
		{name: "garbage", input: "ab:cd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := ParseTimeSlot(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTimeSlot)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TimeSlot(tt.input), slot)
		})
	}
}

func TestParseTimeSlotsSortsAndRejectsDuplicates(t *testing.T) {
	slots, err := ParseTimeSlots([]string{"10:00", "09:00", "09:30"})
	require.NoError(t, err)
	assert.Equal(t, []TimeSlot{"09:00", "09:30", "10:00"}, slots)

	_, err = ParseTimeSlots([]string{"09:00", "09:00"})
	assert.ErrorIs(t, err, ErrDuplicateTimeSlot)

	_, err = ParseTimeSlots(nil)
	assert.ErrorIs(t, err, ErrNoSlots)
}

func TestTimeSlotMinutes(t *testing.T) {
	assert.Equal(t, 0, TimeSlot("00:00").Minutes())
	assert.Equal(t, 570, TimeSlot("09:30").Minutes())
	assert.Equal(t, 1410, TimeSlot("23:30").Minutes())
	assert.Equal(t, TimeSlot("09:30"), SlotFromMinutes(570))
}

func TestDaySlots(t *testing.T) {
	slots := DaySlots()
	require.Len(t, slots, SlotsPerDay)
	assert.Equal(t, TimeSlot("00:00"), slots[0])
	assert.Equal(t, TimeSlot("23:30"), slots[SlotsPerDay-1])
}

func TestSlotWindow(t *testing.T) {
	loc := time.UTC
	date := NewDate(2025, time.March, 10)

	w := SlotWindow(date, []TimeSlot{"08:30", "08:00", "09:00"}, loc)
	assert.Equal(t, time.Date(2025, time.March, 10, 8, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2025, time.March, 10, 9, 30, 0, 0, loc), w.End)

	assert.False(t, w.Active(w.Start.Add(-time.Second)))
	assert.True(t, w.Active(w.Start))
	assert.True(t, w.Active(w.End.Add(-time.Second)))
	assert.False(t, w.Active(w.End))
	assert.True(t, w.Finished(w.End))
	assert.False(t, w.Finished(w.End.Add(-time.Second)))
}

func TestSlotWindowUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	date := NewDate(2025, time.March, 10)

	w := SlotWindow(date, []TimeSlot{"00:00"}, loc)
	assert.Equal(t, time.Date(2025, time.March, 9, 21, 0, 0, 0, time.UTC), w.Start.UTC())
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, 1440, m)

	m, err = ParseClock("09:15")
	require.NoError(t, err)
	assert.Equal(t, 555, m)

	_, err = ParseClock("24:30")
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2025-03-10"`)))
	assert.Equal(t, NewDate(2025, time.March, 10), d)

	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-10"`, string(b))

	assert.ErrorIs(t, d.UnmarshalJSON([]byte(`"10/03/2025"`)), ErrInvalidDate)
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	instant := time.Date(2025, time.March, 10, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, NewDate(2025, time.March, 11), DateOf(instant, loc))
	assert.Equal(t, NewDate(2025, time.March, 10), DateOf(instant, time.UTC))
}
