package entity

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// TimeSlot is a 30-minute booking unit labeled "HH:MM".
type TimeSlot string

const (
	SlotDuration = 30 * time.Minute
	SlotsPerDay  = 48
)

// ParseTimeSlot accepts labels on the half-hour grid from 00:00 to 23:30.
func ParseTimeSlot(s string) (TimeSlot, error) {
	minutes, err := ParseClock(s)
	if err != nil || minutes%30 != 0 || minutes >= 24*60 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeSlot, s)
	}
	return TimeSlot(s), nil
}

// ParseTimeSlots parses labels, rejects duplicates and returns them in chronological order.
func ParseTimeSlots(labels []string) ([]TimeSlot, error) {
	if len(labels) == 0 {
		return nil, ErrNoSlots
	}

	seen := make(map[TimeSlot]struct{}, len(labels))
	slots := make([]TimeSlot, 0, len(labels))
	for _, label := range labels {
		slot, err := ParseTimeSlot(label)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[slot]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTimeSlot, slot)
		}
		seen[slot] = struct{}{}
		slots = append(slots, slot)
	}

	SortSlots(slots)
	return slots, nil
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is accepted
// so that a shop may close at midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return h*60 + m, nil
}

func SlotFromMinutes(minutes int) TimeSlot {
	return TimeSlot(fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
}

// Minutes returns the offset of the slot start from midnight.
func (s TimeSlot) Minutes() int {
	minutes, _ := ParseClock(string(s))
	return minutes
}

func (s TimeSlot) String() string {
	return string(s)
}

// SortSlots orders slots chronologically. Labels are zero padded,
// so lexical order is chronological order.
func SortSlots(slots []TimeSlot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
}

// DaySlots returns the full grid of a day.
func DaySlots() []TimeSlot {
	slots := make([]TimeSlot, 0, SlotsPerDay)
	for i := 0; i < SlotsPerDay; i++ {
		slots = append(slots, SlotFromMinutes(i*30))
	}
	return slots
}

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SlotWindow spans [earliest slot start, latest slot start + 30m) on date.
func SlotWindow(date Date, slots []TimeSlot, loc *time.Location) Window {
	if len(slots) == 0 {
		return Window{}
	}

	earliest, latest := slots[0], slots[0]
	for _, s := range slots[1:] {
		if s < earliest {
			earliest = s
		}
		if s > latest {
			latest = s
		}
	}

	return Window{
		Start: date.At(earliest, loc),
		End:   date.At(latest, loc).Add(SlotDuration),
	}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Active reports whether now lies inside the window.
func (w Window) Active(now time.Time) bool {
	return w.Contains(now)
}

// Finished reports whether the window has fully elapsed.
func (w Window) Finished(now time.Time) bool {
	return !now.Before(w.End)
}

// Overlaps is the half-open overlap test.
func (w Window) Overlaps(start, end time.Time) bool {
	return w.Start.Before(end) && w.End.After(start)
}
