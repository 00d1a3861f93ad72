package service

import (
	"testing"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionSlots(t *testing.T) {
	slots := []entity.TimeSlot{"11:00", "10:00", "11:30", "10:30"}

	tests := []struct {
		name          string
		now           time.Time
		wantConsumed  []entity.TimeSlot
		wantRemaining []entity.TimeSlot
	}{
		{"before start", at(testDate, "09:59"), []entity.TimeSlot{}, []entity.TimeSlot{"10:00", "10:30", "11:00", "11:30"}},
		{"slot start counts as consumed", at(testDate, "10:30"), []entity.TimeSlot{"10:00", "10:30"}, []entity.TimeSlot{"11:00", "11:30"}},
		{"mid slot", at(testDate, "10:15"), []entity.TimeSlot{"10:00"}, []entity.TimeSlot{"10:30", "11:00", "11:30"}},
		{"all started", at(testDate, "12:00"), []entity.TimeSlot{"10:00", "10:30", "11:00", "11:30"}, []entity.TimeSlot{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumed, remaining := PartitionSlots(testDate, slots, time.UTC, tt.now)
			assert.Equal(t, tt.wantConsumed, consumed)
			assert.Equal(t, tt.wantRemaining, remaining)
		})
	}
}

func TestCanSplit(t *testing.T) {
	two := []entity.TimeSlot{"10:30", "11:00"}
	one := []entity.TimeSlot{"10:00"}

	assert.NoError(t, canSplit(entity.ReservationStatusInProgress, one, two))
	assert.ErrorIs(t, canSplit(entity.ReservationStatusPending, one, two), entity.ErrNotInProgress)
	assert.ErrorIs(t, canSplit(entity.ReservationStatusInProgress, nil, two), entity.ErrNothingConsumed)
	assert.ErrorIs(t, canSplit(entity.ReservationStatusInProgress, one, one), entity.ErrTooFewRemaining)
}

func TestPlanSplit(t *testing.T) {
	remaining := []entity.TimeSlot{"10:30", "11:00", "11:30"}
	group := func(n int) entity.SplitGroup {
		return entity.SplitGroup{SlotCount: n, Type: entity.ReservationTypeSingle}
	}

	t.Run("contiguous slices in order", func(t *testing.T) {
		slices, err := planSplit(remaining, []entity.SplitGroup{group(2), group(1)})
		require.NoError(t, err)
		assert.Equal(t, [][]entity.TimeSlot{{"10:30", "11:00"}, {"11:30"}}, slices)
	})

	t.Run("groups do not share backing capacity", func(t *testing.T) {
		tail := []entity.TimeSlot{"10:30", "11:00", "11:30"}
		slices, err := planSplit(tail, []entity.SplitGroup{group(2), group(1)})
		require.NoError(t, err)

		grown := append(slices[0], "23:00")
		assert.Equal(t, []entity.TimeSlot{"10:30", "11:00", "23:00"}, grown)
		assert.Equal(t, []entity.TimeSlot{"11:30"}, slices[1])
		assert.Equal(t, []entity.TimeSlot{"10:30", "11:00", "11:30"}, tail)
		assert.Equal(t, 2, cap(slices[0]))
	})

	invalid := []struct {
		name   string
		groups []entity.SplitGroup
	}{
		{"single group", []entity.SplitGroup{group(3)}},
		{"counts too small", []entity.SplitGroup{group(1), group(1)}},
		{"counts too large", []entity.SplitGroup{group(2), group(2)}},
		{"zero count", []entity.SplitGroup{group(3), group(0)}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planSplit(remaining, tt.groups)
			assert.ErrorIs(t, err, entity.ErrInvalidSplitGroup)
		})
	}
}
