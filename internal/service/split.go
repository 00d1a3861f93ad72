package service

import (
	"fmt"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
)

// PartitionSlots splits slots into consumed (start <= now) and remaining (start > now).
// Both results keep chronological order.
func PartitionSlots(date entity.Date, slots []entity.TimeSlot, loc *time.Location, now time.Time) (consumed, remaining []entity.TimeSlot) {
	sorted := append([]entity.TimeSlot(nil), slots...)
	entity.SortSlots(sorted)

	consumed = make([]entity.TimeSlot, 0, len(sorted))
	remaining = make([]entity.TimeSlot, 0, len(sorted))
	for _, s := range sorted {
		if date.At(s, loc).After(now) {
			remaining = append(remaining, s)
		} else {
			consumed = append(consumed, s)
		}
	}
	return consumed, remaining
}

func remainingView(r *entity.Reservation, loc *time.Location, now time.Time) *entity.RemainingSlotsView {
	consumed, remaining := PartitionSlots(r.Date, r.Slots, loc, now)
	all := append([]entity.TimeSlot(nil), r.Slots...)
	entity.SortSlots(all)

	return &entity.RemainingSlotsView{
		AllSlots:       all,
		ConsumedSlots:  consumed,
		RemainingSlots: remaining,
		CanSplit:       canSplit(r.Status, consumed, remaining) == nil,
	}
}

func canSplit(status entity.ReservationStatus, consumed, remaining []entity.TimeSlot) error {
	if status != entity.ReservationStatusInProgress {
		return entity.ErrNotInProgress
	}
	if len(consumed) == 0 {
		return entity.ErrNothingConsumed
	}
	if len(remaining) < 2 {
		return entity.ErrTooFewRemaining
	}
	return nil
}

// planSplit assigns each group a contiguous slice of remaining, in order.
func planSplit(remaining []entity.TimeSlot, groups []entity.SplitGroup) ([][]entity.TimeSlot, error) {
	if len(groups) < 2 {
		return nil, fmt.Errorf("%w: at least two groups are required", entity.ErrInvalidSplitGroup)
	}

	total := 0
	for i, g := range groups {
		if g.SlotCount < 1 {
			return nil, fmt.Errorf("%w: group %d has slot count %d", entity.ErrInvalidSplitGroup, i, g.SlotCount)
		}
		total += g.SlotCount
	}
	if total != len(remaining) {
		return nil, fmt.Errorf("%w: groups cover %d slots, %d remain", entity.ErrInvalidSplitGroup, total, len(remaining))
	}

	slices := make([][]entity.TimeSlot, 0, len(groups))
	offset := 0
	for _, g := range groups {
		end := offset + g.SlotCount
		// cap the slice so appends never spill into the next group
		slices = append(slices, remaining[offset:end:end])
		offset = end
	}
	return slices, nil
}
