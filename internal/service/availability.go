package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/ds124wfegd/gameroom/internal/database/postgres"
	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
)

// availabilityChecker decides whether a booking request is legal.
// It only reads; callers hold the room day lock when the result is persisted.
type availabilityChecker struct {
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
	periods      repository.DisablePeriodRepository
	loc          *time.Location
}

type checkedBooking struct {
	Room       *entity.Room
	Shop       *entity.Shop
	Slots      []entity.TimeSlot
	TotalPrice float64
}

// Check runs the rules in order and fails on the first violation.
// slots must be parsed and sorted.
func (c *availabilityChecker) Check(ctx context.Context, roomID uuid.UUID, date entity.Date, t entity.ReservationType, slots []entity.TimeSlot, now time.Time) (*checkedBooking, error) {
	if len(slots) == 0 {
		return nil, entity.ErrNoSlots
	}

	// 1. room exists and is available
	room, err := c.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAvailable {
		return nil, entity.ErrRoomUnavailable
	}

	// 2-3. rate configured and device compatible
	rate, err := checkRoomType(room, t)
	if err != nil {
		return nil, err
	}

	// 4. not in the past
	today := entity.DateOf(now, c.loc)
	if date.Before(today) {
		return nil, fmt.Errorf("%w: %s", entity.ErrPastDate, date)
	}
	if date.Equal(today) {
		for _, s := range slots {
			if !date.At(s, c.loc).After(now) {
				return nil, fmt.Errorf("%w: %s", entity.ErrSlotInPast, s)
			}
		}
	}

	// 5. inside shop hours
	shop, err := c.rooms.GetShop(ctx, room.ShopID)
	if err != nil {
		return nil, err
	}
	opening, closing, err := shop.Hours()
	if err != nil {
		return nil, err
	}
	for _, s := range slots {
		if m := s.Minutes(); m < opening || m >= closing {
			return nil, fmt.Errorf("%w: %s (open %s-%s)", entity.ErrSlotOutsideHours, s, shop.OpeningTime, shop.ClosingTime)
		}
	}

	// 6. no slot instant disabled
	window := entity.SlotWindow(date, slots, c.loc)
	periods, err := c.periods.FindOverlapping(ctx, roomID, window.Start, window.End, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check disable periods: %w", err)
	}
	for _, s := range slots {
		if disabledAt(periods, date.At(s, c.loc)) {
			return nil, fmt.Errorf("%w: slot %s", entity.ErrRoomDisabled, s)
		}
	}

	// 7. no slot already claimed
	booked, err := c.reservations.FindBookedSlots(ctx, roomID, date, slots)
	if err != nil {
		return nil, fmt.Errorf("failed to check booked slots: %w", err)
	}
	if len(booked) > 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrSlotAlreadyBooked, strings.Join(slotStrings(booked), ", "))
	}

	return &checkedBooking{
		Room:       room,
		Shop:       shop,
		Slots:      slots,
		TotalPrice: price(rate, len(slots)),
	}, nil
}

// dayAvailability builds the per-slot view of one room day.
func (c *availabilityChecker) dayAvailability(ctx context.Context, roomID uuid.UUID, date entity.Date, now time.Time) (*entity.RoomDayAvailability, error) {
	room, err := c.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	shop, err := c.rooms.GetShop(ctx, room.ShopID)
	if err != nil {
		return nil, err
	}
	opening, closing, err := shop.Hours()
	if err != nil {
		return nil, err
	}

	booked, err := c.reservations.ListBookedSlots(ctx, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	bookedSet := make(map[entity.TimeSlot]struct{}, len(booked))
	for _, s := range booked {
		bookedSet[s] = struct{}{}
	}

	dayStart := date.At("00:00", c.loc)
	dayEnd := date.AddDays(1).At("00:00", c.loc)
	periods, err := c.periods.FindOverlapping(ctx, roomID, dayStart, dayEnd, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check disable periods: %w", err)
	}

	view := &entity.RoomDayAvailability{
		RoomID:      roomID,
		Date:        date,
		OpeningTime: shop.OpeningTime,
		ClosingTime: shop.ClosingTime,
	}
	for _, s := range entity.DaySlots() {
		state := entity.SlotStateFree
		at := date.At(s, c.loc)

		if m := s.Minutes(); m < opening || m >= closing || !room.IsAvailable {
			state = entity.SlotStateClosed
		} else if _, ok := bookedSet[s]; ok {
			state = entity.SlotStateBooked
		} else if disabledAt(periods, at) {
			state = entity.SlotStateDisabled
		} else if !at.After(now) {
			state = entity.SlotStatePast
		}

		view.Slots = append(view.Slots, entity.SlotAvailability{TimeSlot: s, State: state})
	}
	return view, nil
}

func disabledAt(periods []*entity.RoomDisablePeriod, at time.Time) bool {
	for _, p := range periods {
		if p.Contains(at) {
			return true
		}
	}
	return false
}
