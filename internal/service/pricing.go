package service

import (
	"fmt"
	"math"

	"github.com/ds124wfegd/gameroom/internal/entity"
)

// slotHours is the length of one slot in hours.
const slotHours = 0.5

// price = rate * slotCount * 0.5, rounded to cents.
func price(rate float64, slotCount int) float64 {
	return math.Round(rate*float64(slotCount)*slotHours*100) / 100
}

// checkRoomType validates that t has a configured rate and is supported by the room device.
func checkRoomType(room *entity.Room, t entity.ReservationType) (float64, error) {
	rate, ok := room.RateFor(t)
	if !ok {
		return 0, fmt.Errorf("%w: %s", entity.ErrRateNotConfigured, t)
	}
	if !room.DeviceCategory.Permits(t) {
		return 0, fmt.Errorf("%w: %s on %s device", entity.ErrDeviceTypeMismatch, t, room.DeviceCategory)
	}
	return rate, nil
}

// CalculatePrice prices slotCount slots of type t on room.
func CalculatePrice(room *entity.Room, t entity.ReservationType, slotCount int) (float64, error) {
	rate, err := checkRoomType(room, t)
	if err != nil {
		return 0, err
	}
	return price(rate, slotCount), nil
}
