package entity

import (
	"github.com/google/uuid"
)

// DeviceCategory is an explicit tag on the device record.
type DeviceCategory string

const (
	// PS5, PS4, PS3, Xbox family
	DeviceCategoryGaming DeviceCategory = "gaming"
	// TV and broadcast devices
	DeviceCategoryBroadcast DeviceCategory = "broadcast"
)

// Permits reports whether a reservation of type t may be placed on a device of this category.
func (c DeviceCategory) Permits(t ReservationType) bool {
	switch c {
	case DeviceCategoryGaming:
		return t == ReservationTypeSingle || t == ReservationTypeMulti
	case DeviceCategoryBroadcast:
		return t == ReservationTypeOther
	default:
		return false
	}
}

type Shop struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	OpeningTime string    `json:"opening_time" db:"opening_time"`
	ClosingTime string    `json:"closing_time" db:"closing_time"`
}

// Hours returns opening and closing offsets in minutes since midnight.
func (s *Shop) Hours() (opening, closing int, err error) {
	opening, err = ParseClock(s.OpeningTime)
	if err != nil {
		return 0, 0, ErrInvalidShopHours
	}
	closing, err = ParseClock(s.ClosingTime)
	if err != nil || closing <= opening {
		return 0, 0, ErrInvalidShopHours
	}
	return opening, closing, nil
}

type Room struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	ShopID         uuid.UUID      `json:"shop_id" db:"shop_id"`
	DeviceID       uuid.UUID      `json:"device_id" db:"device_id"`
	Name           string         `json:"name" db:"name"`
	DeviceName     string         `json:"device_name" db:"device_name"`
	DeviceCategory DeviceCategory `json:"device_category" db:"device_category"`
	Capacity       int            `json:"capacity" db:"capacity"`
	SingleRate     *float64       `json:"single_rate,omitempty" db:"single_rate"`
	MultiRate      *float64       `json:"multi_rate,omitempty" db:"multi_rate"`
	OtherRate      *float64       `json:"other_rate,omitempty" db:"other_rate"`
	IsAvailable    bool           `json:"is_available" db:"is_available"`
}

// RateFor returns the hourly rate for t. ok is false when the rate is missing or not positive.
func (r *Room) RateFor(t ReservationType) (rate float64, ok bool) {
	var p *float64
	switch t {
	case ReservationTypeSingle:
		p = r.SingleRate
	case ReservationTypeMulti:
		p = r.MultiRate
	case ReservationTypeOther:
		p = r.OtherRate
	}
	if p == nil || *p <= 0 {
		return 0, false
	}
	return *p, true
}
