package entity

import (
	"time"

	"github.com/google/uuid"
)

const MinDisableDuration = 30 * time.Minute

// RoomDisablePeriod is an owner-declared interval [StartDateTime, EndDateTime)
// during which the room cannot be booked.
type RoomDisablePeriod struct {
	ID            uuid.UUID `json:"id" db:"id"`
	RoomID        uuid.UUID `json:"room_id" db:"room_id"`
	OwnerID       uuid.UUID `json:"owner_id" db:"owner_id"`
	StartDateTime time.Time `json:"start_date_time" db:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time" db:"end_date_time"`
	Reason        string    `json:"reason,omitempty" db:"reason"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (p *RoomDisablePeriod) Contains(t time.Time) bool {
	return !t.Before(p.StartDateTime) && t.Before(p.EndDateTime)
}

func (p *RoomDisablePeriod) Overlaps(start, end time.Time) bool {
	return p.StartDateTime.Before(end) && p.EndDateTime.After(start)
}

func (p *RoomDisablePeriod) Duration() time.Duration {
	return p.EndDateTime.Sub(p.StartDateTime)
}
