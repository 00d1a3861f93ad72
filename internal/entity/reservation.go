package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationType string

const (
	ReservationTypeSingle ReservationType = "single"
	ReservationTypeMulti  ReservationType = "multi"
	ReservationTypeOther  ReservationType = "other"
)

func ParseReservationType(s string) (ReservationType, error) {
	switch t := ReservationType(s); t {
	case ReservationTypeSingle, ReservationTypeMulti, ReservationTypeOther:
		return t, nil
	}
	return "", ErrInvalidType
}

type ReservationStatus string

const (
	ReservationStatusPending        ReservationStatus = "pending"
	ReservationStatusInProgress     ReservationStatus = "in_progress"
	ReservationStatusNoShow         ReservationStatus = "no_show"
	ReservationStatusCompleted      ReservationStatus = "completed"
	ReservationStatusPaymentSuccess ReservationStatus = "payment_success"
)

// ReservationStatuses lists every status in the order transitions are offered.
var ReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusInProgress,
	ReservationStatusNoShow,
	ReservationStatusCompleted,
	ReservationStatusPaymentSuccess,
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	for _, st := range ReservationStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownStatus
}

type Reservation struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	RoomID     uuid.UUID         `json:"room_id" db:"room_id"`
	UserID     uuid.UUID         `json:"user_id" db:"user_id"`
	Date       Date              `json:"date" db:"date"`
	Type       ReservationType   `json:"type" db:"type"`
	TotalPrice float64           `json:"total_price" db:"total_price"`
	Status     ReservationStatus `json:"status" db:"status"`
	Slots      []TimeSlot        `json:"slots"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`

	Room *Room `json:"room,omitempty"`
}

// Window returns the active window of the reservation in loc.
func (r *Reservation) Window(loc *time.Location) Window {
	return SlotWindow(r.Date, r.Slots, loc)
}

// SlotRef is a persisted slot together with the room day it belongs to.
type SlotRef struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	Date          Date      `json:"date"`
	TimeSlot      TimeSlot  `json:"time_slot"`
}

type RemainingSlotsView struct {
	AllSlots       []TimeSlot `json:"all_slots"`
	ConsumedSlots  []TimeSlot `json:"consumed_slots"`
	RemainingSlots []TimeSlot `json:"remaining_slots"`
	CanSplit       bool       `json:"can_split"`
}

// ReservationFilter narrows a reservation listing. Nil fields match everything.
type ReservationFilter struct {
	ShopID *uuid.UUID
	Status *ReservationStatus
}

// Match reports whether r passes the status filter. ShopID is applied by the store.
func (f ReservationFilter) Match(r *Reservation) bool {
	return f.Status == nil || r.Status == *f.Status
}

type SplitGroup struct {
	SlotCount int             `json:"slot_count" binding:"required,min=1"`
	Type      ReservationType `json:"type" binding:"required"`
}

type SplitResult struct {
	Original *Reservation   `json:"original"`
	Created  []*Reservation `json:"created"`
}

type SlotState string

const (
	SlotStateFree     SlotState = "free"
	SlotStateBooked   SlotState = "booked"
	SlotStateDisabled SlotState = "disabled"
	SlotStateClosed   SlotState = "closed"
	SlotStatePast     SlotState = "past"
)

type SlotAvailability struct {
	TimeSlot TimeSlot  `json:"time_slot"`
	State    SlotState `json:"state"`
}

// RoomDayAvailability is the per-slot view of one room for one date.
type RoomDayAvailability struct {
	RoomID      uuid.UUID          `json:"room_id"`
	Date        Date               `json:"date"`
	OpeningTime string             `json:"opening_time"`
	ClosingTime string             `json:"closing_time"`
	Slots       []SlotAvailability `json:"slots"`
}
