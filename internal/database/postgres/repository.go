package repository

import (
	"context"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
)

// Transactor runs fn inside one database transaction. Repositories called
// with the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ReservationRepository interface {
	// Basic operations
	Create(ctx context.Context, reservation *entity.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	// Listings; a non-nil shopID keeps only rooms of that shop.
	GetByUserID(ctx context.Context, userID uuid.UUID, shopID *uuid.UUID) ([]*entity.Reservation, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID, shopID *uuid.UUID) ([]*entity.Reservation, error)

	// UpdateStatus is a compare-and-set: it only changes rows still in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus) (bool, error)
	UpdateStatusAndPrice(ctx context.Context, id uuid.UUID, status entity.ReservationStatus, totalPrice float64) error
	DeleteSlots(ctx context.Context, id uuid.UUID, slots []entity.TimeSlot) error

	// Slot queries
	FindBookedSlots(ctx context.Context, roomID uuid.UUID, date entity.Date, slots []entity.TimeSlot) ([]entity.TimeSlot, error)
	ListBookedSlots(ctx context.Context, roomID uuid.UUID, date entity.Date) ([]entity.TimeSlot, error)
	ListSlotsBetween(ctx context.Context, roomID uuid.UUID, from, to entity.Date) ([]entity.SlotRef, error)

	// Sweep operations
	ListActiveThrough(ctx context.Context, date entity.Date) ([]*entity.Reservation, error)

	// Locking operations for concurrency control.
	// Callers take DisablePeriodRepository.LockRoomShared first.
	LockRoomDate(ctx context.Context, roomID uuid.UUID, date entity.Date) error
}

type DisablePeriodRepository interface {
	Create(ctx context.Context, period *entity.RoomDisablePeriod) error
	Update(ctx context.Context, period *entity.RoomDisablePeriod) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.RoomDisablePeriod, error)

	// FindOverlapping returns periods of the room intersecting [start, end).
	// A non-nil exclude is skipped.
	FindOverlapping(ctx context.Context, roomID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]*entity.RoomDisablePeriod, error)
	ExistsAt(ctx context.Context, roomID uuid.UUID, at time.Time) (bool, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID, endingAfter time.Time) ([]*entity.RoomDisablePeriod, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.RoomDisablePeriod, error)
	DeleteEndedBefore(ctx context.Context, before time.Time) (int64, error)

	// LockRoom is held exclusively while periods of the room change.
	// LockRoomShared is held by bookings and splits so they never commit a slot
	// that a concurrent period creation has already validated as free.
	LockRoom(ctx context.Context, roomID uuid.UUID) error
	LockRoomShared(ctx context.Context, roomID uuid.UUID) error
}

// RoomRepository reads shop and room master data owned by other services.
type RoomRepository interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	GetShop(ctx context.Context, id uuid.UUID) (*entity.Shop, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
