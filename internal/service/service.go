package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
)

// Clock returns the current instant. Each operation reads it exactly once.
type Clock func() time.Time

// BookReservationRequest представляет данные для бронирования комнаты
type BookReservationRequest struct {
	RoomID uuid.UUID   `json:"room_id" binding:"required"`
	Date   entity.Date `json:"date"`
	Type   string      `json:"type" binding:"required"`
	Slots  []string    `json:"slots" binding:"required,min=1,max=48"`
}

// UpdateStatusRequest представляет запрос на смену статуса владельцем
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SplitRequest представляет запрос на разделение бронирования
type SplitRequest struct {
	Groups []entity.SplitGroup `json:"groups" binding:"required,min=2,dive"`
}

// DisablePeriodRequest is used both for create and update
type DisablePeriodRequest struct {
	StartDateTime time.Time `json:"start_date_time" binding:"required"`
	EndDateTime   time.Time `json:"end_date_time" binding:"required"`
	Reason        string    `json:"reason" binding:"max=500"`
}

// ReservationService определяет интерфейс для операций с бронированиями
type ReservationService interface {
	// Основные операции
	BookReservation(ctx context.Context, req *BookReservationRequest, userID uuid.UUID) (*entity.Reservation, error)
	GetReservation(ctx context.Context, id, callerID uuid.UUID) (*entity.Reservation, error)
	GetUserReservations(ctx context.Context, userID uuid.UUID, filter entity.ReservationFilter) ([]*entity.Reservation, error)
	GetRoomAvailability(ctx context.Context, roomID uuid.UUID, date entity.Date) (*entity.RoomDayAvailability, error)

	// Операции владельца
	ListOwnerReservations(ctx context.Context, ownerID uuid.UUID, filter entity.ReservationFilter) ([]*entity.Reservation, error)
	SetReservationStatus(ctx context.Context, id uuid.UUID, status string, ownerID uuid.UUID) (*entity.Reservation, error)
	GetValidTransitions(ctx context.Context, id, ownerID uuid.UUID) ([]entity.ReservationStatus, error)
	GetRemainingSlots(ctx context.Context, id, ownerID uuid.UUID) (*entity.RemainingSlotsView, error)
	SplitReservation(ctx context.Context, id, ownerID uuid.UUID, groups []entity.SplitGroup) (*entity.SplitResult, error)

	// Операции по времени
	SweepStatuses(ctx context.Context) (int, error)
}

// DisablePeriodService owns the disable period index of every room
type DisablePeriodService interface {
	CreateDisablePeriod(ctx context.Context, roomID, ownerID uuid.UUID, req *DisablePeriodRequest) (*entity.RoomDisablePeriod, error)
	UpdateDisablePeriod(ctx context.Context, periodID, ownerID uuid.UUID, req *DisablePeriodRequest) (*entity.RoomDisablePeriod, error)
	DeleteDisablePeriod(ctx context.Context, periodID, ownerID uuid.UUID) error
	GetRoomDisablePeriods(ctx context.Context, roomID uuid.UUID) ([]*entity.RoomDisablePeriod, error)
	GetOwnerDisablePeriods(ctx context.Context, ownerID uuid.UUID) ([]*entity.RoomDisablePeriod, error)

	IsRoomDisabledAt(ctx context.Context, roomID uuid.UUID, at time.Time) (bool, error)
	IsRoomDisabledDuring(ctx context.Context, roomID uuid.UUID, start, end time.Time) (bool, error)

	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}
