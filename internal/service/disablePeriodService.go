package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/ds124wfegd/gameroom/internal/database/postgres"
	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type disablePeriodService struct {
	periods      repository.DisablePeriodRepository
	reservations repository.ReservationRepository
	rooms        repository.RoomRepository
	tx           repository.Transactor
	notify       *notifier
	clock        Clock
	loc          *time.Location
}

func NewDisablePeriodService(
	periods repository.DisablePeriodRepository,
	reservations repository.ReservationRepository,
	rooms repository.RoomRepository,
	tx repository.Transactor,
	queue TaskPublisher,
	clock Clock,
	loc *time.Location,
) DisablePeriodService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &disablePeriodService{
		periods:      periods,
		reservations: reservations,
		rooms:        rooms,
		tx:           tx,
		notify:       &notifier{queue: queue},
		clock:        clock,
		loc:          loc,
	}
}

// CreateDisablePeriod requires the caller to own the shop of the room.
func (s *disablePeriodService) CreateDisablePeriod(ctx context.Context, roomID, ownerID uuid.UUID, req *DisablePeriodRequest) (*entity.RoomDisablePeriod, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	shop, err := s.rooms.GetShop(ctx, room.ShopID)
	if err != nil {
		return nil, err
	}
	if shop.OwnerID != ownerID {
		return nil, entity.ErrNotShopOwner
	}

	period := &entity.RoomDisablePeriod{
		ID:            uuid.New(),
		RoomID:        roomID,
		OwnerID:       ownerID,
		StartDateTime: req.StartDateTime,
		EndDateTime:   req.EndDateTime,
		Reason:        req.Reason,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.periods.LockRoom(ctx, roomID); err != nil {
			return err
		}
		if err := s.validate(ctx, period, nil); err != nil {
			return err
		}
		return s.periods.Create(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"period_id": period.ID,
		"room_id":   roomID,
		"start":     period.StartDateTime,
		"end":       period.EndDateTime,
	}).Info("Room disable period created")

	s.notify.disablePeriodCreated(ctx, period)
	return period, nil
}

// UpdateDisablePeriod requires the caller to own the period.
func (s *disablePeriodService) UpdateDisablePeriod(ctx context.Context, periodID, ownerID uuid.UUID, req *DisablePeriodRequest) (*entity.RoomDisablePeriod, error) {
	var period *entity.RoomDisablePeriod
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.periods.GetByID(ctx, periodID)
		if err != nil {
			return err
		}
		if p.OwnerID != ownerID {
			return entity.ErrNotPeriodOwner
		}
		if err := s.periods.LockRoom(ctx, p.RoomID); err != nil {
			return err
		}

		p.StartDateTime = req.StartDateTime
		p.EndDateTime = req.EndDateTime
		p.Reason = req.Reason
		if err := s.validate(ctx, p, &p.ID); err != nil {
			return err
		}
		if err := s.periods.Update(ctx, p); err != nil {
			return err
		}
		period = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("period_id", period.ID).Info("Room disable period updated")
	return period, nil
}

func (s *disablePeriodService) DeleteDisablePeriod(ctx context.Context, periodID, ownerID uuid.UUID) error {
	p, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return err
	}
	if p.OwnerID != ownerID {
		return entity.ErrNotPeriodOwner
	}
	if err := s.periods.Delete(ctx, periodID); err != nil {
		return err
	}

	logrus.WithField("period_id", periodID).Info("Room disable period deleted")
	return nil
}

// GetRoomDisablePeriods returns current and future periods of the room.
func (s *disablePeriodService) GetRoomDisablePeriods(ctx context.Context, roomID uuid.UUID) ([]*entity.RoomDisablePeriod, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.periods.ListByRoom(ctx, roomID, s.clock())
}

func (s *disablePeriodService) GetOwnerDisablePeriods(ctx context.Context, ownerID uuid.UUID) ([]*entity.RoomDisablePeriod, error) {
	return s.periods.ListByOwner(ctx, ownerID)
}

func (s *disablePeriodService) IsRoomDisabledAt(ctx context.Context, roomID uuid.UUID, at time.Time) (bool, error) {
	return s.periods.ExistsAt(ctx, roomID, at)
}

func (s *disablePeriodService) IsRoomDisabledDuring(ctx context.Context, roomID uuid.UUID, start, end time.Time) (bool, error) {
	periods, err := s.periods.FindOverlapping(ctx, roomID, start, end, nil)
	if err != nil {
		return false, err
	}
	return len(periods) > 0, nil
}

// CleanupExpired deletes periods that ended more than retention ago.
func (s *disablePeriodService) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	before := s.clock().Add(-retention)

	deleted, err := s.periods.DeleteEndedBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// validate checks duration, overlap with other periods and booked slots, in that order.
func (s *disablePeriodService) validate(ctx context.Context, p *entity.RoomDisablePeriod, exclude *uuid.UUID) error {
	if p.Duration() < entity.MinDisableDuration {
		return entity.ErrPeriodTooShort
	}

	overlapping, err := s.periods.FindOverlapping(ctx, p.RoomID, p.StartDateTime, p.EndDateTime, exclude)
	if err != nil {
		return fmt.Errorf("failed to check overlapping periods: %w", err)
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("%w: %s - %s", entity.ErrPeriodOverlap,
			overlapping[0].StartDateTime.Format(time.RFC3339), overlapping[0].EndDateTime.Format(time.RFC3339))
	}

	booked, err := s.reservations.ListSlotsBetween(ctx, p.RoomID,
		entity.DateOf(p.StartDateTime, s.loc), entity.DateOf(p.EndDateTime, s.loc))
	if err != nil {
		return fmt.Errorf("failed to check booked slots: %w", err)
	}
	for _, ref := range booked {
		if p.Contains(ref.Date.At(ref.TimeSlot, s.loc)) {
			return fmt.Errorf("%w: %s %s", entity.ErrPeriodCoversSlots, ref.Date, ref.TimeSlot)
		}
	}
	return nil
}
