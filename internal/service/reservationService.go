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

type reservationService struct {
	reservations repository.ReservationRepository
	periods      repository.DisablePeriodRepository
	rooms        repository.RoomRepository
	users        repository.UserRepository
	tx           repository.Transactor
	checker      *availabilityChecker
	notify       *notifier
	clock        Clock
	loc          *time.Location
}

// NewReservationService создает новый экземпляр ReservationService
func NewReservationService(
	reservations repository.ReservationRepository,
	periods repository.DisablePeriodRepository,
	rooms repository.RoomRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	queue TaskPublisher,
	clock Clock,
	loc *time.Location,
) ReservationService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &reservationService{
		reservations: reservations,
		periods:      periods,
		rooms:        rooms,
		users:        users,
		tx:           tx,
		checker: &availabilityChecker{
			rooms:        rooms,
			reservations: reservations,
			periods:      periods,
			loc:          loc,
		},
		notify: &notifier{queue: queue},
		clock:  clock,
		loc:    loc,
	}
}

// BookReservation проверяет доступность и создает бронирование со слотами в одной транзакции
func (s *reservationService) BookReservation(ctx context.Context, req *BookReservationRequest, userID uuid.UUID) (*entity.Reservation, error) {
	now := s.clock()

	t, err := entity.ParseReservationType(req.Type)
	if err != nil {
		return nil, err
	}
	slots, err := entity.ParseTimeSlots(req.Slots)
	if err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, entity.ErrInvalidDate
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при проверке пользователя: %w", err)
	}
	if !exists {
		return nil, entity.ErrUserNotFound
	}

	var (
		reservation *entity.Reservation
		ownerID     uuid.UUID
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockRoomDay(ctx, req.RoomID, req.Date); err != nil {
			return err
		}

		checked, err := s.checker.Check(ctx, req.RoomID, req.Date, t, slots, now)
		if err != nil {
			return err
		}

		reservation = &entity.Reservation{
			ID:         uuid.New(),
			RoomID:     req.RoomID,
			UserID:     userID,
			Date:       req.Date,
			Type:       t,
			TotalPrice: checked.TotalPrice,
			Status:     entity.ReservationStatusPending,
			Slots:      checked.Slots,
			CreatedAt:  now,
		}
		if err := s.reservations.Create(ctx, reservation); err != nil {
			return err
		}

		reservation.Room = checked.Room
		ownerID = checked.Shop.OwnerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reservation_id": reservation.ID,
		"room_id":        reservation.RoomID,
		"date":           reservation.Date.String(),
		"slots":          len(reservation.Slots),
		"total_price":    reservation.TotalPrice,
	}).Info("Reservation created")

	s.notify.reservationCreated(ctx, reservation, ownerID)
	return reservation, nil
}

// GetReservation returns the reservation with its status refreshed against the clock.
// Only the guest and the shop owner may read it.
func (s *reservationService) GetReservation(ctx context.Context, id, callerID uuid.UUID) (*entity.Reservation, error) {
	now := s.clock()

	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	room, shop, err := s.roomAndShop(ctx, reservation)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != callerID && shop.OwnerID != callerID {
		return nil, entity.ErrNotParticipant
	}

	if _, err := s.refresh(ctx, reservation, now); err != nil {
		return nil, err
	}
	reservation.Room = room
	return reservation, nil
}

// GetUserReservations возвращает бронирования пользователя с актуальными статусами
func (s *reservationService) GetUserReservations(ctx context.Context, userID uuid.UUID, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	now := s.clock()

	reservations, err := s.reservations.GetByUserID(ctx, userID, filter.ShopID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении бронирований пользователя: %w", err)
	}
	return s.refreshAll(ctx, reservations, filter, now)
}

// ListOwnerReservations returns reservations of every room in the owner's shops.
func (s *reservationService) ListOwnerReservations(ctx context.Context, ownerID uuid.UUID, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	now := s.clock()

	reservations, err := s.reservations.GetByOwnerID(ctx, ownerID, filter.ShopID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении бронирований владельца: %w", err)
	}
	return s.refreshAll(ctx, reservations, filter, now)
}

// refreshAll brings statuses up to date before the status filter runs,
// the stored status may lag behind the clock.
func (s *reservationService) refreshAll(ctx context.Context, reservations []*entity.Reservation, filter entity.ReservationFilter, now time.Time) ([]*entity.Reservation, error) {
	out := make([]*entity.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if _, err := s.refresh(ctx, r, now); err != nil {
			return nil, err
		}
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *reservationService) GetRoomAvailability(ctx context.Context, roomID uuid.UUID, date entity.Date) (*entity.RoomDayAvailability, error) {
	if date.IsZero() {
		return nil, entity.ErrInvalidDate
	}
	return s.checker.dayAvailability(ctx, roomID, date, s.clock())
}

// SetReservationStatus applies an owner-initiated transition. It does not
// refresh the stored status first, so it follows the same rules as GetValidTransitions.
func (s *reservationService) SetReservationStatus(ctx context.Context, id uuid.UUID, status string, ownerID uuid.UUID) (*entity.Reservation, error) {
	now := s.clock()

	reservation, room, err := s.ownedReservation(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	target, err := entity.ParseReservationStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, status)
	}

	if err := checkTransition(reservation.Status, target, reservation.Window(s.loc), now); err != nil {
		return nil, err
	}

	previous := reservation.Status
	if target != previous {
		ok, err := s.reservations.UpdateStatus(ctx, reservation.ID, previous, target)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, entity.ErrConcurrentUpdate
		}
		reservation.Status = target

		logrus.WithFields(logrus.Fields{
			"reservation_id": reservation.ID,
			"from":           previous,
			"to":             target,
			"owner_id":       ownerID,
		}).Info("Reservation status updated by owner")

		s.notify.statusChanged(ctx, reservation, previous, false)
	}

	reservation.Room = room
	return reservation, nil
}

func (s *reservationService) GetValidTransitions(ctx context.Context, id, ownerID uuid.UUID) ([]entity.ReservationStatus, error) {
	now := s.clock()

	reservation, _, err := s.ownedReservation(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return ValidTransitions(reservation.Status, reservation.Window(s.loc), now), nil
}

func (s *reservationService) GetRemainingSlots(ctx context.Context, id, ownerID uuid.UUID) (*entity.RemainingSlotsView, error) {
	now := s.clock()

	reservation, _, err := s.ownedReservation(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return remainingView(reservation, s.loc, now), nil
}

// SplitReservation converts the unconsumed tail of an in-progress reservation
// into new reservations. Everything after validation runs in one transaction.
func (s *reservationService) SplitReservation(ctx context.Context, id, ownerID uuid.UUID, groups []entity.SplitGroup) (*entity.SplitResult, error) {
	now := s.clock()

	var result *entity.SplitResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		reservation, room, err := s.ownedReservation(ctx, id, ownerID)
		if err != nil {
			return err
		}

		if err := s.lockRoomDay(ctx, reservation.RoomID, reservation.Date); err != nil {
			return err
		}
		// re-read under the lock
		reservation, err = s.reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}

		consumed, remaining := PartitionSlots(reservation.Date, reservation.Slots, s.loc, now)
		if err := canSplit(reservation.Status, consumed, remaining); err != nil {
			return err
		}

		slices, err := planSplit(remaining, groups)
		if err != nil {
			return err
		}
		prices := make([]float64, len(groups))
		for i, g := range groups {
			if _, err := entity.ParseReservationType(string(g.Type)); err != nil {
				return fmt.Errorf("%w: group %d", err, i)
			}
			rate, err := checkRoomType(room, g.Type)
			if err != nil {
				return fmt.Errorf("group %d: %w", i, err)
			}
			prices[i] = price(rate, g.SlotCount)
		}
		originalRate, ok := room.RateFor(reservation.Type)
		if !ok {
			return fmt.Errorf("%w: %s", entity.ErrRateNotConfigured, reservation.Type)
		}

		// shrink the original
		if err := s.reservations.DeleteSlots(ctx, reservation.ID, remaining); err != nil {
			return err
		}
		shrunkPrice := price(originalRate, len(consumed))
		if err := s.reservations.UpdateStatusAndPrice(ctx, reservation.ID, entity.ReservationStatusCompleted, shrunkPrice); err != nil {
			return err
		}
		reservation.Slots = consumed
		reservation.Status = entity.ReservationStatusCompleted
		reservation.TotalPrice = shrunkPrice
		reservation.Room = room

		created := make([]*entity.Reservation, 0, len(groups))
		for i, g := range groups {
			r := &entity.Reservation{
				ID:         uuid.New(),
				RoomID:     reservation.RoomID,
				UserID:     reservation.UserID,
				Date:       reservation.Date,
				Type:       g.Type,
				TotalPrice: prices[i],
				Status:     entity.ReservationStatusInProgress,
				Slots:      slices[i],
				CreatedAt:  now,
			}
			if err := s.reservations.Create(ctx, r); err != nil {
				return err
			}
			r.Room = room
			created = append(created, r)
		}

		result = &entity.SplitResult{Original: reservation, Created: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reservation_id": result.Original.ID,
		"consumed":       len(result.Original.Slots),
		"created":        len(result.Created),
	}).Info("Reservation split")

	s.notify.reservationSplit(ctx, result)
	return result, nil
}

// SweepStatuses advances every pending or in-progress reservation dated today or earlier.
func (s *reservationService) SweepStatuses(ctx context.Context) (int, error) {
	now := s.clock()

	reservations, err := s.reservations.ListActiveThrough(ctx, entity.DateOf(now, s.loc))
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении активных бронирований: %w", err)
	}

	changed, failed := 0, 0
	for _, r := range reservations {
		select {
		case <-ctx.Done():
			return changed, ctx.Err()
		default:
		}

		ok, err := s.refresh(ctx, r, now)
		if err != nil {
			logrus.WithField("reservation_id", r.ID).Errorf("Failed to refresh reservation status: %v", err)
			failed++
			continue
		}
		if ok {
			changed++
		}
	}

	if changed > 0 || failed > 0 {
		logrus.WithFields(logrus.Fields{
			"checked": len(reservations),
			"changed": changed,
			"failed":  failed,
		}).Info("Reservation status sweep completed")
	}
	return changed, nil
}

// refresh persists the time-derived status when it differs from the stored one.
func (s *reservationService) refresh(ctx context.Context, r *entity.Reservation, now time.Time) (bool, error) {
	next := NextStatus(r.Status, r.Window(s.loc), now)
	if next == r.Status {
		return false, nil
	}

	ok, err := s.reservations.UpdateStatus(ctx, r.ID, r.Status, next)
	if err != nil {
		return false, err
	}
	if !ok {
		// someone else moved it first
		fresh, err := s.reservations.GetByID(ctx, r.ID)
		if err != nil {
			return false, err
		}
		r.Status = fresh.Status
		return false, nil
	}

	previous := r.Status
	r.Status = next
	s.notify.statusChanged(ctx, r, previous, true)
	return true, nil
}

// lockRoomDay serializes slot changes of one room day. The shared room lock
// orders them against disable period changes of the same room.
func (s *reservationService) lockRoomDay(ctx context.Context, roomID uuid.UUID, date entity.Date) error {
	if err := s.periods.LockRoomShared(ctx, roomID); err != nil {
		return err
	}
	return s.reservations.LockRoomDate(ctx, roomID, date)
}

// ownedReservation loads the reservation and checks that ownerID owns its shop.
func (s *reservationService) ownedReservation(ctx context.Context, id, ownerID uuid.UUID) (*entity.Reservation, *entity.Room, error) {
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	room, shop, err := s.roomAndShop(ctx, reservation)
	if err != nil {
		return nil, nil, err
	}
	if shop.OwnerID != ownerID {
		return nil, nil, entity.ErrNotShopOwner
	}
	return reservation, room, nil
}

func (s *reservationService) roomAndShop(ctx context.Context, r *entity.Reservation) (*entity.Room, *entity.Shop, error) {
	room, err := s.rooms.GetRoom(ctx, r.RoomID)
	if err != nil {
		return nil, nil, err
	}
	shop, err := s.rooms.GetShop(ctx, room.ShopID)
	if err != nil {
		return nil, nil, err
	}
	return room, shop, nil
}
