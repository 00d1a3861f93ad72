package service

import (
	"fmt"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
)

// NextStatus derives the status a reservation should have at now.
// It is idempotent: NextStatus(NextStatus(s)) == NextStatus(s) for the same now.
func NextStatus(current entity.ReservationStatus, w entity.Window, now time.Time) entity.ReservationStatus {
	switch current {
	case entity.ReservationStatusPending:
		// a reservation that was never activated but fully elapsed is completed, not left pending
		if w.Finished(now) {
			return entity.ReservationStatusCompleted
		}
		if w.Active(now) {
			return entity.ReservationStatusInProgress
		}
	case entity.ReservationStatusInProgress:
		if w.Finished(now) {
			return entity.ReservationStatusCompleted
		}
	}
	return current
}

// checkTransition validates an owner-initiated status change.
func checkTransition(current, target entity.ReservationStatus, w entity.Window, now time.Time) error {
	active, finished := w.Active(now), w.Finished(now)

	switch target {
	case entity.ReservationStatusPending:
		if active || finished {
			return fmt.Errorf("%w: cannot set %s for an active or finished reservation", entity.ErrIllegalTransition, target)
		}
	case entity.ReservationStatusInProgress:
		if current != entity.ReservationStatusPending {
			return fmt.Errorf("%w: %s is only reachable from %s", entity.ErrIllegalTransition, target, entity.ReservationStatusPending)
		}
		if !active {
			return fmt.Errorf("%w: cannot set %s outside of the reservation window", entity.ErrIllegalTransition, target)
		}
	case entity.ReservationStatusNoShow:
		if current != entity.ReservationStatusInProgress && !finished {
			return fmt.Errorf("%w: %s requires an in-progress or finished reservation", entity.ErrIllegalTransition, target)
		}
	case entity.ReservationStatusCompleted:
		switch {
		case current == entity.ReservationStatusInProgress:
		case current == entity.ReservationStatusPending && finished:
		default:
			return fmt.Errorf("%w: cannot complete a %s reservation now", entity.ErrIllegalTransition, current)
		}
	case entity.ReservationStatusPaymentSuccess:
	default:
		return fmt.Errorf("%w: %q", entity.ErrUnknownStatus, target)
	}
	return nil
}

// CanTransition is the predicate behind both SetReservationStatus and GetValidTransitions.
func CanTransition(current, target entity.ReservationStatus, w entity.Window, now time.Time) bool {
	return checkTransition(current, target, w, now) == nil
}

// ValidTransitions lists every status the owner may set now, excluding current.
func ValidTransitions(current entity.ReservationStatus, w entity.Window, now time.Time) []entity.ReservationStatus {
	valid := make([]entity.ReservationStatus, 0, len(entity.ReservationStatuses))
	for _, target := range entity.ReservationStatuses {
		if target != current && CanTransition(current, target, w, now) {
			valid = append(valid, target)
		}
	}
	return valid
}
