package entity

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of them,
// the transport layer maps them to HTTP status codes.
var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid input")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden operation")
)

var (
	// Lookup errors
	ErrRoomNotFound          = fmt.Errorf("room %w", ErrNotFound)
	ErrShopNotFound          = fmt.Errorf("shop %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrReservationNotFound   = fmt.Errorf("reservation %w", ErrNotFound)
	ErrDisablePeriodNotFound = fmt.Errorf("disable period %w", ErrNotFound)

	// Booking errors
	ErrInvalidTimeSlot      = fmt.Errorf("%w: invalid time slot", ErrInvalid)
	ErrDuplicateTimeSlot    = fmt.Errorf("%w: duplicate time slot", ErrInvalid)
	ErrNoSlots              = fmt.Errorf("%w: at least one time slot is required", ErrInvalid)
	ErrInvalidDate          = fmt.Errorf("%w: invalid date", ErrInvalid)
	ErrInvalidType          = fmt.Errorf("%w: invalid reservation type", ErrInvalid)
	ErrRoomUnavailable      = fmt.Errorf("%w: room is not available", ErrInvalid)
	ErrRateNotConfigured    = fmt.Errorf("%w: rate not configured", ErrInvalid)
	ErrDeviceTypeMismatch   = fmt.Errorf("%w: reservation type is not supported by the room device", ErrInvalid)
	ErrPastDate             = fmt.Errorf("%w: cannot book a past date", ErrInvalid)
	ErrSlotInPast           = fmt.Errorf("%w: time slot has already started", ErrInvalid)
	ErrSlotOutsideHours     = fmt.Errorf("%w: time slot is outside shop hours", ErrInvalid)
	ErrRoomDisabled         = fmt.Errorf("%w: room disabled", ErrInvalid)
	ErrSlotAlreadyBooked    = fmt.Errorf("%w: already booked", ErrConflict)
	ErrInvalidShopHours     = fmt.Errorf("%w: invalid shop hours", ErrInvalid)
	ErrInvalidReservationID = fmt.Errorf("%w: invalid reservation id", ErrInvalid)

	// Status errors
	ErrUnknownStatus     = fmt.Errorf("%w: unknown reservation status", ErrInvalid)
	ErrIllegalTransition = fmt.Errorf("%w: illegal status transition", ErrConflict)
	ErrConcurrentUpdate  = fmt.Errorf("%w: concurrent update detected", ErrConflict)

	// Split errors
	ErrNotInProgress     = fmt.Errorf("%w: reservation is not in progress", ErrInvalid)
	ErrNothingConsumed   = fmt.Errorf("%w: no slot has started yet", ErrInvalid)
	ErrTooFewRemaining   = fmt.Errorf("%w: at least two remaining slots are required", ErrInvalid)
	ErrInvalidSplitGroup = fmt.Errorf("%w: invalid split groups", ErrInvalid)

	// Disable period errors
	ErrPeriodTooShort    = fmt.Errorf("%w: disable period must last at least 30 minutes", ErrInvalid)
	ErrPeriodOverlap     = fmt.Errorf("%w: disable period overlaps an existing one", ErrConflict)
	ErrPeriodCoversSlots = fmt.Errorf("%w: disable period covers booked slots", ErrInvalid)

	// Authorization errors
	ErrNotShopOwner   = fmt.Errorf("%w: caller does not own the shop", ErrForbidden)
	ErrNotPeriodOwner = fmt.Errorf("%w: caller does not own the disable period", ErrForbidden)
	ErrNotParticipant = fmt.Errorf("%w: caller is neither the guest nor the shop owner", ErrForbidden)
	ErrUnauthorized   = fmt.Errorf("%w: caller identity is missing", ErrForbidden)
)
