package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type reservationRepository struct {
	db *sql.DB
	tx Transactor
}

func NewReservationRepository(db *sql.DB) ReservationRepository {
	return &reservationRepository{db: db, tx: NewTransactor(db)}
}

const reservationColumns = `
	id, room_id, user_id, date, type, total_price, status, created_at, updated_at
`

const prefixedReservationColumns = `
	res.id, res.room_id, res.user_id, res.date, res.type, res.total_price, res.status, res.created_at, res.updated_at
`

// Create inserts the reservation and its slots atomically. A slot already
// claimed on the same room and date surfaces as entity.ErrSlotAlreadyBooked.
func (r *reservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	now := time.Now()
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = now
	}
	reservation.UpdatedAt = reservation.CreatedAt

	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, r.db)

		query := `
			INSERT INTO reservations (
				id, room_id, user_id, date, type, total_price, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := db.ExecContext(ctx, query,
			reservation.ID,
			reservation.RoomID,
			reservation.UserID,
			reservation.Date,
			reservation.Type,
			reservation.TotalPrice,
			reservation.Status,
			reservation.CreatedAt,
			reservation.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create reservation: %w", translate(err))
		}

		return r.insertSlots(ctx, reservation)
	})
}

func (r *reservationRepository) insertSlots(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		INSERT INTO reservation_slots (reservation_id, room_id, date, time_slot)
		SELECT $1, $2, $3, unnest($4::text[])
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		reservation.ID,
		reservation.RoomID,
		reservation.Date,
		pq.Array(slotStrings(reservation.Slots)),
	)
	if err != nil {
		if translated := translate(err); translated != err {
			return translated
		}
		return fmt.Errorf("failed to create reservation slots: %w", err)
	}
	return nil
}

// GetByID retrieves a reservation together with its slots
func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	if err := r.attachSlots(ctx, []*entity.Reservation{reservation}); err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *reservationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, shopID *uuid.UUID) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + prefixedReservationColumns + `
		FROM reservations res
		JOIN rooms rm ON rm.id = res.room_id
		WHERE res.user_id = $1 AND ($2::uuid IS NULL OR rm.shop_id = $2)
		ORDER BY res.date DESC, res.created_at DESC
	`
	return r.queryReservations(ctx, query, userID, nullUUID(shopID))
}

// GetByOwnerID returns reservations of every room in shops owned by ownerID.
func (r *reservationRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID, shopID *uuid.UUID) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + prefixedReservationColumns + `
		FROM reservations res
		JOIN rooms rm ON rm.id = res.room_id
		JOIN shops sh ON sh.id = rm.shop_id
		WHERE sh.owner_id = $1 AND ($2::uuid IS NULL OR sh.id = $2)
		ORDER BY res.date DESC, res.created_at DESC
	`
	return r.queryReservations(ctx, query, ownerID, nullUUID(shopID))
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// ListActiveThrough returns pending and in-progress reservations dated on or before date.
func (r *reservationRepository) ListActiveThrough(ctx context.Context, date entity.Date) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status IN ($1, $2) AND date <= $3
		ORDER BY date, created_at
	`
	return r.queryReservations(ctx, query,
		entity.ReservationStatusPending,
		entity.ReservationStatusInProgress,
		date,
	)
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update reservation status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *reservationRepository) UpdateStatusAndPrice(ctx context.Context, id uuid.UUID, status entity.ReservationStatus, totalPrice float64) error {
	query := `
		UPDATE reservations
		SET status = $1, total_price = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, status, totalPrice, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrReservationNotFound
	}
	return nil
}

func (r *reservationRepository) DeleteSlots(ctx context.Context, id uuid.UUID, slots []entity.TimeSlot) error {
	query := `
		DELETE FROM reservation_slots
		WHERE reservation_id = $1 AND time_slot = ANY($2::text[])
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, pq.Array(slotStrings(slots)))
	if err != nil {
		return fmt.Errorf("failed to delete reservation slots: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected != int64(len(slots)) {
		return fmt.Errorf("%w: expected to delete %d slots, deleted %d", entity.ErrConcurrentUpdate, len(slots), affected)
	}
	return nil
}

// FindBookedSlots intersects the requested slots with the persisted slots of the room day.
func (r *reservationRepository) FindBookedSlots(ctx context.Context, roomID uuid.UUID, date entity.Date, slots []entity.TimeSlot) ([]entity.TimeSlot, error) {
	query := `
		SELECT time_slot
		FROM reservation_slots
		WHERE room_id = $1 AND date = $2 AND time_slot = ANY($3::text[])
		ORDER BY time_slot
	`
	return r.querySlots(ctx, query, roomID, date, pq.Array(slotStrings(slots)))
}

func (r *reservationRepository) ListBookedSlots(ctx context.Context, roomID uuid.UUID, date entity.Date) ([]entity.TimeSlot, error) {
	query := `
		SELECT time_slot
		FROM reservation_slots
		WHERE room_id = $1 AND date = $2
		ORDER BY time_slot
	`
	return r.querySlots(ctx, query, roomID, date)
}

// ListSlotsBetween returns booked slots of the room for dates in [from, to].
func (r *reservationRepository) ListSlotsBetween(ctx context.Context, roomID uuid.UUID, from, to entity.Date) ([]entity.SlotRef, error) {
	query := `
		SELECT reservation_id, date, time_slot
		FROM reservation_slots
		WHERE room_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, time_slot
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, roomID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	defer rows.Close()

	var refs []entity.SlotRef
	for rows.Next() {
		var ref entity.SlotRef
		var slot string
		if err := rows.Scan(&ref.ReservationID, &ref.Date, &slot); err != nil {
			return nil, fmt.Errorf("failed to scan booked slot: %w", err)
		}
		ref.TimeSlot = entity.TimeSlot(slot)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booked slots: %w", err)
	}
	return refs, nil
}

// LockRoomDate serializes check-then-insert for one room day until the transaction ends.
func (r *reservationRepository) LockRoomDate(ctx context.Context, roomID uuid.UUID, date entity.Date) error {
	return advisoryLock(ctx, r.db, fmt.Sprintf("reservation:%s:%s", roomID, date))
}

func (r *reservationRepository) querySlots(ctx context.Context, query string, args ...interface{}) ([]entity.TimeSlot, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []entity.TimeSlot
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, entity.TimeSlot(slot))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}
	return slots, nil
}

func (r *reservationRepository) queryReservations(ctx context.Context, query string, args ...interface{}) ([]*entity.Reservation, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	if err := r.attachSlots(ctx, reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// attachSlots loads the slots of all given reservations in one query.
func (r *reservationRepository) attachSlots(ctx context.Context, reservations []*entity.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	ids := make([]string, 0, len(reservations))
	byID := make(map[uuid.UUID]*entity.Reservation, len(reservations))
	for _, res := range reservations {
		ids = append(ids, res.ID.String())
		byID[res.ID] = res
		res.Slots = res.Slots[:0]
	}

	query := `
		SELECT reservation_id, time_slot
		FROM reservation_slots
		WHERE reservation_id = ANY($1::uuid[])
		ORDER BY time_slot
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load reservation slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var slot string
		if err := rows.Scan(&id, &slot); err != nil {
			return fmt.Errorf("failed to scan reservation slot: %w", err)
		}
		if res, ok := byID[id]; ok {
			res.Slots = append(res.Slots, entity.TimeSlot(slot))
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.RoomID,
		&res.UserID,
		&res.Date,
		&res.Type,
		&res.TotalPrice,
		&res.Status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func slotStrings(slots []entity.TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = string(s)
	}
	return out
}
