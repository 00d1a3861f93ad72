package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
)

type disablePeriodRepository struct {
	db *sql.DB
}

func NewDisablePeriodRepository(db *sql.DB) DisablePeriodRepository {
	return &disablePeriodRepository{db: db}
}

const disablePeriodColumns = `
	id, room_id, owner_id, start_date_time, end_date_time, COALESCE(reason, ''), created_at, updated_at
`

// Create inserts a period. The exclusion constraint on the table rejects
// overlapping periods that slipped past the service check.
func (r *disablePeriodRepository) Create(ctx context.Context, period *entity.RoomDisablePeriod) error {
	if period.ID == uuid.Nil {
		period.ID = uuid.New()
	}
	now := time.Now()
	period.CreatedAt = now
	period.UpdatedAt = now

	query := `
		INSERT INTO room_disable_periods (
			id, room_id, owner_id, start_date_time, end_date_time, reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		period.ID,
		period.RoomID,
		period.OwnerID,
		period.StartDateTime,
		period.EndDateTime,
		period.Reason,
		period.CreatedAt,
		period.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create disable period: %w", translate(err))
	}
	return nil
}

func (r *disablePeriodRepository) Update(ctx context.Context, period *entity.RoomDisablePeriod) error {
	period.UpdatedAt = time.Now()

	query := `
		UPDATE room_disable_periods
		SET start_date_time = $1, end_date_time = $2, reason = NULLIF($3, ''), updated_at = $4
		WHERE id = $5
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		period.StartDateTime,
		period.EndDateTime,
		period.Reason,
		period.UpdatedAt,
		period.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update disable period: %w", translate(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrDisablePeriodNotFound
	}
	return nil
}

func (r *disablePeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM room_disable_periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete disable period: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrDisablePeriodNotFound
	}
	return nil
}

func (r *disablePeriodRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.RoomDisablePeriod, error) {
	query := `SELECT ` + disablePeriodColumns + ` FROM room_disable_periods WHERE id = $1`

	period, err := scanDisablePeriod(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrDisablePeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get disable period: %w", err)
	}
	return period, nil
}

// FindOverlapping uses the half-open test start < $end AND end > $start.
func (r *disablePeriodRepository) FindOverlapping(ctx context.Context, roomID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]*entity.RoomDisablePeriod, error) {
	query := `
		SELECT ` + disablePeriodColumns + `
		FROM room_disable_periods
		WHERE room_id = $1
			AND start_date_time < $3
			AND end_date_time > $2
			AND ($4::uuid IS NULL OR id <> $4::uuid)
		ORDER BY start_date_time
	`

	var excludeID interface{}
	if exclude != nil {
		excludeID = *exclude
	}
	return r.queryPeriods(ctx, query, roomID, start, end, excludeID)
}

func (r *disablePeriodRepository) ExistsAt(ctx context.Context, roomID uuid.UUID, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM room_disable_periods
			WHERE room_id = $1 AND start_date_time <= $2 AND end_date_time > $2
		)
	`
	var exists bool
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, roomID, at).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check disable period: %w", err)
	}
	return exists, nil
}

// ListByRoom returns current and future periods of the room.
func (r *disablePeriodRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, endingAfter time.Time) ([]*entity.RoomDisablePeriod, error) {
	query := `
		SELECT ` + disablePeriodColumns + `
		FROM room_disable_periods
		WHERE room_id = $1 AND end_date_time > $2
		ORDER BY start_date_time
	`
	return r.queryPeriods(ctx, query, roomID, endingAfter)
}

func (r *disablePeriodRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.RoomDisablePeriod, error) {
	query := `
		SELECT ` + disablePeriodColumns + `
		FROM room_disable_periods
		WHERE owner_id = $1
		ORDER BY start_date_time DESC
	`
	return r.queryPeriods(ctx, query, ownerID)
}

func (r *disablePeriodRepository) DeleteEndedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM room_disable_periods WHERE end_date_time < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired disable periods: %w", err)
	}
	return result.RowsAffected()
}

func (r *disablePeriodRepository) LockRoom(ctx context.Context, roomID uuid.UUID) error {
	return advisoryLock(ctx, r.db, roomPeriodsKey(roomID))
}

func (r *disablePeriodRepository) LockRoomShared(ctx context.Context, roomID uuid.UUID) error {
	return advisoryLockShared(ctx, r.db, roomPeriodsKey(roomID))
}

func roomPeriodsKey(roomID uuid.UUID) string {
	return fmt.Sprintf("disable_period:%s", roomID)
}

func (r *disablePeriodRepository) queryPeriods(ctx context.Context, query string, args ...interface{}) ([]*entity.RoomDisablePeriod, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query disable periods: %w", err)
	}
	defer rows.Close()

	var periods []*entity.RoomDisablePeriod
	for rows.Next() {
		period, err := scanDisablePeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan disable period: %w", err)
		}
		periods = append(periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating disable periods: %w", err)
	}
	return periods, nil
}

func scanDisablePeriod(row rowScanner) (*entity.RoomDisablePeriod, error) {
	var p entity.RoomDisablePeriod
	err := row.Scan(
		&p.ID,
		&p.RoomID,
		&p.OwnerID,
		&p.StartDateTime,
		&p.EndDateTime,
		&p.Reason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
