package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
)

type roomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) RoomRepository {
	return &roomRepository{db: db}
}

// GetRoom retrieves a room joined with its device
func (r *roomRepository) GetRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	query := `
		SELECT
			r.id, r.shop_id, r.device_id, r.name, d.name, d.category,
			r.capacity, r.single_rate, r.multi_rate, r.other_rate, r.is_available
		FROM rooms r
		JOIN devices d ON d.id = r.device_id
		WHERE r.id = $1
	`

	var room entity.Room
	var single, multi, other sql.NullFloat64
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.ShopID,
		&room.DeviceID,
		&room.Name,
		&room.DeviceName,
		&room.DeviceCategory,
		&room.Capacity,
		&single,
		&multi,
		&other,
		&room.IsAvailable,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	room.SingleRate = nullableRate(single)
	room.MultiRate = nullableRate(multi)
	room.OtherRate = nullableRate(other)
	return &room, nil
}

func (r *roomRepository) GetShop(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	query := `
		SELECT id, owner_id, name, opening_time, closing_time
		FROM shops
		WHERE id = $1
	`

	var shop entity.Shop
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&shop.ID,
		&shop.OwnerID,
		&shop.Name,
		&shop.OpeningTime,
		&shop.ClosingTime,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return &shop, nil
}

func nullableRate(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	rate := v.Float64
	return &rate
}
