package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/gameroom/config"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Successfully connected to PostgreSQL")
	return db, nil
}

// Migrations is the schema of the service. Shop, room, device and user tables
// are owned by other services; only the columns read here are declared.
var Migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		telegram_id VARCHAR(100),
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS shops (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id),
		name VARCHAR(255) NOT NULL,
		opening_time VARCHAR(5) NOT NULL,
		closing_time VARCHAR(5) NOT NULL,
		CHECK (opening_time < closing_time)
	)`,

	`CREATE TABLE IF NOT EXISTS devices (
		id UUID PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		category VARCHAR(20) NOT NULL CHECK (category IN ('gaming', 'broadcast'))
	)`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id UUID PRIMARY KEY,
		shop_id UUID NOT NULL REFERENCES shops(id),
		device_id UUID NOT NULL REFERENCES devices(id),
		name VARCHAR(255) NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 1,
		single_rate NUMERIC(10,2),
		multi_rate NUMERIC(10,2),
		other_rate NUMERIC(10,2),
		is_available BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id UUID PRIMARY KEY,
		room_id UUID NOT NULL REFERENCES rooms(id),
		user_id UUID NOT NULL REFERENCES users(id),
		date DATE NOT NULL,
		type VARCHAR(10) NOT NULL CHECK (type IN ('single', 'multi', 'other')),
		total_price NUMERIC(10,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS reservation_slots (
		id BIGSERIAL PRIMARY KEY,
		reservation_id UUID NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
		room_id UUID NOT NULL REFERENCES rooms(id),
		date DATE NOT NULL,
		time_slot VARCHAR(5) NOT NULL,
		CONSTRAINT uq_reservation_slots_reservation_slot UNIQUE (reservation_id, time_slot),
		CONSTRAINT uq_reservation_slots_room_date_slot UNIQUE (room_id, date, time_slot)
	)`,

	`CREATE TABLE IF NOT EXISTS room_disable_periods (
		id UUID PRIMARY KEY,
		room_id UUID NOT NULL REFERENCES rooms(id),
		owner_id UUID NOT NULL REFERENCES users(id),
		start_date_time TIMESTAMPTZ NOT NULL,
		end_date_time TIMESTAMPTZ NOT NULL,
		reason TEXT,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		CHECK (end_date_time >= start_date_time + INTERVAL '30 minutes'),
		CONSTRAINT ex_room_disable_periods_overlap EXCLUDE USING gist (
			room_id WITH =,
			tstzrange(start_date_time, end_date_time, '[)') WITH &&
		)
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_reservations_user_id ON reservations(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_room_date ON reservations(room_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_status_date ON reservations(status, date)`,
	`CREATE INDEX IF NOT EXISTS idx_room_disable_periods_owner ON room_disable_periods(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_room_disable_periods_end ON room_disable_periods(end_date_time)`,
}

// RunMigrations applies the schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, migration := range Migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", i, err)
		}
	}

	logrus.WithField("migrations", len(Migrations)).Info("Database migrations completed successfully")
	return nil
}
