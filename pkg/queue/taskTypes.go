package queue

import (
	"context"
)

// Queue интерфейс очереди
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}

// Handler processes one task. Returning an error schedules a retry
// unless the error is marked permanent.
type Handler func(ctx context.Context, task *Task) error

type TaskType string

const (
	TaskTypeReservationCreated       TaskType = "reservation_created"
	TaskTypeReservationStatusChanged TaskType = "reservation_status_changed"
	TaskTypeReservationSplit         TaskType = "reservation_split"
	TaskTypeDisablePeriodCreated     TaskType = "disable_period_created"
)
