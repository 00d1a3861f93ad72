package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TaskPublisher интерфейс для публикации задач в очередь
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

// Task представляет задачу для очереди
type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	MaxRetries int                    `json:"max_retries"`
	Attempts   int                    `json:"attempts"`
}

// Константы типов задач
const (
	TaskTypeReservationCreated       = "reservation_created"
	TaskTypeReservationStatusChanged = "reservation_status_changed"
	TaskTypeReservationSplit         = "reservation_split"
	TaskTypeDisablePeriodCreated     = "disable_period_created"
)

const notificationMaxRetries = 3

// notifier publishes best-effort notifications. A nil queue disables it,
// publish failures are logged and never fail the calling operation.
type notifier struct {
	queue TaskPublisher
}

func (n *notifier) publish(ctx context.Context, taskType string, data map[string]interface{}) {
	if n == nil || n.queue == nil {
		return
	}

	task := &Task{
		ID:         fmt.Sprintf("%s_%s", taskType, uuid.NewString()),
		Type:       taskType,
		Data:       data,
		MaxRetries: notificationMaxRetries,
	}
	if err := n.queue.Publish(ctx, task); err != nil {
		logrus.WithFields(logrus.Fields{
			"task_type": taskType,
			"task_id":   task.ID,
		}).Warnf("Failed to publish notification: %v", err)
	}
}

func (n *notifier) reservationCreated(ctx context.Context, r *entity.Reservation, ownerID uuid.UUID) {
	n.publish(ctx, TaskTypeReservationCreated, map[string]interface{}{
		"reservation_id": r.ID.String(),
		"room_id":        r.RoomID.String(),
		"user_id":        r.UserID.String(),
		"owner_id":       ownerID.String(),
		"date":           r.Date.String(),
		"slots":          slotStrings(r.Slots),
		"type":           string(r.Type),
		"total_price":    r.TotalPrice,
	})
}

func (n *notifier) statusChanged(ctx context.Context, r *entity.Reservation, from entity.ReservationStatus, automatic bool) {
	n.publish(ctx, TaskTypeReservationStatusChanged, map[string]interface{}{
		"reservation_id": r.ID.String(),
		"user_id":        r.UserID.String(),
		"date":           r.Date.String(),
		"from":           string(from),
		"to":             string(r.Status),
		"automatic":      automatic,
	})
}

func (n *notifier) reservationSplit(ctx context.Context, result *entity.SplitResult) {
	created := make([]string, 0, len(result.Created))
	for _, r := range result.Created {
		created = append(created, r.ID.String())
	}
	n.publish(ctx, TaskTypeReservationSplit, map[string]interface{}{
		"reservation_id": result.Original.ID.String(),
		"user_id":        result.Original.UserID.String(),
		"date":           result.Original.Date.String(),
		"created_ids":    created,
	})
}

func (n *notifier) disablePeriodCreated(ctx context.Context, p *entity.RoomDisablePeriod) {
	n.publish(ctx, TaskTypeDisablePeriodCreated, map[string]interface{}{
		"period_id": p.ID.String(),
		"room_id":   p.RoomID.String(),
		"owner_id":  p.OwnerID.String(),
		"start":     p.StartDateTime.Format(time.RFC3339),
		"end":       p.EndDateTime.Format(time.RFC3339),
		"reason":    p.Reason,
	})
}

func slotStrings(slots []entity.TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = string(s)
	}
	return out
}
