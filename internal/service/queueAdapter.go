package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/ds124wfegd/gameroom/pkg/queue"
	"github.com/google/uuid"
)

// QueueAdapter адаптирует queue.Queue к TaskPublisher интерфейсу
type QueueAdapter struct {
	queue queue.Queue
}

// NewQueueAdapter создает новый адаптер для очереди
func NewQueueAdapter(q queue.Queue) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

// Publish публикует задачу, преобразуя service.Task в queue.Task
func (a *QueueAdapter) Publish(ctx context.Context, task *Task) error {
	if a.queue == nil {
		return nil // Если очередь не инициализирована, игнорируем
	}

	queueTask := &queue.Task{
		ID:         task.ID,
		Type:       queue.TaskType(task.Type),
		Data:       task.Data,
		ExecuteAt:  task.ExecuteAt,
		MaxRetries: task.MaxRetries,
		Attempts:   task.Attempts,
	}

	return a.queue.Publish(ctx, queueTask)
}

// RecipientDirectory resolves Telegram chats for queue.NotificationHandler.
type RecipientDirectory struct {
	users UserLookup
	rooms RoomLookup
}

// UserLookup and RoomLookup are the parts of the repositories the directory needs.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type RoomLookup interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	GetShop(ctx context.Context, id uuid.UUID) (*entity.Shop, error)
}

func NewRecipientDirectory(users UserLookup, rooms RoomLookup) *RecipientDirectory {
	return &RecipientDirectory{users: users, rooms: rooms}
}

// UserChat returns the Telegram chat of a user, empty when none is linked.
func (d *RecipientDirectory) UserChat(ctx context.Context, userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", queue.Permanent(fmt.Errorf("%w: user id %q", entity.ErrInvalid, userID))
	}
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		return "", permanentIfMissing(err)
	}
	return user.TelegramID, nil
}

// RoomOwnerChat returns the Telegram chat of the owner of the room's shop.
func (d *RecipientDirectory) RoomOwnerChat(ctx context.Context, roomID string) (string, error) {
	id, err := uuid.Parse(roomID)
	if err != nil {
		return "", queue.Permanent(fmt.Errorf("%w: room id %q", entity.ErrInvalid, roomID))
	}
	room, err := d.rooms.GetRoom(ctx, id)
	if err != nil {
		return "", permanentIfMissing(err)
	}
	shop, err := d.rooms.GetShop(ctx, room.ShopID)
	if err != nil {
		return "", permanentIfMissing(err)
	}
	return d.UserChat(ctx, shop.OwnerID.String())
}

// a deleted user or room will not come back on retry
func permanentIfMissing(err error) error {
	if errors.Is(err, entity.ErrNotFound) {
		return queue.Permanent(err)
	}
	return err
}
