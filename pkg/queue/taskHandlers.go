package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// TelegramBot интерфейс для Telegram бота
type TelegramBot interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// RecipientResolver находит Telegram чаты получателей уведомлений.
// Пустая строка означает, что чат не привязан.
type RecipientResolver interface {
	UserChat(ctx context.Context, userID string) (string, error)
	RoomOwnerChat(ctx context.Context, roomID string) (string, error)
}

// NotificationHandler обрабатывает задачи уведомлений из очереди
type NotificationHandler struct {
	bot        TelegramBot
	recipients RecipientResolver
}

// NewNotificationHandler создает новый обработчик задач
func NewNotificationHandler(bot TelegramBot, recipients RecipientResolver) *NotificationHandler {
	return &NotificationHandler{
		bot:        bot,
		recipients: recipients,
	}
}

// HandleTask обрабатывает задачу
func (h *NotificationHandler) HandleTask(ctx context.Context, task *Task) error {
	logrus.Debugf("Обработка задачи %s типа %s (попытка %d/%d)",
		task.ID, task.Type, task.Attempts, task.MaxRetries)

	switch task.Type {
	case TaskTypeReservationCreated:
		return h.handleReservationCreated(ctx, task)
	case TaskTypeReservationStatusChanged:
		return h.handleStatusChanged(ctx, task)
	case TaskTypeReservationSplit:
		return h.handleReservationSplit(ctx, task)
	case TaskTypeDisablePeriodCreated:
		return h.handleDisablePeriodCreated(ctx, task)
	default:
		return Permanent(fmt.Errorf("неизвестный тип задачи: %s", task.Type))
	}
}

// handleReservationCreated уведомляет клиента и владельца заведения
func (h *NotificationHandler) handleReservationCreated(ctx context.Context, task *Task) error {
	reservationID := task.GetString("reservation_id")
	if reservationID == "" {
		return Permanent(fmt.Errorf("неверный reservation_id в данных задачи"))
	}
	slots := strings.Join(task.GetStrings("slots"), ", ")

	userChat, err := h.recipients.UserChat(ctx, task.GetString("user_id"))
	if err != nil {
		return fmt.Errorf("не удалось найти пользователя: %w", err)
	}
	if err := h.send(ctx, userChat, fmt.Sprintf(
		"🎮 Бронирование создано!\n\n"+
			"Дата: %s\n"+
			"Слоты: %s\n"+
			"Тип: %s\n"+
			"Стоимость: %.2f\n"+
			"Номер брони: %s",
		task.GetString("date"), slots, task.GetString("type"), task.GetFloat("total_price"), reservationID,
	)); err != nil {
		return err
	}

	ownerChat, err := h.recipients.RoomOwnerChat(ctx, task.GetString("room_id"))
	if err != nil {
		return fmt.Errorf("не удалось найти владельца комнаты: %w", err)
	}
	return h.send(ctx, ownerChat, fmt.Sprintf(
		"📥 Новое бронирование\n\n"+
			"Дата: %s\n"+
			"Слоты: %s\n"+
			"Номер брони: %s",
		task.GetString("date"), slots, reservationID,
	))
}

func (h *NotificationHandler) handleStatusChanged(ctx context.Context, task *Task) error {
	userChat, err := h.recipients.UserChat(ctx, task.GetString("user_id"))
	if err != nil {
		return fmt.Errorf("не удалось найти пользователя: %w", err)
	}
	return h.send(ctx, userChat, fmt.Sprintf(
		"🔄 Статус бронирования %s изменен\n\n"+
			"Дата: %s\n"+
			"Было: %s\n"+
			"Стало: %s",
		task.GetString("reservation_id"), task.GetString("date"), task.GetString("from"), task.GetString("to"),
	))
}

func (h *NotificationHandler) handleReservationSplit(ctx context.Context, task *Task) error {
	userChat, err := h.recipients.UserChat(ctx, task.GetString("user_id"))
	if err != nil {
		return fmt.Errorf("не удалось найти пользователя: %w", err)
	}
	return h.send(ctx, userChat, fmt.Sprintf(
		"✂️ Бронирование %s разделено\n\n"+
			"Дата: %s\n"+
			"Новые брони: %s",
		task.GetString("reservation_id"), task.GetString("date"), strings.Join(task.GetStrings("created_ids"), ", "),
	))
}

func (h *NotificationHandler) handleDisablePeriodCreated(ctx context.Context, task *Task) error {
	ownerChat, err := h.recipients.RoomOwnerChat(ctx, task.GetString("room_id"))
	if err != nil {
		return fmt.Errorf("не удалось найти владельца комнаты: %w", err)
	}

	message := fmt.Sprintf(
		"⛔ Комната отключена\n\n"+
			"С: %s\n"+
			"По: %s",
		task.GetTime("start").Format("02.01.2006 15:04"),
		task.GetTime("end").Format("02.01.2006 15:04"),
	)
	if reason := task.GetString("reason"); reason != "" {
		message += "\nПричина: " + reason
	}
	return h.send(ctx, ownerChat, message)
}

func (h *NotificationHandler) send(ctx context.Context, chatID, text string) error {
	if chatID == "" || h.bot == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := h.bot.SendMessage(ctx, chatID, text); err != nil {
		return fmt.Errorf("не удалось отправить Telegram сообщение: %w", err)
	}
	logrus.Debugf("Отправлено уведомление в чат %s", chatID)
	return nil
}
