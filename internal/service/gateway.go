package service

import (
	"context"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/model"
)

// NotifyKind вид исходящего уведомления
type NotifyKind string

const (
	NotifySlotOpened       NotifyKind = "slot_opened"       // Открылась запись на тренировку
	NotifyWaitlistPromoted NotifyKind = "waitlist_promoted" // Бронь поднята из списка ожидания
)

// Notification типизированное содержимое уведомления.
// Текст сообщения собирает сам шлюз, ядро строк не формирует.
type Notification struct {
	Kind       NotifyKind
	EntityType model.EntityType
	EntityID   int64
	Title      string
	StartsAt   time.Time
}

// Gateway канал доставки сообщений пользователям. Реализуется
// телеграм-контроллером; ядро не знает про транспорт.
type Gateway interface {
	Notify(ctx context.Context, userID int64, n Notification) error
}
