package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/mbazhenoff/trainings_bot/internal/controller/format"
	"github.com/mbazhenoff/trainings_bot/internal/service"
)

// Notifier доставляет уведомления ядра пользователям. Текст собирается
// здесь: ядро оперирует типизированными событиями, а не строками.
type Notifier struct {
	bot      *bot.Bot
	location *time.Location
}

func NewNotifier(botInstance *bot.Bot, location *time.Location) *Notifier {
	return &Notifier{
		bot:      botInstance,
		location: location,
	}
}

// Notify реализует service.Gateway
func (n *Notifier) Notify(ctx context.Context, userID int64, note service.Notification) error {
	var text string

	switch note.Kind {
	case service.NotifySlotOpened:
		text = fmt.Sprintf("🔔 Открылась запись на тренировку %s", format.DateTime(note.StartsAt, n.location))
		if note.Title != "" {
			text += " · " + note.Title
		}
		text += "!\n/trainings — записаться"
	case service.NotifyWaitlistPromoted:
		text = fmt.Sprintf("🎉 Место освободилось! Вы записаны: «%s» %s",
			note.Title, format.DateTime(note.StartsAt, n.location))
	default:
		return fmt.Errorf("unknown notification kind %q", note.Kind)
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	return nil
}
