package callbacks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/mbazhenoff/trainings_bot/internal/controller/format"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/service"
	"go.uber.org/zap"
)

func entityFromCallback(data, prefix string) (model.EntityType, int64) {
	id, _ := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if strings.Contains(prefix, "train") {
		return model.EntityTraining, id
	}
	return model.EntityTournament, id
}

// outcomeMessage превращает ожидаемый исход записи в текст для пользователя.
// Это не сбои: каждый из них — нормальный ответ движка.
func outcomeMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrTooEarly):
		return "⏳ Запись ещё не открылась", true
	case errors.Is(err, service.ErrClosed):
		return "🔒 Запись уже закрыта", true
	case errors.Is(err, service.ErrFull):
		return "😔 Свободных мест нет", true
	case errors.Is(err, service.ErrAlreadyEnrolled), errors.Is(err, service.ErrDuplicateActiveBooking):
		return "Вы уже записаны", true
	case errors.Is(err, service.ErrNotEnrolled):
		return "Вы не записаны", true
	case errors.Is(err, service.ErrCancelWindowClosed):
		return "🔒 Отменять запись уже поздно", true
	case errors.Is(err, service.ErrNotYourGroup):
		return "Это событие не для вашей группы", true
	case errors.Is(err, service.ErrEntityNotFound):
		return "Событие не найдено или отменено", true
	case errors.Is(err, service.ErrUserNotFound):
		return "Сначала отправьте /start", true
	}
	return "", false
}

func (h *Handler) handleJoin(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, entityType model.EntityType, entityID int64) {
	booking, err := h.enrollment.Join(ctx, callback.From.ID, entityType, entityID, time.Now())
	if err != nil {
		h.replyOutcome(ctx, b, callback, err, "join")
		return
	}

	if booking.Status == model.BookingStatusWaitlist {
		answerAlert(ctx, b, callback.ID, "⏳ Мест нет, вы в списке ожидания. Сообщим, когда место освободится.")
		return
	}
	answer(ctx, b, callback.ID, "✅ Вы записаны!")
	h.sendStatus(ctx, b, callback, entityType, entityID)
}

func (h *Handler) handleSecondSeat(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, entityType model.EntityType, entityID int64) {
	_, err := h.enrollment.JoinSecondSeat(ctx, callback.From.ID, entityType, entityID, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrAlreadyEnrolled) {
			answerAlert(ctx, b, callback.ID, "Второе место уже занято или бронь в списке ожидания")
			return
		}
		h.replyOutcome(ctx, b, callback, err, "second seat")
		return
	}

	answer(ctx, b, callback.ID, "✅ Второе место за вами!")
	h.sendStatus(ctx, b, callback, entityType, entityID)
}

func (h *Handler) handleLeave(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, entityType model.EntityType, entityID int64) {
	outcome, err := h.enrollment.Leave(ctx, callback.From.ID, entityType, entityID, time.Now())
	if err != nil {
		h.replyOutcome(ctx, b, callback, err, "leave")
		return
	}

	if outcome.SeatReleased {
		answer(ctx, b, callback.ID, "Место спутника освобождено, ваша запись осталась")
	} else {
		answer(ctx, b, callback.ID, "Запись отменена")
	}
	h.sendStatus(ctx, b, callback, entityType, entityID)
}

func (h *Handler) handleNotifyToggle(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, enabled bool) {
	if err := h.users.SetNotifyOnOpen(ctx, callback.From.ID, enabled); err != nil {
		h.logger.Error("Failed to toggle notifications", zap.Error(err))
		answerAlert(ctx, b, callback.ID, "Что-то пошло не так, попробуйте ещё раз")
		return
	}

	if enabled {
		answer(ctx, b, callback.ID, "🔔 Уведомления об открытии записи включены")
	} else {
		answer(ctx, b, callback.ID, "🔕 Уведомления выключены")
	}
}

// replyOutcome отвечает на callback: ожидаемый исход показывается как есть,
// сбой хранилища логируется и превращается в «попробуйте ещё раз»
func (h *Handler) replyOutcome(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, err error, op string) {
	if text, ok := outcomeMessage(err); ok {
		answerAlert(ctx, b, callback.ID, text)
		return
	}

	h.logger.Error("Enrollment operation failed",
		zap.String("op", op),
		zap.Int64("user_id", callback.From.ID),
		zap.Error(err))
	answerAlert(ctx, b, callback.ID, "Что-то пошло не так, попробуйте ещё раз")
}

// sendStatus шлёт свежие счётчики события после действия пользователя
func (h *Handler) sendStatus(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, entityType model.EntityType, entityID int64) {
	chat := chatID(callback)
	if chat == 0 {
		return
	}

	status, err := h.enrollment.Status(ctx, entityType, entityID)
	if err != nil {
		return
	}

	text := fmt.Sprintf("%s %s — %s",
		format.DateTime(status.StartsAt, h.location),
		status.Title,
		format.FreeSeats(status.SeatsFree, status.Capacity))
	if status.WaitlistLimit > 0 && status.WaitlistDepth > 0 {
		text += fmt.Sprintf("\n⏳ В списке ожидания: %d %s", status.WaitlistDepth, format.People(status.WaitlistDepth))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chat,
		Text:   text,
	})
}
