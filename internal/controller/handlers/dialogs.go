package handlers

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
	"github.com/mbazhenoff/trainings_bot/internal/controller/state"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/service"
	"github.com/mbazhenoff/trainings_bot/internal/timewindow"
	"go.uber.org/zap"
)

// HandleTextMessage ведёт многошаговые диалоги администратора.
// Какой шаг сейчас — определяет тип состояния, а не содержимое сообщения.
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	// Команды обрабатываются своими хендлерами
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	switch st := h.states.Get(userID).(type) {
	case nil:
		// Диалога нет, свободный текст боту не нужен
	case state.GuestNameEntry:
		h.finishGuestBooking(ctx, b, chatID, userID, st, text)
	case state.GroupCreation:
		h.finishGroupCreation(ctx, b, chatID, userID, text)
	case state.SlotCreation:
		h.finishSlotCreation(ctx, b, chatID, userID, st, text)
	case state.ScheduleCreation:
		h.finishScheduleCreation(ctx, b, chatID, userID, st, text)
	case state.CapacityAdd:
		h.finishCapacityAdd(ctx, b, chatID, userID, st, text)
	case state.GroupSettingsEdit:
		h.finishGroupSettings(ctx, b, chatID, userID, st, text)
	case state.TournamentCreation:
		h.stepTournamentCreation(ctx, b, chatID, userID, st, text)
	case state.PaymentSettingsEdit:
		h.stepPaymentSettings(ctx, b, chatID, userID, st, text)
	}
}

func (h *Handlers) finishGuestBooking(ctx context.Context, b *bot.Bot, chatID, userID int64, st state.GuestNameEntry, name string) {
	booking, err := h.enrollment.AdminBook(ctx, st.EntityType, st.EntityID, name)
	if err != nil {
		h.dialogFail(ctx, b, chatID, "admin book", err)
		return
	}

	h.states.Clear(userID)
	h.send(ctx, b, chatID, fmt.Sprintf("✅ Гость «%s» записан (бронь №%d).", name, booking.ID))
}

func (h *Handlers) finishGroupCreation(ctx context.Context, b *bot.Bot, chatID, userID int64, title string) {
	group, err := h.admin.CreateGroup(ctx, title)
	if err != nil {
		h.dialogFail(ctx, b, chatID, "create group", err)
		return
	}

	h.states.Clear(userID)
	h.send(ctx, b, chatID, fmt.Sprintf("✅ Группа «%s» создана. Теперь создайте ссылку-приглашение через /admin.", group.Title))
}

// parseSlotLine разбирает «ДД.ММ.ГГГГ ЧЧ:ММ вместимость [заметка]»
func (h *Handlers) parseSlotLine(text string) (time.Time, int, string, error) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return time.Time{}, 0, "", fmt.Errorf("expected at least 3 fields")
	}

	startsAt, err := time.ParseInLocation("02.01.2006 15:04", parts[0]+" "+parts[1], h.location)
	if err != nil {
		return time.Time{}, 0, "", err
	}

	capacity, err := strconv.Atoi(parts[2])
	if err != nil || capacity < 1 {
		return time.Time{}, 0, "", fmt.Errorf("invalid capacity %q", parts[2])
	}

	return startsAt, capacity, strings.Join(parts[3:], " "), nil
}

func (h *Handlers) finishSlotCreation(ctx context.Context, b *bot.Bot, chatID, userID int64, st state.SlotCreation, text string) {
	startsAt, capacity, note, err := h.parseSlotLine(text)
	if err != nil {
		h.send(ctx, b, chatID, "Не понял. Нужно: «ДД.ММ.ГГГГ ЧЧ:ММ вместимость [заметка]», например 05.09.2026 19:00 8")
		return
	}

	slot, err := h.admin.CreateTrainingSlot(ctx, st.GroupID, startsAt, capacity, note)
	if err != nil {
		h.dialogFail(ctx, b, chatID, "create slot", err)
		return
	}

	h.states.Clear(userID)
	h.send(ctx, b, chatID, fmt.Sprintf("✅ Тренировка %s на %d %s создана.",
		format.DateTimeFull(slot.StartsAt, h.location), capacity, format.Seats(capacity)))
}

func (h *Handlers) finishScheduleCreation(ctx context.Context, b *bot.Bot, chatID, userID int64, st state.ScheduleCreation, text string) {
	var entries []*model.WeeklySchedule
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 3 {
			h.send(ctx, b, chatID, fmt.Sprintf("Не понял строку «%s». Нужно: «день ЧЧ:ММ вместимость [заметка]», например: пн 19:00 8", line))
			return
		}

		weekday, ok := format.ParseWeekday(strings.ToLower(parts[0]))
		if !ok {
			h.send(ctx, b, chatID, fmt.Sprintf("Не понял день недели «%s». Жду пн, вт, ср, чт, пт, сб или вс.", parts[0]))
			return
		}

		capacity, err := strconv.Atoi(parts[2])
		if err != nil || capacity < 1 {
			h.send(ctx, b, chatID, fmt.Sprintf("Не понял вместимость «%s».", parts[2]))
			return
		}

		entries = append(entries, &model.WeeklySchedule{
			Weekday:   weekday,
			StartTime: parts[1],
			Capacity:  capacity,
			Note:      strings.Join(parts[3:], " "),
		})
	}

	if len(entries) == 0 {
		h.send(ctx, b, chatID, "Пустой шаблон. Отправьте хотя бы одну строку.")
		return
	}

	if _, err := h.admin.CreateWeeklySchedule(ctx, st.GroupID, entries); err != nil {
		h.dialogFail(ctx, b, chatID, "create weekly schedule", err)
		return
	}

	// Сразу материализуем слоты, не дожидаясь суточного прогона
	created, err := h.admin.GenerateSlots(ctx, time.Now(), 4)
	if err != nil {
		h.logger.Error("Failed to generate slots after schedule creation", zap.Error(err))
	}

	h.states.Clear(userID)
	h.send(ctx, b, chatID, fmt.Sprintf("✅ Шаблон сохранён, создано %d тренировок на месяц вперёд.", created))
}

func (h *Handlers) finishCapacityAdd(ctx context.Context, b *bot.Bot, chatID, userID int64, st state.CapacityAdd, text string) {
	delta, err := strconv.Atoi(text)
	if err != nil || delta < 1 {
		h.send(ctx, b, chatID, "Введите положительное число.")
		return
	}

	capacity, err := h.admin.AddSlotCapacity(ctx, st.SlotID, delta)
	if err != nil {
		h.dialogFail(ctx, b, chatID, "add capacity", err)
		return
	}

	h.states.Clear(userID)
	h.send(ctx, b, chatID, fmt.Sprintf("✅ Теперь на тренировке %d %s.", capacity, format.Seats(capacity)))
}

// parseSettingsLine разбирает «дни ЧЧ:ММ минуты-закрытия минуты-отмены».
// Нулевое закрытие — запись открыта до момента начала.
func parseSettingsLine(text string) (model.GroupSettings, error) {
	parts := strings.Fields(text)
	if len(parts) != 4 {
		return model.GroupSettings{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}

	days, err := strconv.Atoi(parts[0])
	if err != nil || days < 0 {
		return model.GroupSettings{}, fmt.Errorf("invalid open days %q", parts[0])
	}

	if _, _, err := timewindow.ParseTimeOfDay(parts[1]); err != nil {
		return model.GroupSettings{}, err
	}

	closeMin, err := strconv.Atoi(parts[2])
	if err != nil || closeMin < 0 {
		return model.GroupSettings{}, fmt.Errorf("invalid close minutes %q", parts[2])
	}

	cancelMin, err := strconv.Atoi(parts[3])
	if err != nil || cancelMin < 0 {
		return model.GroupSettings{}, fmt.Errorf("invalid cancel minutes %q", parts[3])
	}

	settings := model.GroupSettings{
		OpenDaysBefore:      days,
		OpenTime:            parts[1],
		CloseMode:           model.CloseAtStart,
		CancelMinutesBefore: cancelMin,
	}
	if closeMin > 0 {
		settings.CloseMode = model.CloseMinutesBefore
		settings.CloseMinutesBefore = closeMin
	}
	return settings, nil
}

func (h *Handlers) finishGroupSettings(ctx context.Context, b *bot.Bot, chatID, userID int64, st state.GroupSettingsEdit, text string) {
	settings, err := parseSettingsLine(text)
	if err != nil {
		h.send(ctx, b, chatID, "Не понял. Нужно: «дни ЧЧ:ММ минуты-закрытия минуты-отмены», например 2 10:00 0 360")
		return
	}
	settings.GroupID = st.GroupID

	if err := h.admin.UpdateGroupSettings(ctx, &settings); err != nil {
		h.dialogFail(ctx, b, chatID, "update group settings", err)
		return
	}

	h.states.Clear(userID)
	h.send(ctx, b, chatID, "✅ "+format.WindowRules(&settings))
}

func (h *Handlers) stepTournamentCreation(ctx context.Context, b *bot.Bot, chatID, userID int64, st state.TournamentCreation, text string) {
	switch st.Step {
	case state.TournamentGroups:
		var ids []int64
		for _, part := range strings.Split(text, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				h.send(ctx, b, chatID, "Введите номера групп через запятую, например: 1,2")
				return
			}
			ids = append(ids, id)
		}
		st.GroupIDs = ids
		st.Step = state.TournamentTitle
		h.states.Set(userID, st)
		h.send(ctx, b, chatID, "Название турнира?")

	case state.TournamentTitle:
		st.Draft.Title = text
		st.Step = state.TournamentStartsAt
		h.states.Set(userID, st)
		h.send(ctx, b, chatID, "Когда начало? «ДД.ММ.ГГГГ ЧЧ:ММ», например 20.09.2026 11:00")

	case state.TournamentStartsAt:
		startsAt, err := time.ParseInLocation("02.01.2006 15:04", text, h.location)
		if err != nil {
			h.send(ctx, b, chatID, "Не понял дату. Нужно «ДД.ММ.ГГГГ ЧЧ:ММ», например 20.09.2026 11:00")
			return
		}
		st.Draft.StartsAt = startsAt
		st.Step = state.TournamentCapacity
		h.states.Set(userID, st)
		h.send(ctx, b, chatID, "Сколько мест?")

	case state.TournamentCapacity:
		capacity, err := strconv.Atoi(text)
		if err != nil || capacity < 1 {
			h.send(ctx, b, chatID, "Введите положительное число мест.")
			return
		}
		st.Draft.Capacity = capacity
		st.Step = state.TournamentWaitlist
		h.states.Set(userID, st)
		h.send(ctx, b, chatID, "Размер списка ожидания? 0 — без списка.")

	case state.TournamentWaitlist:
		limit, err := strconv.Atoi(text)
		if err != nil || limit < 0 {
			h.send(ctx, b, chatID, "Введите число, 0 — без списка ожидания.")
			return
		}
		st.Draft.WaitlistLimit = limit
		st.Step = state.TournamentDescription
		h.states.Set(userID, st)
		h.send(ctx, b, chatID, "Описание? «-» — без описания.")

	case state.TournamentDescription:
		if text != "-" {
			st.Draft.Description = text
		}
		st.Draft.GroupIDs = st.GroupIDs

		tournament, err := h.admin.CreateTournament(ctx, &st.Draft)
		if err != nil {
			h.dialogFail(ctx, b, chatID, "create tournament", err)
			return
		}

		h.states.Clear(userID)
		h.send(ctx, b, chatID, fmt.Sprintf("✅ Турнир «%s» создан: %s, %d %s, список ожидания %d.",
			tournament.Title,
			format.DateTimeFull(tournament.StartsAt, h.location),
			tournament.Capacity, format.Seats(tournament.Capacity),
			tournament.WaitlistLimit))
	}
}

func (h *Handlers) stepPaymentSettings(ctx context.Context, b *bot.Bot, chatID, userID int64, st state.PaymentSettingsEdit, text string) {
	switch st.Step {
	case state.PaymentText:
		st.Text = text
		st.Step = state.PaymentAmount
		h.states.Set(userID, st)
		h.send(ctx, b, chatID, "Сумма в рублях?")

	case state.PaymentAmount:
		amount, err := strconv.Atoi(text)
		if err != nil || amount < 0 {
			h.send(ctx, b, chatID, "Введите сумму числом.")
			return
		}

		if err := h.admin.UpdatePaymentSettings(ctx, st.Text, amount); err != nil {
			h.dialogFail(ctx, b, chatID, "update payment settings", err)
			return
		}

		h.states.Clear(userID)
		h.send(ctx, b, chatID, fmt.Sprintf("✅ Реквизиты обновлены, сумма %s.", format.Price(amount)))
	}
}

func (h *Handlers) dialogFail(ctx context.Context, b *bot.Bot, chatID int64, op string, err error) {
	switch {
	case errors.Is(err, service.ErrFull):
		h.send(ctx, b, chatID, "😔 Свободных мест нет.")
	case errors.Is(err, service.ErrEntityNotFound):
		h.send(ctx, b, chatID, "Событие не найдено или отменено.")
	case errors.Is(err, service.ErrGroupNotFound):
		h.send(ctx, b, chatID, "Группа не найдена.")
	default:
		h.logger.Error("Dialog step failed", zap.String("op", op), zap.Error(err))
		h.send(ctx, b, chatID, "❌ Что-то пошло не так, попробуйте ещё раз.")
	}
}
