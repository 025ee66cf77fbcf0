package callbacks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/mbazhenoff/trainings_bot/internal/controller/format"
	"github.com/mbazhenoff/trainings_bot/internal/controller/keyboard"
	"github.com/mbazhenoff/trainings_bot/internal/controller/state"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"go.uber.org/zap"
)

func (h *Handler) handleAdminMenu(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	answer(ctx, b, callback.ID, "")

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("👥 Группы", AdminGroups)).
		Row(keyboard.Button("🏆 Турниры", AdminTours), keyboard.Button("➕ Новый турнир", AdminNewTour)).
		Row(keyboard.Button("💳 Реквизиты оплаты", AdminPaySettings)).
		Row(keyboard.Button("➕ Новая группа", AdminNewGroup)).
		Build()

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        "⚙️ Меню администратора",
		ReplyMarkup: kb,
	})
}

func (h *Handler) handleAdminGroups(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	groups, err := h.admin.Groups(ctx)
	if err != nil {
		h.adminFail(ctx, b, callback, "list groups", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	if len(groups) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID(callback),
			Text:   "Групп пока нет. Создайте первую через меню.",
		})
		return
	}

	kb := keyboard.NewBuilder()
	for _, group := range groups {
		kb.Row(keyboard.Button(group.Title, fmt.Sprintf("%s%d", AdminGroup, group.ID)))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        "Выберите группу:",
		ReplyMarkup: kb.Build(),
	})
}

func (h *Handler) handleAdminGroup(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	answer(ctx, b, callback.ID, "")

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("📅 Тренировки", fmt.Sprintf("%s%d", AdminSlots, groupID))).
		Row(
			keyboard.Button("➕ Тренировка", fmt.Sprintf("%s%d", AdminNewSlot, groupID)),
			keyboard.Button("🔁 Шаблон недели", fmt.Sprintf("%s%d", AdminNewSchedule, groupID)),
		).
		Row(
			keyboard.Button("⚙️ Настройки записи", fmt.Sprintf("%s%d", AdminGroupSettings, groupID)),
			keyboard.Button("⏹ Остановить серию", fmt.Sprintf("%s%d", AdminSeriesList, groupID)),
		).
		Row(keyboard.Button("🔗 Ссылка-приглашение", fmt.Sprintf("%s%d", AdminInvite, groupID))).
		Row(keyboard.Button("🗄 Группа в архив", fmt.Sprintf("%s%d", AdminGroupArchive, groupID))).
		Build()

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        "Управление группой:",
		ReplyMarkup: kb,
	})
}

func (h *Handler) handleAdminGroupSettings(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	group, err := h.admin.Group(ctx, groupID)
	if err != nil {
		h.adminFail(ctx, b, callback, "group settings", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("✏️ Изменить", fmt.Sprintf("%s%d", AdminSettingsEdit, groupID))).
		Build()

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        fmt.Sprintf("⚙️ %s\n%s", group.Title, format.WindowRules(group.Settings)),
		ReplyMarkup: kb,
	})
}

func (h *Handler) handleAdminSettingsEdit(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	answer(ctx, b, callback.ID, "")
	h.states.Set(callback.From.ID, state.GroupSettingsEdit{GroupID: groupID})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(callback),
		Text: "Новые правила одной строкой:\n«дни ЧЧ:ММ закрытие отмена»\n" +
			"дни — за сколько дней открывается запись, ЧЧ:ММ — время открытия,\n" +
			"закрытие — за сколько минут до начала закрывается запись (0 — в момент начала),\n" +
			"отмена — за сколько минут до начала закрывается отмена.\nНапример: 2 10:00 0 360",
	})
}

func (h *Handler) handleAdminGroupArchive(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	if err := h.admin.ArchiveGroup(ctx, groupID); err != nil {
		h.adminFail(ctx, b, callback, "archive group", err)
		return
	}
	answerAlert(ctx, b, callback.ID, "Группа убрана в архив")
}

func (h *Handler) handleAdminSlots(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	slots, err := h.admin.UpcomingSlots(ctx, groupID, time.Now())
	if err != nil {
		h.adminFail(ctx, b, callback, "list slots", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	if len(slots) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID(callback),
			Text:   "Будущих тренировок у группы нет.",
		})
		return
	}

	kb := keyboard.NewBuilder()
	for _, slot := range slots {
		label := format.DateTimeFull(slot.StartsAt, h.location)
		if slot.Note != "" {
			label += " · " + slot.Note
		}
		kb.Row(keyboard.Button(label, fmt.Sprintf("%s%d", AdminSlot, slot.ID)))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        "Выберите тренировку:",
		ReplyMarkup: kb.Build(),
	})
}

func (h *Handler) handleAdminSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, slotID int64) {
	h.sendRoster(ctx, b, callback, model.EntityTraining, slotID,
		keyboard.Button("👤 Записать гостя", fmt.Sprintf("%s%d", AdminBookTrain, slotID)),
		keyboard.Button("➕ Вместимость", fmt.Sprintf("%s%d", AdminCapacityAdd, slotID)),
		keyboard.Button("🚫 Отменить", fmt.Sprintf("%s%d", AdminSlotCancel, slotID)),
	)
}

func (h *Handler) handleAdminTours(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	tournaments, err := h.admin.UpcomingTournaments(ctx, 0, time.Now())
	if err != nil {
		h.adminFail(ctx, b, callback, "list tournaments", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	if len(tournaments) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID(callback),
			Text:   "Будущих турниров нет.",
		})
		return
	}

	kb := keyboard.NewBuilder()
	for _, t := range tournaments {
		label := fmt.Sprintf("%s · %s", format.DateTimeFull(t.StartsAt, h.location), t.Title)
		kb.Row(keyboard.Button(label, fmt.Sprintf("%s%d", AdminTour, t.ID)))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        "Выберите турнир:",
		ReplyMarkup: kb.Build(),
	})
}

func (h *Handler) handleAdminTour(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, tournamentID int64) {
	h.sendRoster(ctx, b, callback, model.EntityTournament, tournamentID,
		keyboard.Button("👤 Записать гостя", fmt.Sprintf("%s%d", AdminBookTour, tournamentID)),
		keyboard.Button("🚫 Отменить", fmt.Sprintf("%s%d", AdminTourCancel, tournamentID)),
	)
}

// sendRoster показывает список записавшихся. Кнопка у каждой активной брони
// переключает её оплату.
func (h *Handler) sendRoster(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, entityType model.EntityType, entityID int64, actions ...models.InlineKeyboardButton) {
	status, err := h.enrollment.Status(ctx, entityType, entityID)
	if err != nil {
		h.adminFail(ctx, b, callback, "entity status", err)
		return
	}

	active, waitlist, err := h.enrollment.Roster(ctx, entityType, entityID)
	if err != nil {
		h.adminFail(ctx, b, callback, "roster", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n%s\n",
		format.DateTimeFull(status.StartsAt, h.location),
		status.Title,
		format.FreeSeats(status.SeatsFree, status.Capacity))

	kb := keyboard.NewBuilder()
	if len(active) == 0 {
		sb.WriteString("\nПока никто не записан.\n")
	} else {
		sb.WriteString("\nЗаписаны:\n")
		for i, entry := range active {
			name := entry.DisplayName()
			if entry.Seats > 1 {
				name += " (+1)"
			}
			fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, name, format.PaymentStatus(entry.PaymentStatus))
			kb.Row(keyboard.Button("💳 "+name, fmt.Sprintf("%s%d", AdminPayToggle, entry.BookingID)))
		}
	}

	if len(waitlist) > 0 {
		sb.WriteString("\nСписок ожидания:\n")
		for i, entry := range waitlist {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, entry.DisplayName())
		}
	}

	kb.Row(actions...)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        sb.String(),
		ReplyMarkup: kb.Build(),
	})
}

func (h *Handler) handleAdminPayToggle(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, bookingID int64) {
	status, err := h.enrollment.TogglePayment(ctx, bookingID, callback.From.ID, time.Now())
	if err != nil {
		h.adminFail(ctx, b, callback, "toggle payment", err)
		return
	}

	answerAlert(ctx, b, callback.ID, "Оплата: "+format.PaymentStatus(status))
}

func (h *Handler) handleAdminBookGuest(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, entityType model.EntityType, entityID int64) {
	answer(ctx, b, callback.ID, "")
	h.states.Set(callback.From.ID, state.GuestNameEntry{EntityType: entityType, EntityID: entityID})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(callback),
		Text:   "Введите имя гостя. Гость займёт место как обычный участник. /cancel — отменить.",
	})
}

func (h *Handler) handleAdminCapacityAdd(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, slotID int64) {
	answer(ctx, b, callback.ID, "")
	h.states.Set(callback.From.ID, state.CapacityAdd{SlotID: slotID})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(callback),
		Text:   "На сколько мест увеличить тренировку? Введите число.",
	})
}

func (h *Handler) handleAdminSlotCancel(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, slotID int64) {
	if err := h.admin.CancelTrainingSlot(ctx, slotID); err != nil {
		h.adminFail(ctx, b, callback, "cancel slot", err)
		return
	}
	answerAlert(ctx, b, callback.ID, "Тренировка отменена")
}

func (h *Handler) handleAdminTourCancel(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, tournamentID int64) {
	if err := h.admin.CancelTournament(ctx, tournamentID); err != nil {
		h.adminFail(ctx, b, callback, "cancel tournament", err)
		return
	}
	answerAlert(ctx, b, callback.ID, "Турнир отменён")
}

func (h *Handler) handleAdminNewSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	answer(ctx, b, callback.ID, "")
	h.states.Set(callback.From.ID, state.SlotCreation{GroupID: groupID})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(callback),
		Text:   "Новая тренировка. Отправьте одной строкой:\n«ДД.ММ.ГГГГ ЧЧ:ММ вместимость [заметка]»\nНапример: 05.09.2026 19:00 8 зал №2",
	})
}

func (h *Handler) handleAdminNewSchedule(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	answer(ctx, b, callback.ID, "")
	h.states.Set(callback.From.ID, state.ScheduleCreation{GroupID: groupID})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(callback),
		Text:   "Еженедельный шаблон. Каждая строка:\n«день ЧЧ:ММ вместимость [заметка]»\nНапример:\nпн 19:00 8\nчт 20:00 8 зал №2",
	})
}

// handleAdminSeriesList показывает активные серии шаблонов группы,
// кнопка выключает всю серию разом.
func (h *Handler) handleAdminSeriesList(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	schedules, err := h.admin.ActiveSchedulesForGroup(ctx, groupID)
	if err != nil {
		h.adminFail(ctx, b, callback, "list schedules", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	if len(schedules) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID(callback),
			Text:   "Активных серий у группы нет.",
		})
		return
	}

	var order []uuid.UUID
	labels := make(map[uuid.UUID][]string)
	for _, schedule := range schedules {
		if _, ok := labels[schedule.SeriesID]; !ok {
			order = append(order, schedule.SeriesID)
		}
		labels[schedule.SeriesID] = append(labels[schedule.SeriesID],
			format.WeekdayShort(schedule.Weekday)+" "+schedule.StartTime)
	}

	kb := keyboard.NewBuilder()
	for _, seriesID := range order {
		kb.Row(keyboard.Button("⏹ "+strings.Join(labels[seriesID], ", "), AdminSeriesStop+seriesID.String()))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        "Какую серию остановить? Уже созданные тренировки останутся.",
		ReplyMarkup: kb.Build(),
	})
}

func (h *Handler) handleAdminSeriesStop(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, token string) {
	seriesID, err := uuid.Parse(token)
	if err != nil {
		h.adminFail(ctx, b, callback, "parse series id", err)
		return
	}

	stopped, err := h.admin.StopWeeklySeries(ctx, seriesID)
	if err != nil {
		h.adminFail(ctx, b, callback, "stop series", err)
		return
	}
	answerAlert(ctx, b, callback.ID, fmt.Sprintf("Серия остановлена, выключено строк: %d", stopped))
}

func (h *Handler) handleAdminNewTour(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	groups, err := h.admin.Groups(ctx)
	if err != nil {
		h.adminFail(ctx, b, callback, "list groups", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	if len(groups) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID(callback),
			Text:   "Сначала создайте хотя бы одну группу.",
		})
		return
	}

	var sb strings.Builder
	sb.WriteString("Новый турнир. Каким группам он доступен?\nОтправьте номера через запятую:\n")
	for _, group := range groups {
		fmt.Fprintf(&sb, "%d — %s\n", group.ID, group.Title)
	}

	h.states.Set(callback.From.ID, state.TournamentCreation{Step: state.TournamentGroups})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(callback),
		Text:   sb.String(),
	})
}

func (h *Handler) handleAdminNewGroup(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	answer(ctx, b, callback.ID, "")
	h.states.Set(callback.From.ID, state.GroupCreation{})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(callback),
		Text:   "Введите название новой группы.",
	})
}

func (h *Handler) handleAdminInvite(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, groupID int64) {
	invite, err := h.admin.CreateInvite(ctx, groupID)
	if err != nil {
		h.adminFail(ctx, b, callback, "create invite", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	link := fmt.Sprintf("https://t.me/%s?start=%s", h.botUsername, invite.Token)
	kb := keyboard.NewBuilder().
		Row(keyboard.Button("🚫 Отозвать ссылку", AdminInviteRevoke+invite.Token)).
		Build()

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        "Ссылка-приглашение в группу:\n" + link,
		ReplyMarkup: kb,
	})
}

func (h *Handler) handleAdminInviteRevoke(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, token string) {
	if err := h.admin.RevokeInvite(ctx, token); err != nil {
		h.adminFail(ctx, b, callback, "revoke invite", err)
		return
	}
	answerAlert(ctx, b, callback.ID, "Ссылка отозвана")
}

func (h *Handler) handleAdminPaySettings(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	settings, err := h.admin.PaymentSettings(ctx)
	if err != nil {
		h.adminFail(ctx, b, callback, "payment settings", err)
		return
	}
	answer(ctx, b, callback.ID, "")

	text := fmt.Sprintf("💳 Реквизиты оплаты:\n%s\nСумма: %s", settings.Text, format.Price(settings.Amount))
	kb := keyboard.NewBuilder().
		Row(keyboard.Button("✏️ Изменить", AdminPayEdit)).
		Build()

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID(callback),
		Text:        text,
		ReplyMarkup: kb,
	})
}

func (h *Handler) handleAdminPayEdit(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	answer(ctx, b, callback.ID, "")
	h.states.Set(callback.From.ID, state.PaymentSettingsEdit{Step: state.PaymentText})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(callback),
		Text:   "Введите текст с реквизитами оплаты.",
	})
}

func (h *Handler) adminFail(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, op string, err error) {
	if text, ok := outcomeMessage(err); ok {
		answerAlert(ctx, b, callback.ID, text)
		return
	}

	h.logger.Error("Admin operation failed", zap.String("op", op), zap.Error(err))
	answerAlert(ctx, b, callback.ID, "Что-то пошло не так, попробуйте ещё раз")
}
