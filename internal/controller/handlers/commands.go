package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/mbazhenoff/trainings_bot/internal/controller/callbacks"
	"github.com/mbazhenoff/trainings_bot/internal/controller/format"
	"github.com/mbazhenoff/trainings_bot/internal/controller/keyboard"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/service"
	"go.uber.org/zap"
)

// HandleStart регистрирует пользователя. Токен приглашения после команды
// сразу вводит его в группу: /start <token>
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID

	fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	user, err := h.users.Register(ctx, from.ID, from.Username, fullName)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.send(ctx, b, chatID, "❌ Не получилось зарегистрироваться. Попробуйте позже.")
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) > 1 {
		group, err := h.users.JoinGroupByInvite(ctx, from.ID, parts[1])
		if err != nil {
			if errors.Is(err, service.ErrInviteNotFound) || errors.Is(err, service.ErrGroupNotFound) {
				h.send(ctx, b, chatID, "Приглашение не действует. Попросите у тренера новую ссылку.")
			} else {
				h.logger.Error("Failed to join by invite", zap.Error(err))
				h.send(ctx, b, chatID, "❌ Не получилось вступить в группу. Попробуйте позже.")
			}
			return
		}
		h.send(ctx, b, chatID, fmt.Sprintf("✅ Вы в группе «%s»!\n\n/trainings — запись на тренировки\n/help — все команды", group.Title))
		return
	}

	text := fmt.Sprintf("👋 Привет, %s!\n\n"+
		"Здесь записываются на тренировки и турниры.\n\n"+
		"/trainings — ближайшие тренировки\n"+
		"/tournaments — турниры\n"+
		"/mybookings — мои записи\n"+
		"/help — справка", user.FullName)
	if user.GroupID == 0 {
		text += "\n\nЧтобы видеть тренировки своей группы, перейдите по ссылке-приглашению от тренера."
	}
	h.send(ctx, b, chatID, text)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := "📚 Команды:\n\n" +
		"/trainings — ближайшие тренировки группы\n" +
		"/tournaments — турниры\n" +
		"/mybookings — мои записи\n" +
		"/schedule — расписание недели картинкой\n" +
		"/settings — уведомления об открытии записи\n" +
		"/cancel — прервать текущий ввод\n\n" +
		"Запись открывается заранее, за несколько дней до тренировки. " +
		"Если мест на турнир нет, можно встать в список ожидания — " +
		"бот сообщит, когда место освободится."

	if h.isAdmin(update.Message.From.ID) {
		text += "\n\nДля администратора:\n/admin — меню управления"
	}

	h.send(ctx, b, update.Message.Chat.ID, text)
}

// HandleTrainings показывает будущие тренировки группы пользователя
// с кнопками записи
func (h *Handlers) HandleTrainings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := h.users.GetByID(ctx, update.Message.From.ID)
	if err != nil || user.GroupID == 0 {
		h.send(ctx, b, chatID, "Вы пока не в группе. Перейдите по ссылке-приглашению от тренера.")
		return
	}

	slots, err := h.admin.UpcomingSlots(ctx, user.GroupID, time.Now())
	if err != nil {
		h.logger.Error("Failed to list trainings", zap.Error(err))
		h.send(ctx, b, chatID, "❌ Не получилось загрузить тренировки. Попробуйте позже.")
		return
	}
	if len(slots) == 0 {
		h.send(ctx, b, chatID, "Будущих тренировок пока нет.")
		return
	}

	for _, slot := range slots {
		h.sendTrainingCard(ctx, b, chatID, user.ID, slot)
	}
}

func (h *Handlers) sendTrainingCard(ctx context.Context, b *bot.Bot, chatID, userID int64, slot *model.TrainingSlot) {
	status, err := h.enrollment.Status(ctx, model.EntityTraining, slot.ID)
	if err != nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏐 %s", format.DateTime(slot.StartsAt, h.location))
	if slot.Note != "" {
		fmt.Fprintf(&sb, " · %s", slot.Note)
	}
	fmt.Fprintf(&sb, "\n%s", format.FreeSeats(status.SeatsFree, status.Capacity))

	now := time.Now()
	kb := keyboard.NewBuilder()
	booking, _ := h.enrollment.CurrentBooking(ctx, userID, model.EntityTraining, slot.ID)

	switch {
	case booking != nil:
		sb.WriteString("\n" + format.BookingStatus(booking.Status))
		row := []models.InlineKeyboardButton{
			keyboard.Button("❌ Отписаться", fmt.Sprintf("%s%d", callbacks.TrainLeave, slot.ID)),
		}
		if booking.Status == model.BookingStatusActive && booking.Seats < model.MaxSeats {
			row = append(row, keyboard.Button("👥 +1 место", fmt.Sprintf("%s%d", callbacks.TrainSecondSeat, slot.ID)))
		}
		kb.Row(row...)
	case status.Windows.TooEarly(now):
		fmt.Fprintf(&sb, "\n⏳ Запись откроется %s", format.DateTime(status.Windows.OpensAt, h.location))
	case status.Windows.Closed(now):
		sb.WriteString("\n🔒 Запись закрыта")
	default:
		kb.Row(keyboard.Button("✅ Записаться", fmt.Sprintf("%s%d", callbacks.TrainJoin, slot.ID)))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ReplyMarkup: kb.Build(),
	})
}

// HandleTournaments показывает будущие турниры, доступные группе пользователя
func (h *Handlers) HandleTournaments(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := h.users.GetByID(ctx, update.Message.From.ID)
	if err != nil || user.GroupID == 0 {
		h.send(ctx, b, chatID, "Вы пока не в группе. Перейдите по ссылке-приглашению от тренера.")
		return
	}

	tournaments, err := h.admin.UpcomingTournaments(ctx, user.GroupID, time.Now())
	if err != nil {
		h.logger.Error("Failed to list tournaments", zap.Error(err))
		h.send(ctx, b, chatID, "❌ Не получилось загрузить турниры. Попробуйте позже.")
		return
	}
	if len(tournaments) == 0 {
		h.send(ctx, b, chatID, "Будущих турниров пока нет.")
		return
	}

	for _, tournament := range tournaments {
		h.sendTournamentCard(ctx, b, chatID, user.ID, tournament)
	}
}

func (h *Handlers) sendTournamentCard(ctx context.Context, b *bot.Bot, chatID, userID int64, tournament *model.Tournament) {
	status, err := h.enrollment.Status(ctx, model.EntityTournament, tournament.ID)
	if err != nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 %s · %s\n", tournament.Title, format.DateTime(tournament.StartsAt, h.location))
	if tournament.Description != "" {
		sb.WriteString(tournament.Description + "\n")
	}
	sb.WriteString(format.FreeSeats(status.SeatsFree, status.Capacity))
	if status.WaitlistLimit > 0 {
		fmt.Fprintf(&sb, "\n⏳ Список ожидания: %d из %d", status.WaitlistDepth, status.WaitlistLimit)
	}

	now := time.Now()
	kb := keyboard.NewBuilder()
	booking, _ := h.enrollment.CurrentBooking(ctx, userID, model.EntityTournament, tournament.ID)

	switch {
	case booking != nil:
		sb.WriteString("\n" + format.BookingStatus(booking.Status))
		row := []models.InlineKeyboardButton{
			keyboard.Button("❌ Отписаться", fmt.Sprintf("%s%d", callbacks.TourLeave, tournament.ID)),
		}
		if booking.Status == model.BookingStatusActive && booking.Seats < model.MaxSeats {
			row = append(row, keyboard.Button("👥 +1 место", fmt.Sprintf("%s%d", callbacks.TourSecondSeat, tournament.ID)))
		}
		kb.Row(row...)
	case status.Windows.Closed(now):
		sb.WriteString("\n🔒 Запись закрыта")
	default:
		kb.Row(keyboard.Button("✅ Записаться", fmt.Sprintf("%s%d", callbacks.TourJoin, tournament.ID)))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ReplyMarkup: kb.Build(),
	})
}

// HandleMyBookings показывает незавершённые брони пользователя
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	bookings, err := h.enrollment.UserBookings(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.Error(err))
		h.send(ctx, b, chatID, "❌ Не получилось загрузить записи. Попробуйте позже.")
		return
	}
	if len(bookings) == 0 {
		h.send(ctx, b, chatID, "У вас нет активных записей. /trainings — записаться.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📅 Ваши записи:\n\n")
	kb := keyboard.NewBuilder()

	for i, booking := range bookings {
		var title string
		var startsAt time.Time
		var leaveData string

		switch booking.EntityType {
		case model.EntityTraining:
			if booking.Training == nil {
				continue
			}
			title = "Тренировка"
			if booking.Training.Note != "" {
				title += " · " + booking.Training.Note
			}
			startsAt = booking.Training.StartsAt
			leaveData = fmt.Sprintf("%s%d", callbacks.TrainLeave, booking.EntityID)
		case model.EntityTournament:
			if booking.Tournament == nil {
				continue
			}
			title = booking.Tournament.Title
			startsAt = booking.Tournament.StartsAt
			leaveData = fmt.Sprintf("%s%d", callbacks.TourLeave, booking.EntityID)
		}

		fmt.Fprintf(&sb, "%d. %s %s — %s", i+1, format.DateTime(startsAt, h.location), title, format.BookingStatus(booking.Status))
		if booking.Seats > 1 {
			sb.WriteString(" (+1 место)")
		}
		sb.WriteString("\n")

		kb.Row(keyboard.Button(fmt.Sprintf("❌ %d. %s", i+1, format.DateTime(startsAt, h.location)), leaveData))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ReplyMarkup: kb.Build(),
	})
}

// HandleSchedule шлёт расписание недели группы картинкой
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := h.users.GetByID(ctx, update.Message.From.ID)
	if err != nil || user.GroupID == 0 {
		h.send(ctx, b, chatID, "Вы пока не в группе. Перейдите по ссылке-приглашению от тренера.")
		return
	}

	now := time.Now()
	slots, err := h.admin.UpcomingSlots(ctx, user.GroupID, now)
	if err != nil {
		h.logger.Error("Failed to load slots for schedule", zap.Error(err))
		h.send(ctx, b, chatID, "❌ Не получилось построить расписание. Попробуйте позже.")
		return
	}

	seats := make(map[int64]int, len(slots))
	var weekSlots []*model.TrainingSlot
	weekEnd := now.AddDate(0, 0, 7)
	for _, slot := range slots {
		if slot.StartsAt.After(weekEnd) {
			continue
		}
		weekSlots = append(weekSlots, slot)
		if status, err := h.enrollment.Status(ctx, model.EntityTraining, slot.ID); err == nil {
			seats[slot.ID] = status.SeatsTaken
		}
	}

	if len(weekSlots) == 0 {
		h.send(ctx, b, chatID, "На ближайшую неделю тренировок нет.")
		return
	}

	png, err := h.renderer.RenderWeek(weekSlots, seats, now)
	if err != nil {
		h.logger.Error("Failed to render week image", zap.Error(err))
		h.send(ctx, b, chatID, "❌ Не получилось построить расписание. Попробуйте позже.")
		return
	}

	b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: "schedule.png",
			Data:     bytes.NewReader(png),
		},
	})
}

// HandleSettings показывает переключатель уведомлений
func (h *Handlers) HandleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, err := h.users.GetByID(ctx, update.Message.From.ID)
	if err != nil {
		h.send(ctx, b, chatID, "Сначала отправьте /start")
		return
	}

	var text string
	kb := keyboard.NewBuilder()
	if user.NotifyOnOpen {
		text = "🔔 Уведомления об открытии записи включены."
		kb.Row(keyboard.Button("🔕 Выключить", callbacks.NotifyOff))
	} else {
		text = "🔕 Уведомления об открытии записи выключены."
		kb.Row(keyboard.Button("🔔 Включить", callbacks.NotifyOn))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: kb.Build(),
	})
}

// HandleCancel прерывает текущий многошаговый ввод
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID
	if h.states.Get(userID) == nil {
		h.send(ctx, b, update.Message.Chat.ID, "Сейчас нечего отменять.")
		return
	}

	h.states.Clear(userID)
	h.send(ctx, b, update.Message.Chat.ID, "✅ Ввод отменён.")
}

// HandleAdmin показывает меню администратора
func (h *Handlers) HandleAdmin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if !h.isAdmin(update.Message.From.ID) {
		h.send(ctx, b, update.Message.Chat.ID, "Эта команда доступна только администраторам.")
		return
	}

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("👥 Группы", callbacks.AdminGroups)).
		Row(keyboard.Button("🏆 Турниры", callbacks.AdminTours), keyboard.Button("➕ Новый турнир", callbacks.AdminNewTour)).
		Row(keyboard.Button("💳 Реквизиты оплаты", callbacks.AdminPaySettings)).
		Row(keyboard.Button("➕ Новая группа", callbacks.AdminNewGroup)).
		Build()

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        "⚙️ Меню администратора",
		ReplyMarkup: kb,
	})
}
