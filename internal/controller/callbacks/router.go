package callbacks

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/mbazhenoff/trainings_bot/internal/controller/state"
	"github.com/mbazhenoff/trainings_bot/internal/service"
	"go.uber.org/zap"
)

// Форматы callback data. Части разделены двоеточием,
// последняя часть — числовой идентификатор.
const (
	TrainJoin       = "train:join:"  // train:join:<slot_id>
	TrainSecondSeat = "train:join2:" // train:join2:<slot_id>
	TrainLeave      = "train:leave:" // train:leave:<slot_id>

	TourJoin       = "tour:join:"  // tour:join:<tournament_id>
	TourSecondSeat = "tour:join2:" // tour:join2:<tournament_id>
	TourLeave      = "tour:leave:" // tour:leave:<tournament_id>

	NotifyOn  = "settings:notify:on"
	NotifyOff = "settings:notify:off"

	AdminMenu        = "admin:menu"
	AdminGroups      = "admin:groups"
	AdminGroup       = "admin:group:"       // admin:group:<group_id>
	AdminSlots       = "admin:slots:"       // admin:slots:<group_id>
	AdminSlot        = "admin:slot:"        // admin:slot:<slot_id>
	AdminTours       = "admin:tours"
	AdminTour        = "admin:tour:"        // admin:tour:<tournament_id>
	AdminPayToggle   = "admin:pay:"         // admin:pay:<booking_id>
	AdminBookTrain   = "admin:book:train:"  // admin:book:train:<slot_id>
	AdminBookTour    = "admin:book:tour:"   // admin:book:tour:<tournament_id>
	AdminCapacityAdd = "admin:capadd:"      // admin:capadd:<slot_id>
	AdminSlotCancel  = "admin:delslot:"     // admin:delslot:<slot_id>
	AdminTourCancel  = "admin:deltour:"     // admin:deltour:<tournament_id>
	AdminNewSlot     = "admin:newslot:"     // admin:newslot:<group_id>
	AdminNewSchedule = "admin:newschedule:" // admin:newschedule:<group_id>
	AdminNewTour     = "admin:newtour"
	AdminNewGroup    = "admin:newgroup"
	AdminInvite      = "admin:invite:" // admin:invite:<group_id>
	AdminPaySettings = "admin:paysettings"
	AdminPayEdit     = "admin:editpay"

	AdminGroupSettings = "admin:settings:"     // admin:settings:<group_id>
	AdminSettingsEdit  = "admin:editsettings:" // admin:editsettings:<group_id>
	AdminGroupArchive  = "admin:delgroup:"     // admin:delgroup:<group_id>
	AdminSeriesList    = "admin:series:"       // admin:series:<group_id>
	AdminSeriesStop    = "admin:delseries:"    // admin:delseries:<series_id>
	AdminInviteRevoke  = "admin:delinvite:"    // admin:delinvite:<token>
)

// Handler обрабатывает нажатия inline кнопок
type Handler struct {
	users       *service.UserService
	enrollment  *service.EnrollmentService
	admin       *service.AdminService
	states      *state.Manager
	isAdmin     func(userID int64) bool
	botUsername string
	location    *time.Location
	logger      *zap.Logger
}

func NewHandler(
	users *service.UserService,
	enrollment *service.EnrollmentService,
	admin *service.AdminService,
	states *state.Manager,
	isAdmin func(userID int64) bool,
	location *time.Location,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:      users,
		enrollment: enrollment,
		admin:      admin,
		states:     states,
		isAdmin:    isAdmin,
		location:   location,
		logger:     logger,
	}
}

// SetBotUsername запоминает имя бота для сборки ссылок-приглашений
func (h *Handler) SetBotUsername(username string) {
	h.botUsername = username
}

// HandleCallbackQuery разбирает callback data и вызывает нужный обработчик
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}
	data := callback.Data

	h.logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	switch {
	case strings.HasPrefix(data, TrainJoin):
		entity, id := entityFromCallback(data, TrainJoin)
		h.handleJoin(ctx, b, callback, entity, id)
	case strings.HasPrefix(data, TrainSecondSeat):
		entity, id := entityFromCallback(data, TrainSecondSeat)
		h.handleSecondSeat(ctx, b, callback, entity, id)
	case strings.HasPrefix(data, TrainLeave):
		entity, id := entityFromCallback(data, TrainLeave)
		h.handleLeave(ctx, b, callback, entity, id)
	case strings.HasPrefix(data, TourJoin):
		entity, id := entityFromCallback(data, TourJoin)
		h.handleJoin(ctx, b, callback, entity, id)
	case strings.HasPrefix(data, TourSecondSeat):
		entity, id := entityFromCallback(data, TourSecondSeat)
		h.handleSecondSeat(ctx, b, callback, entity, id)
	case strings.HasPrefix(data, TourLeave):
		entity, id := entityFromCallback(data, TourLeave)
		h.handleLeave(ctx, b, callback, entity, id)
	case data == NotifyOn:
		h.handleNotifyToggle(ctx, b, callback, true)
	case data == NotifyOff:
		h.handleNotifyToggle(ctx, b, callback, false)
	case strings.HasPrefix(data, "admin:"):
		h.routeAdmin(ctx, b, callback, data)
	default:
		h.logger.Warn("Unknown callback", zap.String("data", data))
		answer(ctx, b, callback.ID, "")
	}
}

func (h *Handler) routeAdmin(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, data string) {
	if !h.isAdmin(callback.From.ID) {
		answerAlert(ctx, b, callback.ID, "Доступно только администраторам")
		return
	}

	switch {
	case data == AdminMenu:
		h.handleAdminMenu(ctx, b, callback)
	case data == AdminGroups:
		h.handleAdminGroups(ctx, b, callback)
	case strings.HasPrefix(data, AdminGroup):
		h.handleAdminGroup(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminSlots):
		h.handleAdminSlots(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminBookTrain):
		entity, id := entityFromCallback(data, AdminBookTrain)
		h.handleAdminBookGuest(ctx, b, callback, entity, id)
	case strings.HasPrefix(data, AdminBookTour):
		entity, id := entityFromCallback(data, AdminBookTour)
		h.handleAdminBookGuest(ctx, b, callback, entity, id)
	case strings.HasPrefix(data, AdminSlotCancel):
		h.handleAdminSlotCancel(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminSlot):
		h.handleAdminSlot(ctx, b, callback, lastID(data))
	case data == AdminTours:
		h.handleAdminTours(ctx, b, callback)
	case strings.HasPrefix(data, AdminTourCancel):
		h.handleAdminTourCancel(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminTour):
		h.handleAdminTour(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminPayToggle):
		h.handleAdminPayToggle(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminCapacityAdd):
		h.handleAdminCapacityAdd(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminNewSlot):
		h.handleAdminNewSlot(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminNewSchedule):
		h.handleAdminNewSchedule(ctx, b, callback, lastID(data))
	case data == AdminNewTour:
		h.handleAdminNewTour(ctx, b, callback)
	case data == AdminNewGroup:
		h.handleAdminNewGroup(ctx, b, callback)
	case strings.HasPrefix(data, AdminInviteRevoke):
		h.handleAdminInviteRevoke(ctx, b, callback, lastPart(data))
	case strings.HasPrefix(data, AdminInvite):
		h.handleAdminInvite(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminGroupSettings):
		h.handleAdminGroupSettings(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminSettingsEdit):
		h.handleAdminSettingsEdit(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminGroupArchive):
		h.handleAdminGroupArchive(ctx, b, callback, lastID(data))
	case strings.HasPrefix(data, AdminSeriesStop):
		h.handleAdminSeriesStop(ctx, b, callback, lastPart(data))
	case strings.HasPrefix(data, AdminSeriesList):
		h.handleAdminSeriesList(ctx, b, callback, lastID(data))
	case data == AdminPaySettings:
		h.handleAdminPaySettings(ctx, b, callback)
	case data == AdminPayEdit:
		h.handleAdminPayEdit(ctx, b, callback)
	default:
		h.logger.Warn("Unknown admin callback", zap.String("data", data))
		answer(ctx, b, callback.ID, "")
	}
}

// lastID числовой идентификатор из последней части callback data
func lastID(data string) int64 {
	parts := strings.Split(data, ":")
	id, _ := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	return id
}

// lastPart строковый идентификатор из последней части: токен или series id
func lastPart(data string) string {
	parts := strings.Split(data, ":")
	return parts[len(parts)-1]
}

func answer(ctx context.Context, b *bot.Bot, callbackID, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
}

func answerAlert(ctx context.Context, b *bot.Bot, callbackID, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// chatID чат, из которого пришёл callback; 0 если сообщение недоступно
func chatID(callback *models.CallbackQuery) int64 {
	if callback.Message.Message != nil {
		return callback.Message.Message.Chat.ID
	}
	return 0
}
