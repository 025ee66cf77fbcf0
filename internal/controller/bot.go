package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/mbazhenoff/trainings_bot/internal/controller/callbacks"
	"github.com/mbazhenoff/trainings_bot/internal/controller/handlers"
	"github.com/mbazhenoff/trainings_bot/internal/controller/state"
	"github.com/mbazhenoff/trainings_bot/internal/controller/weekimage"
	"github.com/mbazhenoff/trainings_bot/internal/service"
	"go.uber.org/zap"
)

// BotController телеграм-шлюз: принимает команды и нажатия кнопок,
// доставляет уведомления. Вся логика записи живёт в сервисах,
// здесь только разбор апдейтов и сборка текста.
type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	location        *time.Location
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	users *service.UserService,
	enrollment *service.EnrollmentService,
	admin *service.AdminService,
	isAdmin func(userID int64) bool,
	fontPath string,
	location *time.Location,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager()
	renderer := weekimage.NewRenderer(fontPath, location)

	cmdHandlers := handlers.NewHandlers(
		users,
		enrollment,
		admin,
		stateManager,
		renderer,
		isAdmin,
		location,
		logger,
	)

	callbackHandler := callbacks.NewHandler(
		users,
		enrollment,
		admin,
		stateManager,
		isAdmin,
		location,
		logger,
	)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		location:        location,
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// /start с префиксом: после команды может идти токен приглашения
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/trainings", bot.MatchTypeExact, c.handlers.HandleTrainings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/tournaments", bot.MatchTypeExact, c.handlers.HandleTournaments)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.handlers.HandleMyBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/schedule", bot.MatchTypeExact, c.handlers.HandleSchedule)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/settings", bot.MatchTypeExact, c.handlers.HandleSettings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin", bot.MatchTypeExact, c.handlers.HandleAdmin)

	// Текст без команды — шаги диалогов
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Нажатия inline кнопок
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot identity: %w", err)
	}
	c.callbackHandler.SetBotUsername(me.Username)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "trainings", Description: "🏐 Ближайшие тренировки"},
		{Command: "tournaments", Description: "🏆 Турниры"},
		{Command: "mybookings", Description: "📅 Мои записи"},
		{Command: "schedule", Description: "🗓 Расписание недели"},
		{Command: "settings", Description: "🔔 Уведомления"},
		{Command: "help", Description: "❓ Справка"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands})
	if err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}

	return nil
}

// Run запускает long polling, блокируется до отмены ctx
func (c *BotController) Run(ctx context.Context) error {
	c.logger.Info("Bot polling started")
	c.bot.Start(ctx)
	c.logger.Info("Bot polling stopped")
	return nil
}
