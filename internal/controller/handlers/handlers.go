package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/mbazhenoff/trainings_bot/internal/controller/state"
	"github.com/mbazhenoff/trainings_bot/internal/controller/weekimage"
	"github.com/mbazhenoff/trainings_bot/internal/service"
	"go.uber.org/zap"
)

// Handlers обработчики команд и текстовых сообщений
type Handlers struct {
	users      *service.UserService
	enrollment *service.EnrollmentService
	admin      *service.AdminService
	states     *state.Manager
	renderer   *weekimage.Renderer
	isAdmin    func(userID int64) bool
	location   *time.Location
	logger     *zap.Logger
}

func NewHandlers(
	users *service.UserService,
	enrollment *service.EnrollmentService,
	admin *service.AdminService,
	states *state.Manager,
	renderer *weekimage.Renderer,
	isAdmin func(userID int64) bool,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		users:      users,
		enrollment: enrollment,
		admin:      admin,
		states:     states,
		renderer:   renderer,
		isAdmin:    isAdmin,
		location:   location,
		logger:     logger,
	}
}

func (h *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
