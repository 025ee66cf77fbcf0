package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/mbazhenoff/trainings_bot/internal/app"
	"github.com/mbazhenoff/trainings_bot/internal/config"
	"github.com/mbazhenoff/trainings_bot/internal/controller"
	"github.com/mbazhenoff/trainings_bot/internal/repository"
	"github.com/mbazhenoff/trainings_bot/internal/service"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	pool, err := app.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	if err := migrator.Run(ctx); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	migrator.Close()

	botInstance, err := bot.New(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	location := time.FixedZone("local", cfg.TZOffsetHours*3600)
	store := repository.NewStore(pool)

	gateway := controller.NewNotifier(botInstance, location)
	dispatcher := service.NewDispatcher(store, gateway, logger)
	enrollment := service.NewEnrollmentService(store, dispatcher, logger)
	users := service.NewUserService(store, logger)
	admin := service.NewAdminService(store, location, logger)

	botController := controller.NewBotController(
		botInstance,
		users,
		enrollment,
		admin,
		cfg.IsAdmin,
		cfg.FontPath,
		location,
		logger,
	)
	if err := botController.RegisterHandlers(ctx); err != nil {
		log.Fatalf("Failed to register handlers: %v", err)
	}

	scheduler := app.NewScheduler(admin, dispatcher, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return botController.Run(ctx) })
	g.Go(func() error { return scheduler.RunSlotGeneration(ctx) })
	g.Go(func() error { return scheduler.RunOpeningNotifier(ctx) })

	logger.Sugar().Infow("Bot started", "environment", cfg.Environment)

	if err := g.Wait(); err != nil {
		logger.Sugar().Fatalw("Bot stopped with error", "error", err)
	}
	logger.Info("Bot stopped")
}
