package app

import (
	"context"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/service"
	"go.uber.org/zap"
)

const (
	// Как часто рассыльщик ищет тренировки с только что открывшейся записью.
	// Окно «только что» длится минуту, полминуты хватает, чтобы не промахнуться.
	openScanInterval = 30 * time.Second

	slotGenerationInterval = 24 * time.Hour
	slotGenerationWeeks    = 4
)

// Scheduler фоновые задачи: генерация тренировок из еженедельных шаблонов
// и рассылка уведомлений об открытии записи
type Scheduler struct {
	adminService *service.AdminService
	dispatcher   *service.Dispatcher
	logger       *zap.Logger
}

func NewScheduler(adminService *service.AdminService, dispatcher *service.Dispatcher, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		adminService: adminService,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// RunSlotGeneration раз в сутки материализует тренировки на месяц вперёд.
// Первый прогон сразу при старте. Блокируется до отмены ctx.
func (s *Scheduler) RunSlotGeneration(ctx context.Context) error {
	s.generateSlots(ctx)

	ticker := time.NewTicker(slotGenerationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.generateSlots(ctx)
		case <-ctx.Done():
			s.logger.Info("Slot generation stopped")
			return nil
		}
	}
}

func (s *Scheduler) generateSlots(ctx context.Context) {
	created, err := s.adminService.GenerateSlots(ctx, time.Now(), slotGenerationWeeks)
	if err != nil {
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	if created > 0 {
		s.logger.Info("Slot generation completed", zap.Int("created", created))
	}
}

// RunOpeningNotifier периодически ищет тренировки с только что открывшейся
// записью и рассылает уведомления. Каждое решение перепроверяется на
// следующем тике, пропущенный тик ничего не теряет. Блокируется до отмены ctx.
func (s *Scheduler) RunOpeningNotifier(ctx context.Context) error {
	ticker := time.NewTicker(openScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.dispatcher.ScanSlotOpenings(ctx, time.Now()); err != nil {
				s.logger.Error("Failed to scan slot openings", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Info("Opening notifier stopped")
			return nil
		}
	}
}
