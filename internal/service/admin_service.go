package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/timewindow"
	"go.uber.org/zap"
)

// AdminStore срез хранилища для административных операций
type AdminStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateGroup(ctx context.Context, group *model.Group) error
	GroupByID(ctx context.Context, id int64) (*model.Group, error)
	Groups(ctx context.Context) ([]*model.Group, error)
	UpdateGroupSettings(ctx context.Context, settings *model.GroupSettings) error
	DeactivateGroup(ctx context.Context, id int64) error

	CreateInvite(ctx context.Context, invite *model.Invite) error
	DeactivateInvite(ctx context.Context, token string) error

	CreateTrainingSlot(ctx context.Context, slot *model.TrainingSlot) error
	SlotExists(ctx context.Context, groupID int64, startsAt time.Time) (bool, error)
	UpcomingSlotsByGroup(ctx context.Context, groupID int64, from time.Time) ([]*model.TrainingSlot, error)
	AddSlotCapacity(ctx context.Context, id int64, delta int) (int, error)
	DeactivateTrainingSlot(ctx context.Context, id int64) error

	CreateWeeklySchedule(ctx context.Context, schedule *model.WeeklySchedule) error
	ActiveWeeklySchedules(ctx context.Context) ([]*model.WeeklySchedule, error)
	DeactivateWeeklySeries(ctx context.Context, seriesID uuid.UUID) (int64, error)

	CreateTournament(ctx context.Context, tournament *model.Tournament) error
	UpcomingTournaments(ctx context.Context, from time.Time) ([]*model.Tournament, error)
	UpcomingTournamentsForGroup(ctx context.Context, groupID int64, from time.Time) ([]*model.Tournament, error)
	DeactivateTournament(ctx context.Context, id int64) error

	PaymentSettings(ctx context.Context) (*model.PaymentSettings, error)
	UpdatePaymentSettings(ctx context.Context, settings *model.PaymentSettings) error
}

// AdminService создание и обслуживание групп, тренировок и турниров
type AdminService struct {
	store    AdminStore
	location *time.Location
	logger   *zap.Logger
}

func NewAdminService(store AdminStore, location *time.Location, logger *zap.Logger) *AdminService {
	return &AdminService{
		store:    store,
		location: location,
		logger:   logger,
	}
}

// CreateGroup создаёт группу с настройками записи по умолчанию
func (s *AdminService) CreateGroup(ctx context.Context, title string) (*model.Group, error) {
	group := &model.Group{Title: title}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		return s.store.CreateGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Group created",
		zap.Int64("group_id", group.ID),
		zap.String("title", title))

	return group, nil
}

// Groups получает все активные группы
func (s *AdminService) Groups(ctx context.Context) ([]*model.Group, error) {
	return s.store.Groups(ctx)
}

// Group получает группу вместе с настройками записи
func (s *AdminService) Group(ctx context.Context, id int64) (*model.Group, error) {
	group, err := s.store.GroupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// ArchiveGroup убирает группу в архив: она пропадает из меню и списков,
// существующие брони и история остаются.
func (s *AdminService) ArchiveGroup(ctx context.Context, id int64) error {
	group, err := s.store.GroupByID(ctx, id)
	if err != nil {
		return err
	}
	if group == nil || !group.IsActive {
		return ErrGroupNotFound
	}

	if err := s.store.DeactivateGroup(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Group archived", zap.Int64("group_id", id))
	return nil
}

// UpdateGroupSettings обновляет окна записи и отмены для тренировок группы
func (s *AdminService) UpdateGroupSettings(ctx context.Context, settings *model.GroupSettings) error {
	// Проверяем формат "HH:MM" до записи в базу, иначе сломаются
	// все расчёты окна для тренировок группы
	if _, _, err := timewindow.ParseTimeOfDay(settings.OpenTime); err != nil {
		return err
	}

	if err := s.store.UpdateGroupSettings(ctx, settings); err != nil {
		return err
	}

	s.logger.Info("Group settings updated", zap.Int64("group_id", settings.GroupID))
	return nil
}

// CreateInvite создаёт ссылку-приглашение в группу
func (s *AdminService) CreateInvite(ctx context.Context, groupID int64) (*model.Invite, error) {
	group, err := s.store.GroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil || !group.IsActive {
		return nil, ErrGroupNotFound
	}

	invite := &model.Invite{
		Token:   uuid.NewString(),
		GroupID: groupID,
	}
	if err := s.store.CreateInvite(ctx, invite); err != nil {
		return nil, err
	}

	s.logger.Info("Invite created", zap.Int64("group_id", groupID))
	return invite, nil
}

// RevokeInvite отзывает приглашение
func (s *AdminService) RevokeInvite(ctx context.Context, token string) error {
	return s.store.DeactivateInvite(ctx, token)
}

// CreateTrainingSlot создаёт разовую тренировку
func (s *AdminService) CreateTrainingSlot(ctx context.Context, groupID int64, startsAt time.Time, capacity int, note string) (*model.TrainingSlot, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("capacity must be positive")
	}

	group, err := s.store.GroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil || !group.IsActive {
		return nil, ErrGroupNotFound
	}

	slot := &model.TrainingSlot{
		GroupID:  groupID,
		StartsAt: startsAt,
		Capacity: capacity,
		Note:     note,
	}
	if err := s.store.CreateTrainingSlot(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Info("Training slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("group_id", groupID),
		zap.Time("starts_at", startsAt))

	return slot, nil
}

// AddSlotCapacity увеличивает вместимость тренировки. Так группа принимает
// больше людей без списка ожидания: он есть только у турниров.
func (s *AdminService) AddSlotCapacity(ctx context.Context, slotID int64, delta int) (int, error) {
	if delta < 1 {
		return 0, fmt.Errorf("capacity delta must be positive")
	}

	capacity, err := s.store.AddSlotCapacity(ctx, slotID, delta)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Slot capacity increased",
		zap.Int64("slot_id", slotID),
		zap.Int("capacity", capacity))

	return capacity, nil
}

// CancelTrainingSlot деактивирует тренировку
func (s *AdminService) CancelTrainingSlot(ctx context.Context, slotID int64) error {
	return s.store.DeactivateTrainingSlot(ctx, slotID)
}

// CreateWeeklySchedule создаёт еженедельный шаблон тренировок. Все строки
// получают общий series_id, чтобы серию можно было выключить одним действием.
func (s *AdminService) CreateWeeklySchedule(ctx context.Context, groupID int64, entries []*model.WeeklySchedule) (uuid.UUID, error) {
	seriesID := uuid.New()

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		for _, entry := range entries {
			if _, _, err := timewindow.ParseTimeOfDay(entry.StartTime); err != nil {
				return err
			}
			entry.GroupID = groupID
			entry.SeriesID = seriesID
			if err := s.store.CreateWeeklySchedule(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Weekly schedule created",
		zap.Int64("group_id", groupID),
		zap.Int("entries", len(entries)),
		zap.String("series_id", seriesID.String()))

	return seriesID, nil
}

// ActiveSchedulesForGroup активные строки еженедельных шаблонов группы
func (s *AdminService) ActiveSchedulesForGroup(ctx context.Context, groupID int64) ([]*model.WeeklySchedule, error) {
	schedules, err := s.store.ActiveWeeklySchedules(ctx)
	if err != nil {
		return nil, err
	}

	var out []*model.WeeklySchedule
	for _, schedule := range schedules {
		if schedule.GroupID == groupID {
			out = append(out, schedule)
		}
	}
	return out, nil
}

// StopWeeklySeries выключает все шаблоны серии
func (s *AdminService) StopWeeklySeries(ctx context.Context, seriesID uuid.UUID) (int64, error) {
	return s.store.DeactivateWeeklySeries(ctx, seriesID)
}

// GenerateSlots материализует тренировки из активных еженедельных шаблонов
// на weeksAhead недель вперёд. Прошедшие моменты и уже существующие пары
// (группа, время начала) пропускаются, поэтому запуск можно повторять.
func (s *AdminService) GenerateSlots(ctx context.Context, now time.Time, weeksAhead int) (int, error) {
	schedules, err := s.store.ActiveWeeklySchedules(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, schedule := range schedules {
		hour, minute, err := timewindow.ParseTimeOfDay(schedule.StartTime)
		if err != nil {
			s.logger.Error("Bad schedule start time",
				zap.Int64("schedule_id", schedule.ID),
				zap.Error(err))
			continue
		}

		for week := 0; week < weeksAhead; week++ {
			startsAt := nextWeekday(now.In(s.location), schedule.Weekday, week)
			startsAt = time.Date(startsAt.Year(), startsAt.Month(), startsAt.Day(), hour, minute, 0, 0, s.location)
			if !startsAt.After(now) {
				continue
			}

			exists, err := s.store.SlotExists(ctx, schedule.GroupID, startsAt)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			slot := &model.TrainingSlot{
				GroupID:  schedule.GroupID,
				StartsAt: startsAt,
				Capacity: schedule.Capacity,
				Note:     schedule.Note,
			}
			if err := s.store.CreateTrainingSlot(ctx, slot); err != nil {
				return created, err
			}
			created++
		}
	}

	if created > 0 {
		s.logger.Info("Slots generated", zap.Int("count", created))
	}

	return created, nil
}

// nextWeekday дата ближайшего weekday начиная с from, сдвинутая на weeks недель
func nextWeekday(from time.Time, weekday time.Weekday, weeks int) time.Time {
	days := (int(weekday) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, days+weeks*7)
}

// CreateTournament создаёт турнир и привязывает его к группам. Окна отмены
// и закрытия по умолчанию наследуются из настроек первой группы.
func (s *AdminService) CreateTournament(ctx context.Context, tournament *model.Tournament) (*model.Tournament, error) {
	if tournament.Capacity < 1 {
		return nil, fmt.Errorf("capacity must be positive")
	}
	if len(tournament.GroupIDs) == 0 {
		return nil, fmt.Errorf("tournament needs at least one group")
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if tournament.CloseMode == "" || tournament.CancelMinutesBefore == 0 {
			group, err := s.store.GroupByID(ctx, tournament.GroupIDs[0])
			if err != nil {
				return err
			}
			if group == nil {
				return ErrGroupNotFound
			}
			if tournament.CloseMode == "" {
				tournament.CloseMode = group.Settings.CloseMode
				tournament.CloseMinutesBefore = group.Settings.CloseMinutesBefore
			}
			if tournament.CancelMinutesBefore == 0 {
				tournament.CancelMinutesBefore = group.Settings.CancelMinutesBefore
			}
		}

		return s.store.CreateTournament(ctx, tournament)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tournament created",
		zap.Int64("tournament_id", tournament.ID),
		zap.String("title", tournament.Title),
		zap.Int("waitlist_limit", tournament.WaitlistLimit))

	return tournament, nil
}

// CancelTournament деактивирует турнир
func (s *AdminService) CancelTournament(ctx context.Context, id int64) error {
	return s.store.DeactivateTournament(ctx, id)
}

// UpcomingSlots получает будущие тренировки группы
func (s *AdminService) UpcomingSlots(ctx context.Context, groupID int64, from time.Time) ([]*model.TrainingSlot, error) {
	return s.store.UpcomingSlotsByGroup(ctx, groupID, from)
}

// UpcomingTournaments получает будущие турниры: все или доступные группе
func (s *AdminService) UpcomingTournaments(ctx context.Context, groupID int64, from time.Time) ([]*model.Tournament, error) {
	if groupID == 0 {
		return s.store.UpcomingTournaments(ctx, from)
	}
	return s.store.UpcomingTournamentsForGroup(ctx, groupID, from)
}

// PaymentSettings получает реквизиты оплаты
func (s *AdminService) PaymentSettings(ctx context.Context) (*model.PaymentSettings, error) {
	return s.store.PaymentSettings(ctx)
}

// UpdatePaymentSettings обновляет реквизиты оплаты
func (s *AdminService) UpdatePaymentSettings(ctx context.Context, text string, amount int) error {
	err := s.store.UpdatePaymentSettings(ctx, &model.PaymentSettings{
		Text:   text,
		Amount: amount,
	})
	if err != nil {
		return err
	}

	s.logger.Info("Payment settings updated", zap.Int("amount", amount))
	return nil
}
