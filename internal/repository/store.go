package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

// ErrDuplicateActiveBooking нарушение частичного уникального индекса:
// у пользователя уже есть незавершённая бронь на это событие.
var ErrDuplicateActiveBooking = errors.New("duplicate active booking")

// Store объединяет репозитории и даёт сервисам единую точку доступа к базе.
type Store struct {
	pool *pgxpool.Pool

	groups        *GroupRepository
	users         *UserRepository
	invites       *InviteRepository
	slots         *SlotRepository
	schedules     *WeeklyScheduleRepository
	tournaments   *TournamentRepository
	bookings      *BookingRepository
	payments      *PaymentRepository
	notifications *NotificationRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:          pool,
		groups:        NewGroupRepository(pool),
		users:         NewUserRepository(pool),
		invites:       NewInviteRepository(pool),
		slots:         NewSlotRepository(pool),
		schedules:     NewWeeklyScheduleRepository(pool),
		tournaments:   NewTournamentRepository(pool),
		bookings:      NewBookingRepository(pool),
		payments:      NewPaymentRepository(pool),
		notifications: NewNotificationRepository(pool),
	}
}

// WithinTx выполняет fn в транзакции. Все вызовы репозиториев внутри fn
// идут через неё. Вложенный вызов переиспользует уже открытую транзакцию.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := base.TxFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(base.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// --- Пользователи ---

func (s *Store) UpsertUser(ctx context.Context, user *model.User) error {
	return s.users.Upsert(ctx, user)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Store) SetUserGroup(ctx context.Context, userID, groupID int64) error {
	return s.users.SetGroup(ctx, userID, groupID)
}

func (s *Store) SetNotifyOnOpen(ctx context.Context, userID int64, enabled bool) error {
	return s.users.SetNotifyOnOpen(ctx, userID, enabled)
}

func (s *Store) NotifyRecipients(ctx context.Context, groupID int64) ([]*model.User, error) {
	return s.users.NotifyRecipients(ctx, groupID)
}

// --- Группы ---

func (s *Store) CreateGroup(ctx context.Context, group *model.Group) error {
	return s.groups.Create(ctx, group)
}

func (s *Store) GroupByID(ctx context.Context, id int64) (*model.Group, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *Store) Groups(ctx context.Context) ([]*model.Group, error) {
	return s.groups.ListActive(ctx)
}

func (s *Store) UpdateGroupSettings(ctx context.Context, settings *model.GroupSettings) error {
	return s.groups.UpdateSettings(ctx, settings)
}

func (s *Store) DeactivateGroup(ctx context.Context, id int64) error {
	return s.groups.Deactivate(ctx, id)
}

// --- Приглашения ---

func (s *Store) CreateInvite(ctx context.Context, invite *model.Invite) error {
	return s.invites.Create(ctx, invite)
}

func (s *Store) InviteByToken(ctx context.Context, token string) (*model.Invite, error) {
	return s.invites.GetByToken(ctx, token)
}

func (s *Store) DeactivateInvite(ctx context.Context, token string) error {
	return s.invites.Deactivate(ctx, token)
}

// --- Тренировки ---

func (s *Store) CreateTrainingSlot(ctx context.Context, slot *model.TrainingSlot) error {
	return s.slots.Create(ctx, slot)
}

func (s *Store) TrainingSlotByID(ctx context.Context, id int64) (*model.TrainingSlot, error) {
	return s.slots.GetByID(ctx, id)
}

func (s *Store) TrainingSlotForUpdate(ctx context.Context, id int64) (*model.TrainingSlot, error) {
	return s.slots.GetByIDForUpdate(ctx, id)
}

func (s *Store) SlotExists(ctx context.Context, groupID int64, startsAt time.Time) (bool, error) {
	return s.slots.Exists(ctx, groupID, startsAt)
}

func (s *Store) UpcomingSlotsByGroup(ctx context.Context, groupID int64, from time.Time) ([]*model.TrainingSlot, error) {
	return s.slots.UpcomingByGroup(ctx, groupID, from)
}

func (s *Store) SlotsStartingWithin(ctx context.Context, from, until time.Time) ([]*model.TrainingSlot, error) {
	return s.slots.UpcomingWithin(ctx, from, until)
}

func (s *Store) AddSlotCapacity(ctx context.Context, id int64, delta int) (int, error) {
	return s.slots.AddCapacity(ctx, id, delta)
}

func (s *Store) DeactivateTrainingSlot(ctx context.Context, id int64) error {
	return s.slots.Deactivate(ctx, id)
}

// --- Недельное расписание ---

func (s *Store) CreateWeeklySchedule(ctx context.Context, schedule *model.WeeklySchedule) error {
	return s.schedules.Create(ctx, schedule)
}

func (s *Store) ActiveWeeklySchedules(ctx context.Context) ([]*model.WeeklySchedule, error) {
	return s.schedules.ListActive(ctx)
}

func (s *Store) DeactivateWeeklySeries(ctx context.Context, seriesID uuid.UUID) (int64, error) {
	return s.schedules.DeactivateSeries(ctx, seriesID)
}

// --- Турниры ---

func (s *Store) CreateTournament(ctx context.Context, tournament *model.Tournament) error {
	return s.tournaments.Create(ctx, tournament)
}

func (s *Store) TournamentByID(ctx context.Context, id int64) (*model.Tournament, error) {
	return s.tournaments.GetByID(ctx, id)
}

func (s *Store) TournamentForUpdate(ctx context.Context, id int64) (*model.Tournament, error) {
	return s.tournaments.GetByIDForUpdate(ctx, id)
}

func (s *Store) UpcomingTournamentsForGroup(ctx context.Context, groupID int64, from time.Time) ([]*model.Tournament, error) {
	return s.tournaments.UpcomingForGroup(ctx, groupID, from)
}

func (s *Store) UpcomingTournaments(ctx context.Context, from time.Time) ([]*model.Tournament, error) {
	return s.tournaments.Upcoming(ctx, from)
}

func (s *Store) DeactivateTournament(ctx context.Context, id int64) error {
	return s.tournaments.Deactivate(ctx, id)
}

// --- Брони ---

func (s *Store) CreateBooking(ctx context.Context, booking *model.Booking) error {
	err := s.bookings.Create(ctx, booking)
	if base.IsUniqueViolation(err) {
		return ErrDuplicateActiveBooking
	}
	return err
}

func (s *Store) BookingByID(ctx context.Context, id int64) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Store) CurrentBooking(ctx context.Context, userID int64, entityType model.EntityType, entityID int64) (*model.Booking, error) {
	return s.bookings.CurrentFor(ctx, userID, entityType, entityID)
}

func (s *Store) ActiveSeatCount(ctx context.Context, entityType model.EntityType, entityID int64) (int, error) {
	return s.bookings.ActiveSeatCount(ctx, entityType, entityID)
}

func (s *Store) WaitlistCount(ctx context.Context, entityType model.EntityType, entityID int64) (int, error) {
	return s.bookings.WaitlistCount(ctx, entityType, entityID)
}

func (s *Store) SetBookingSeats(ctx context.Context, id int64, seats int) error {
	return s.bookings.SetSeats(ctx, id, seats)
}

func (s *Store) CancelBooking(ctx context.Context, id int64) error {
	return s.bookings.Cancel(ctx, id)
}

func (s *Store) OldestWaitlisted(ctx context.Context, entityType model.EntityType, entityID int64) (*model.Booking, error) {
	return s.bookings.OldestWaitlisted(ctx, entityType, entityID)
}

func (s *Store) ActivateBooking(ctx context.Context, id int64) error {
	return s.bookings.Activate(ctx, id)
}

func (s *Store) Roster(ctx context.Context, entityType model.EntityType, entityID int64, status model.BookingStatus) ([]*model.RosterEntry, error) {
	return s.bookings.RosterByEntity(ctx, entityType, entityID, status)
}

func (s *Store) BookingsForUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	return s.bookings.ListForUser(ctx, userID)
}

func (s *Store) BookedUserIDs(ctx context.Context, entityType model.EntityType, entityID int64) ([]int64, error) {
	return s.bookings.BookedUserIDs(ctx, entityType, entityID)
}

// --- Оплаты ---

func (s *Store) PaymentByBookingID(ctx context.Context, bookingID int64) (*model.Payment, error) {
	return s.payments.GetByBookingID(ctx, bookingID)
}

func (s *Store) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return s.payments.Create(ctx, payment)
}

func (s *Store) SetPaymentStatus(ctx context.Context, bookingID int64, status model.PaymentStatus, confirmedBy int64, confirmedAt time.Time) error {
	return s.payments.SetStatus(ctx, bookingID, status, confirmedBy, confirmedAt)
}

func (s *Store) PaymentSettings(ctx context.Context) (*model.PaymentSettings, error) {
	return s.payments.Settings(ctx)
}

func (s *Store) UpdatePaymentSettings(ctx context.Context, settings *model.PaymentSettings) error {
	return s.payments.UpdateSettings(ctx, settings)
}

// --- Уведомления ---

func (s *Store) ClaimSlotNotice(ctx context.Context, userID, slotID int64) (bool, error) {
	return s.notifications.ClaimSlot(ctx, userID, slotID)
}
