package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository"
	"github.com/mbazhenoff/trainings_bot/internal/timewindow"
	"go.uber.org/zap"
)

// EnrollmentStore срез хранилища, нужный движку записи.
// Реализуется *repository.Store; в тестах подменяется памятью.
type EnrollmentStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	UserByID(ctx context.Context, id int64) (*model.User, error)

	TrainingSlotByID(ctx context.Context, id int64) (*model.TrainingSlot, error)
	TrainingSlotForUpdate(ctx context.Context, id int64) (*model.TrainingSlot, error)
	TournamentByID(ctx context.Context, id int64) (*model.Tournament, error)
	TournamentForUpdate(ctx context.Context, id int64) (*model.Tournament, error)

	CreateBooking(ctx context.Context, booking *model.Booking) error
	BookingByID(ctx context.Context, id int64) (*model.Booking, error)
	CurrentBooking(ctx context.Context, userID int64, entityType model.EntityType, entityID int64) (*model.Booking, error)
	ActiveSeatCount(ctx context.Context, entityType model.EntityType, entityID int64) (int, error)
	WaitlistCount(ctx context.Context, entityType model.EntityType, entityID int64) (int, error)
	SetBookingSeats(ctx context.Context, id int64, seats int) error
	CancelBooking(ctx context.Context, id int64) error
	OldestWaitlisted(ctx context.Context, entityType model.EntityType, entityID int64) (*model.Booking, error)
	ActivateBooking(ctx context.Context, id int64) error
	Roster(ctx context.Context, entityType model.EntityType, entityID int64, status model.BookingStatus) ([]*model.RosterEntry, error)
	BookingsForUser(ctx context.Context, userID int64) ([]*model.Booking, error)

	CreatePayment(ctx context.Context, payment *model.Payment) error
	PaymentByBookingID(ctx context.Context, bookingID int64) (*model.Payment, error)
	SetPaymentStatus(ctx context.Context, bookingID int64, status model.PaymentStatus, confirmedBy int64, confirmedAt time.Time) error
}

// EnrollmentService движок записи: решает, может ли пользователь записаться,
// отписаться или подняться из списка ожидания, и держит инварианты
// вместимости под конкурентными запросами.
type EnrollmentService struct {
	store      EnrollmentStore
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewEnrollmentService(store EnrollmentStore, dispatcher *Dispatcher, logger *zap.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// entityInfo событие, приведённое к общему виду: правила записи плюс группы,
// которым оно доступно
type entityInfo struct {
	policy model.BookingPolicy
	groups []int64
	title  string
}

// lockEntity получает событие, блокируя его строку до конца транзакции.
// Проверка вместимости и вставка брони по одному событию сериализуются
// этой блокировкой.
func (s *EnrollmentService) lockEntity(ctx context.Context, entityType model.EntityType, entityID int64) (*entityInfo, error) {
	switch entityType {
	case model.EntityTraining:
		slot, err := s.store.TrainingSlotForUpdate(ctx, entityID)
		if err != nil {
			return nil, err
		}
		if slot == nil || !slot.IsActive {
			return nil, ErrEntityNotFound
		}
		return &entityInfo{
			policy: slot.Policy(),
			groups: []int64{slot.GroupID},
			title:  slot.Note,
		}, nil

	case model.EntityTournament:
		tournament, err := s.store.TournamentForUpdate(ctx, entityID)
		if err != nil {
			return nil, err
		}
		if tournament == nil || !tournament.IsActive {
			return nil, ErrEntityNotFound
		}
		return &entityInfo{
			policy: tournament.Policy(),
			groups: tournament.GroupIDs,
			title:  tournament.Title,
		}, nil

	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
}

func memberOf(groups []int64, groupID int64) bool {
	for _, id := range groups {
		if id == groupID {
			return true
		}
	}
	return false
}

// Join записывает пользователя на событие. Если мест нет, а у события есть
// список ожидания со свободным местом, бронь встаёт в очередь.
func (s *EnrollmentService) Join(ctx context.Context, userID int64, entityType model.EntityType, entityID int64, now time.Time) (*model.Booking, error) {
	var booking *model.Booking

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.store.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		info, err := s.lockEntity(ctx, entityType, entityID)
		if err != nil {
			return err
		}

		if !memberOf(info.groups, user.GroupID) {
			return ErrNotYourGroup
		}

		windows, err := timewindow.ForPolicy(info.policy)
		if err != nil {
			return err
		}
		if windows.TooEarly(now) {
			return ErrTooEarly
		}
		if windows.Closed(now) {
			return ErrClosed
		}

		existing, err := s.store.CurrentBooking(ctx, userID, entityType, entityID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyEnrolled
		}

		status, err := s.placeFor(ctx, info, entityType, entityID, 1)
		if err != nil {
			return err
		}

		booking = &model.Booking{
			User:       model.RegisteredUser(userID),
			EntityType: entityType,
			EntityID:   entityID,
			Status:     status,
			Seats:      1,
		}
		if err := s.createWithPayment(ctx, booking); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User joined",
		zap.Int64("user_id", userID),
		zap.String("entity_type", string(entityType)),
		zap.Int64("entity_id", entityID),
		zap.String("status", string(booking.Status)))

	return booking, nil
}

// placeFor решает, куда встаёт новая бронь на seats мест:
// в активные, в список ожидания или никуда
func (s *EnrollmentService) placeFor(ctx context.Context, info *entityInfo, entityType model.EntityType, entityID int64, seats int) (model.BookingStatus, error) {
	taken, err := s.store.ActiveSeatCount(ctx, entityType, entityID)
	if err != nil {
		return "", err
	}
	if taken+seats <= info.policy.Capacity {
		return model.BookingStatusActive, nil
	}

	if info.policy.WaitlistLimit > 0 {
		depth, err := s.store.WaitlistCount(ctx, entityType, entityID)
		if err != nil {
			return "", err
		}
		if depth < info.policy.WaitlistLimit {
			return model.BookingStatusWaitlist, nil
		}
	}

	return "", ErrFull
}

// createWithPayment создаёт бронь и сразу запись об оплате к ней
func (s *EnrollmentService) createWithPayment(ctx context.Context, booking *model.Booking) error {
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveBooking) {
			return ErrDuplicateActiveBooking
		}
		return err
	}

	payment := &model.Payment{
		BookingID: booking.ID,
		Status:    model.PaymentStatusPending,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return err
	}
	booking.Payment = payment

	return nil
}

// JoinSecondSeat добавляет второе место к активной брони пользователя:
// для спутника без собственного аккаунта. Новая бронь не создаётся.
func (s *EnrollmentService) JoinSecondSeat(ctx context.Context, userID int64, entityType model.EntityType, entityID int64, now time.Time) (*model.Booking, error) {
	var booking *model.Booking

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.store.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		info, err := s.lockEntity(ctx, entityType, entityID)
		if err != nil {
			return err
		}

		if !memberOf(info.groups, user.GroupID) {
			return ErrNotYourGroup
		}

		windows, err := timewindow.ForPolicy(info.policy)
		if err != nil {
			return err
		}
		if windows.TooEarly(now) {
			return ErrTooEarly
		}
		if windows.Closed(now) {
			return ErrClosed
		}

		existing, err := s.store.CurrentBooking(ctx, userID, entityType, entityID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotEnrolled
		}
		// Второе место только поверх активной брони на одно место:
		// из списка ожидания спутника не добавить
		if existing.Status != model.BookingStatusActive || existing.Seats >= model.MaxSeats {
			return ErrAlreadyEnrolled
		}

		taken, err := s.store.ActiveSeatCount(ctx, entityType, entityID)
		if err != nil {
			return err
		}
		if taken >= info.policy.Capacity {
			return ErrFull
		}

		if err := s.store.SetBookingSeats(ctx, existing.ID, existing.Seats+1); err != nil {
			return err
		}

		existing.Seats++
		booking = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Second seat added",
		zap.Int64("user_id", userID),
		zap.String("entity_type", string(entityType)),
		zap.Int64("entity_id", entityID),
		zap.Int64("booking_id", booking.ID))

	return booking, nil
}

// LeaveOutcome результат отписки
type LeaveOutcome struct {
	Booking      *model.Booking
	SeatReleased bool           // Освобождено место спутника, своя бронь осталась
	Promoted     *model.Booking // Кто поднялся из списка ожидания, если кто-то поднялся
}

// Leave отписывает пользователя. Бронь на два места сначала теряет место
// спутника. Полная отмена активной брони поднимает самую раннюю бронь
// из списка ожидания на освободившееся место.
func (s *EnrollmentService) Leave(ctx context.Context, userID int64, entityType model.EntityType, entityID int64, now time.Time) (*LeaveOutcome, error) {
	outcome := &LeaveOutcome{}
	var title string
	var startsAt time.Time

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		info, err := s.lockEntity(ctx, entityType, entityID)
		if err != nil {
			return err
		}
		title = info.title
		startsAt = info.policy.StartsAt

		booking, err := s.store.CurrentBooking(ctx, userID, entityType, entityID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrNotEnrolled
		}

		windows, err := timewindow.ForPolicy(info.policy)
		if err != nil {
			return err
		}
		if !windows.CancelAllowed(now) {
			return ErrCancelWindowClosed
		}

		if booking.Seats > 1 {
			if err := s.store.SetBookingSeats(ctx, booking.ID, booking.Seats-1); err != nil {
				return err
			}
			booking.Seats--
			outcome.Booking = booking
			outcome.SeatReleased = true
			return nil
		}

		wasActive := booking.Status == model.BookingStatusActive
		if err := s.store.CancelBooking(ctx, booking.ID); err != nil {
			return err
		}
		booking.Status = model.BookingStatusCancelled
		outcome.Booking = booking

		// Место освободила только активная бронь; уход из списка ожидания
		// никого не поднимает
		if !wasActive {
			return nil
		}

		next, err := s.store.OldestWaitlisted(ctx, entityType, entityID)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		if err := s.store.ActivateBooking(ctx, next.ID); err != nil {
			return err
		}
		next.Status = model.BookingStatusActive
		outcome.Promoted = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User left",
		zap.Int64("user_id", userID),
		zap.String("entity_type", string(entityType)),
		zap.Int64("entity_id", entityID),
		zap.Bool("seat_released", outcome.SeatReleased),
		zap.Bool("promoted", outcome.Promoted != nil))

	// Уведомление после коммита: бронь уже поднята, доставка — best effort
	if outcome.Promoted != nil {
		s.dispatcher.NotifyPromoted(ctx, outcome.Promoted, title, startsAt)
	}

	return outcome, nil
}

// AdminBook записывает гостя без аккаунта: участника, которого администратор
// добавляет вручную. Окно записи не проверяется, вместимость — проверяется.
func (s *EnrollmentService) AdminBook(ctx context.Context, entityType model.EntityType, entityID int64, guestName string) (*model.Booking, error) {
	if guestName == "" {
		return nil, fmt.Errorf("guest name is empty")
	}

	var booking *model.Booking

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		info, err := s.lockEntity(ctx, entityType, entityID)
		if err != nil {
			return err
		}

		taken, err := s.store.ActiveSeatCount(ctx, entityType, entityID)
		if err != nil {
			return err
		}
		if taken >= info.policy.Capacity {
			return ErrFull
		}

		booking = &model.Booking{
			User:       model.GuestUser(guestName),
			EntityType: entityType,
			EntityID:   entityID,
			Status:     model.BookingStatusActive,
			Seats:      1,
		}
		return s.createWithPayment(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Guest booked by admin",
		zap.String("guest_name", guestName),
		zap.String("entity_type", string(entityType)),
		zap.Int64("entity_id", entityID))

	return booking, nil
}

// TogglePayment переключает оплату брони между «ожидает» и «подтверждена»,
// запоминая, какой администратор переключил последним. На саму запись
// не влияет: оплата и запись — независимые состояния.
func (s *EnrollmentService) TogglePayment(ctx context.Context, bookingID, adminID int64, now time.Time) (model.PaymentStatus, error) {
	var status model.PaymentStatus

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.store.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		payment, err := s.store.PaymentByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		if payment == nil {
			payment = &model.Payment{BookingID: bookingID, Status: model.PaymentStatusPending}
			if err := s.store.CreatePayment(ctx, payment); err != nil {
				return err
			}
		}

		if payment.Status == model.PaymentStatusConfirmed {
			status = model.PaymentStatusPending
		} else {
			status = model.PaymentStatusConfirmed
		}

		return s.store.SetPaymentStatus(ctx, bookingID, status, adminID, now)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Payment toggled",
		zap.Int64("booking_id", bookingID),
		zap.Int64("admin_id", adminID),
		zap.String("status", string(status)))

	return status, nil
}

// EntityStatus сводка события для показа: конфигурация, окна и счётчики мест
type EntityStatus struct {
	EntityType    model.EntityType
	EntityID      int64
	Title         string
	StartsAt      time.Time
	Capacity      int
	SeatsTaken    int
	SeatsFree     int
	WaitlistLimit int
	WaitlistDepth int
	Windows       timewindow.Windows
}

// Status собирает сводку события без блокировок: это чтение для показа,
// решения по ней не принимаются
func (s *EnrollmentService) Status(ctx context.Context, entityType model.EntityType, entityID int64) (*EntityStatus, error) {
	var info *entityInfo

	switch entityType {
	case model.EntityTraining:
		slot, err := s.store.TrainingSlotByID(ctx, entityID)
		if err != nil {
			return nil, err
		}
		if slot == nil || !slot.IsActive {
			return nil, ErrEntityNotFound
		}
		info = &entityInfo{policy: slot.Policy(), title: slot.Note}

	case model.EntityTournament:
		tournament, err := s.store.TournamentByID(ctx, entityID)
		if err != nil {
			return nil, err
		}
		if tournament == nil || !tournament.IsActive {
			return nil, ErrEntityNotFound
		}
		info = &entityInfo{policy: tournament.Policy(), title: tournament.Title}

	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	taken, err := s.store.ActiveSeatCount(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	depth, err := s.store.WaitlistCount(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	windows, err := timewindow.ForPolicy(info.policy)
	if err != nil {
		return nil, err
	}

	free := info.policy.Capacity - taken
	if free < 0 {
		free = 0
	}

	return &EntityStatus{
		EntityType:    entityType,
		EntityID:      entityID,
		Title:         info.title,
		StartsAt:      info.policy.StartsAt,
		Capacity:      info.policy.Capacity,
		SeatsTaken:    taken,
		SeatsFree:     free,
		WaitlistLimit: info.policy.WaitlistLimit,
		WaitlistDepth: depth,
		Windows:       windows,
	}, nil
}

// CurrentBooking получает незавершённую бронь пользователя на событие
func (s *EnrollmentService) CurrentBooking(ctx context.Context, userID int64, entityType model.EntityType, entityID int64) (*model.Booking, error) {
	return s.store.CurrentBooking(ctx, userID, entityType, entityID)
}

// Roster получает активных участников и список ожидания события
func (s *EnrollmentService) Roster(ctx context.Context, entityType model.EntityType, entityID int64) (active, waitlist []*model.RosterEntry, err error) {
	active, err = s.store.Roster(ctx, entityType, entityID, model.BookingStatusActive)
	if err != nil {
		return nil, nil, err
	}
	waitlist, err = s.store.Roster(ctx, entityType, entityID, model.BookingStatusWaitlist)
	if err != nil {
		return nil, nil, err
	}
	return active, waitlist, nil
}

// UserBookings получает незавершённые брони пользователя вместе с их событиями
func (s *EnrollmentService) UserBookings(ctx context.Context, userID int64) ([]*model.Booking, error) {
	bookings, err := s.store.BookingsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, booking := range bookings {
		switch booking.EntityType {
		case model.EntityTraining:
			booking.Training, err = s.store.TrainingSlotByID(ctx, booking.EntityID)
		case model.EntityTournament:
			booking.Tournament, err = s.store.TournamentByID(ctx, booking.EntityID)
		}
		if err != nil {
			return nil, err
		}
	}

	return bookings, nil
}
