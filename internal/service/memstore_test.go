package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository"
)

// memStore хранилище в памяти для тестов движка. Реализует EnrollmentStore
// и DispatchStore; транзакции не эмулирует, вызовы идут напрямую.
type memStore struct {
	users       map[int64]*model.User
	slots       map[int64]*model.TrainingSlot
	tournaments map[int64]*model.Tournament
	bookings    map[int64]*model.Booking
	payments    map[int64]*model.Payment // по ID брони
	notices     map[string]bool
	nextID      int64
	clock       time.Time // монотонный created_at для детерминизма FIFO
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[int64]*model.User),
		slots:       make(map[int64]*model.TrainingSlot),
		tournaments: make(map[int64]*model.Tournament),
		bookings:    make(map[int64]*model.Booking),
		payments:    make(map[int64]*model.Payment),
		notices:     make(map[string]bool),
		clock:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) addUser(id, groupID int64) *model.User {
	u := &model.User{ID: id, GroupID: groupID, FullName: fmt.Sprintf("user %d", id)}
	m.users[id] = u
	return u
}

func (m *memStore) addSlot(groupID int64, startsAt time.Time, capacity int, settings *model.GroupSettings) *model.TrainingSlot {
	s := &model.TrainingSlot{
		ID:       m.id(),
		GroupID:  groupID,
		StartsAt: startsAt,
		Capacity: capacity,
		IsActive: true,
		Settings: settings,
	}
	m.slots[s.ID] = s
	return s
}

func (m *memStore) addTournament(t *model.Tournament) *model.Tournament {
	t.ID = m.id()
	t.IsActive = true
	m.tournaments[t.ID] = t
	return t
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) UserByID(_ context.Context, id int64) (*model.User, error) {
	return m.users[id], nil
}

func (m *memStore) TrainingSlotByID(_ context.Context, id int64) (*model.TrainingSlot, error) {
	return m.slots[id], nil
}

func (m *memStore) TrainingSlotForUpdate(ctx context.Context, id int64) (*model.TrainingSlot, error) {
	return m.TrainingSlotByID(ctx, id)
}

func (m *memStore) TournamentByID(_ context.Context, id int64) (*model.Tournament, error) {
	return m.tournaments[id], nil
}

func (m *memStore) TournamentForUpdate(ctx context.Context, id int64) (*model.Tournament, error) {
	return m.TournamentByID(ctx, id)
}

func (m *memStore) CreateBooking(_ context.Context, booking *model.Booking) error {
	if !booking.User.IsGuest() {
		for _, b := range m.bookings {
			if b.User.ID == booking.User.ID &&
				b.EntityType == booking.EntityType && b.EntityID == booking.EntityID &&
				b.Status != model.BookingStatusCancelled {
				return repository.ErrDuplicateActiveBooking
			}
		}
	}
	booking.ID = m.id()
	booking.CreatedAt = m.tick()
	booking.UpdatedAt = booking.CreatedAt
	m.bookings[booking.ID] = booking
	return nil
}

func (m *memStore) BookingByID(_ context.Context, id int64) (*model.Booking, error) {
	return m.bookings[id], nil
}

func (m *memStore) CurrentBooking(_ context.Context, userID int64, entityType model.EntityType, entityID int64) (*model.Booking, error) {
	for _, b := range m.bookings {
		if !b.User.IsGuest() && b.User.ID == userID &&
			b.EntityType == entityType && b.EntityID == entityID &&
			b.Status != model.BookingStatusCancelled {
			// Копия, как свежая строка из базы: иначе правки вызывающего
			// через указатель меняют само хранилище
			found := *b
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) ActiveSeatCount(_ context.Context, entityType model.EntityType, entityID int64) (int, error) {
	total := 0
	for _, b := range m.bookings {
		if b.EntityType == entityType && b.EntityID == entityID && b.Status == model.BookingStatusActive {
			total += b.Seats
		}
	}
	return total, nil
}

func (m *memStore) WaitlistCount(_ context.Context, entityType model.EntityType, entityID int64) (int, error) {
	count := 0
	for _, b := range m.bookings {
		if b.EntityType == entityType && b.EntityID == entityID && b.Status == model.BookingStatusWaitlist {
			count++
		}
	}
	return count, nil
}

func (m *memStore) SetBookingSeats(_ context.Context, id int64, seats int) error {
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("booking %d not found", id)
	}
	b.Seats = seats
	return nil
}

func (m *memStore) CancelBooking(_ context.Context, id int64) error {
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("booking %d not found", id)
	}
	b.Status = model.BookingStatusCancelled
	return nil
}

func (m *memStore) OldestWaitlisted(_ context.Context, entityType model.EntityType, entityID int64) (*model.Booking, error) {
	var waiting []*model.Booking
	for _, b := range m.bookings {
		if b.EntityType == entityType && b.EntityID == entityID && b.Status == model.BookingStatusWaitlist {
			waiting = append(waiting, b)
		}
	}
	if len(waiting) == 0 {
		return nil, nil
	}
	sort.Slice(waiting, func(i, j int) bool {
		if !waiting[i].CreatedAt.Equal(waiting[j].CreatedAt) {
			return waiting[i].CreatedAt.Before(waiting[j].CreatedAt)
		}
		return waiting[i].ID < waiting[j].ID
	})
	return waiting[0], nil
}

func (m *memStore) ActivateBooking(_ context.Context, id int64) error {
	b, ok := m.bookings[id]
	if !ok || b.Status != model.BookingStatusWaitlist {
		return fmt.Errorf("booking %d is not waitlisted", id)
	}
	b.Status = model.BookingStatusActive
	return nil
}

func (m *memStore) Roster(_ context.Context, entityType model.EntityType, entityID int64, status model.BookingStatus) ([]*model.RosterEntry, error) {
	var entries []*model.RosterEntry
	for _, b := range m.bookings {
		if b.EntityType != entityType || b.EntityID != entityID || b.Status != status {
			continue
		}
		entry := &model.RosterEntry{
			BookingID: b.ID,
			User:      b.User,
			Seats:     b.Seats,
			Status:    b.Status,
			CreatedAt: b.CreatedAt,
		}
		if u := m.users[b.User.ID]; u != nil {
			entry.FullName = u.FullName
			entry.Username = u.Username
		}
		if p := m.payments[b.ID]; p != nil {
			entry.PaymentStatus = p.Status
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

func (m *memStore) BookingsForUser(_ context.Context, userID int64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.bookings {
		if !b.User.IsGuest() && b.User.ID == userID && b.Status != model.BookingStatusCancelled {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) CreatePayment(_ context.Context, payment *model.Payment) error {
	payment.ID = m.id()
	payment.CreatedAt = m.clock
	m.payments[payment.BookingID] = payment
	return nil
}

func (m *memStore) PaymentByBookingID(_ context.Context, bookingID int64) (*model.Payment, error) {
	return m.payments[bookingID], nil
}

func (m *memStore) SetPaymentStatus(_ context.Context, bookingID int64, status model.PaymentStatus, confirmedBy int64, confirmedAt time.Time) error {
	p, ok := m.payments[bookingID]
	if !ok {
		return fmt.Errorf("payment for booking %d not found", bookingID)
	}
	p.Status = status
	p.ConfirmedBy = &confirmedBy
	p.ConfirmedAt = &confirmedAt
	return nil
}

func (m *memStore) SlotsStartingWithin(_ context.Context, from, until time.Time) ([]*model.TrainingSlot, error) {
	var out []*model.TrainingSlot
	for _, s := range m.slots {
		if s.IsActive && !s.StartsAt.Before(from) && s.StartsAt.Before(until) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) NotifyRecipients(_ context.Context, groupID int64) ([]*model.User, error) {
	var out []*model.User
	for _, u := range m.users {
		if u.GroupID == groupID && u.NotifyOnOpen {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) BookedUserIDs(_ context.Context, entityType model.EntityType, entityID int64) ([]int64, error) {
	var out []int64
	for _, b := range m.bookings {
		if b.EntityType == entityType && b.EntityID == entityID &&
			b.Status != model.BookingStatusCancelled && !b.User.IsGuest() {
			out = append(out, b.User.ID)
		}
	}
	return out, nil
}

func (m *memStore) ClaimSlotNotice(_ context.Context, userID, slotID int64) (bool, error) {
	key := fmt.Sprintf("%d:%d", userID, slotID)
	if m.notices[key] {
		return false, nil
	}
	m.notices[key] = true
	return true, nil
}

// sentNotice одно доставленное уведомление
type sentNotice struct {
	userID int64
	n      Notification
}

// recordingGateway шлюз, который запоминает отправленное
type recordingGateway struct {
	sent []sentNotice
	err  error
}

func (g *recordingGateway) Notify(_ context.Context, userID int64, n Notification) error {
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentNotice{userID: userID, n: n})
	return nil
}
