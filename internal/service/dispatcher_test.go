package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mbazhenoff/trainings_bot/internal/model"
)

type mockGateway struct {
	mock.Mock
}

func (g *mockGateway) Notify(ctx context.Context, userID int64, n Notification) error {
	args := g.Called(ctx, userID, n)
	return args.Error(0)
}

func TestScanSlotOpenings_NotifiesSubscribers(t *testing.T) {
	store := newMemStore()
	subscriber := store.addUser(100, 1)
	subscriber.NotifyOnOpen = true
	optedOut := store.addUser(101, 1)
	optedOut.NotifyOnOpen = false
	otherGroup := store.addUser(102, 2)
	otherGroup.NotifyOnOpen = true
	slot := store.addSlot(1, slotStart, 8, groupSettings(1))

	gw := &mockGateway{}
	gw.On("Notify", mock.Anything, int64(100), mock.MatchedBy(func(n Notification) bool {
		return n.Kind == NotifySlotOpened && n.EntityID == slot.ID
	})).Return(nil).Once()

	d := NewDispatcher(store, gw, zap.NewNop())
	require.NoError(t, d.ScanSlotOpenings(context.Background(), slotOpen.Add(30*time.Second)))

	gw.AssertExpectations(t)
}

func TestScanSlotOpenings_SkipsAlreadyBooked(t *testing.T) {
	store := newMemStore()
	booked := store.addUser(100, 1)
	booked.NotifyOnOpen = true
	slot := store.addSlot(1, slotStart, 8, groupSettings(1))
	ctx := context.Background()

	require.NoError(t, store.CreateBooking(ctx, &model.Booking{
		User:       model.RegisteredUser(100),
		EntityType: model.EntityTraining,
		EntityID:   slot.ID,
		Status:     model.BookingStatusActive,
		Seats:      1,
	}))

	gw := &mockGateway{}
	d := NewDispatcher(store, gw, zap.NewNop())
	require.NoError(t, d.ScanSlotOpenings(ctx, slotOpen.Add(30*time.Second)))

	gw.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestScanSlotOpenings_OutsideFirstMinute(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
	}{
		{name: "before open", now: slotOpen.Add(-time.Second)},
		{name: "minute passed", now: slotOpen.Add(2 * time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			subscriber := store.addUser(100, 1)
			subscriber.NotifyOnOpen = true
			store.addSlot(1, slotStart, 8, groupSettings(1))

			gw := &mockGateway{}
			d := NewDispatcher(store, gw, zap.NewNop())
			require.NoError(t, d.ScanSlotOpenings(context.Background(), tt.now))

			gw.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestScanSlotOpenings_ClaimPreventsRepeat(t *testing.T) {
	store := newMemStore()
	subscriber := store.addUser(100, 1)
	subscriber.NotifyOnOpen = true
	store.addSlot(1, slotStart, 8, groupSettings(1))

	gw := &mockGateway{}
	gw.On("Notify", mock.Anything, int64(100), mock.Anything).Return(nil).Once()

	d := NewDispatcher(store, gw, zap.NewNop())
	ctx := context.Background()

	// Два тика внутри одной минуты, уведомление одно
	require.NoError(t, d.ScanSlotOpenings(ctx, slotOpen.Add(10*time.Second)))
	require.NoError(t, d.ScanSlotOpenings(ctx, slotOpen.Add(40*time.Second)))

	gw.AssertExpectations(t)
	gw.AssertNumberOfCalls(t, "Notify", 1)
}

func TestScanSlotOpenings_DeliveryFailureDoesNotStopScan(t *testing.T) {
	store := newMemStore()
	for id := int64(100); id < 102; id++ {
		u := store.addUser(id, 1)
		u.NotifyOnOpen = true
	}
	store.addSlot(1, slotStart, 8, groupSettings(1))

	gw := &mockGateway{}
	gw.On("Notify", mock.Anything, int64(100), mock.Anything).Return(errors.New("blocked by user")).Once()
	gw.On("Notify", mock.Anything, int64(101), mock.Anything).Return(nil).Once()

	d := NewDispatcher(store, gw, zap.NewNop())
	require.NoError(t, d.ScanSlotOpenings(context.Background(), slotOpen.Add(30*time.Second)))

	gw.AssertExpectations(t)
}

func TestNotifyPromoted(t *testing.T) {
	store := newMemStore()

	gw := &mockGateway{}
	gw.On("Notify", mock.Anything, int64(100), mock.MatchedBy(func(n Notification) bool {
		return n.Kind == NotifyWaitlistPromoted && n.Title == "Кубок клуба"
	})).Return(nil).Once()

	d := NewDispatcher(store, gw, zap.NewNop())
	d.NotifyPromoted(context.Background(), &model.Booking{
		ID:         7,
		User:       model.RegisteredUser(100),
		EntityType: model.EntityTournament,
		EntityID:   3,
	}, "Кубок клуба", slotStart)

	gw.AssertExpectations(t)
}

func TestNotifyPromoted_SkipsGuests(t *testing.T) {
	gw := &mockGateway{}
	d := NewDispatcher(newMemStore(), gw, zap.NewNop())

	d.NotifyPromoted(context.Background(), &model.Booking{
		User:       model.GuestUser("гость"),
		EntityType: model.EntityTraining,
		EntityID:   1,
	}, "", slotStart)

	gw.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyPromoted_SwallowsDeliveryError(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Notify", mock.Anything, int64(100), mock.Anything).Return(errors.New("network down")).Once()

	d := NewDispatcher(newMemStore(), gw, zap.NewNop())
	d.NotifyPromoted(context.Background(), &model.Booking{
		User:       model.RegisteredUser(100),
		EntityType: model.EntityTraining,
		EntityID:   1,
	}, "", slotStart)

	gw.AssertExpectations(t)
}
