package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mbazhenoff/trainings_bot/internal/model"
)

// adminMemStore хранилище в памяти для тестов административных операций
type adminMemStore struct {
	groups      map[int64]*model.Group
	invites     map[string]*model.Invite
	slots       map[int64]*model.TrainingSlot
	schedules   map[int64]*model.WeeklySchedule
	tournaments map[int64]*model.Tournament
	settings    *model.PaymentSettings
	nextID      int64
}

func newAdminMemStore() *adminMemStore {
	return &adminMemStore{
		groups:      make(map[int64]*model.Group),
		invites:     make(map[string]*model.Invite),
		slots:       make(map[int64]*model.TrainingSlot),
		schedules:   make(map[int64]*model.WeeklySchedule),
		tournaments: make(map[int64]*model.Tournament),
		settings:    &model.PaymentSettings{Text: "перевод на карту", Amount: 500},
	}
}

func (m *adminMemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *adminMemStore) addGroup(settings *model.GroupSettings) *model.Group {
	g := &model.Group{ID: m.id(), Title: fmt.Sprintf("группа %d", m.nextID), IsActive: true, Settings: settings}
	if settings != nil {
		settings.GroupID = g.ID
	}
	m.groups[g.ID] = g
	return g
}

func (m *adminMemStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *adminMemStore) CreateGroup(_ context.Context, group *model.Group) error {
	group.ID = m.id()
	group.IsActive = true
	m.groups[group.ID] = group
	return nil
}

func (m *adminMemStore) GroupByID(_ context.Context, id int64) (*model.Group, error) {
	return m.groups[id], nil
}

func (m *adminMemStore) Groups(_ context.Context) ([]*model.Group, error) {
	var out []*model.Group
	for _, g := range m.groups {
		if g.IsActive {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *adminMemStore) UpdateGroupSettings(_ context.Context, settings *model.GroupSettings) error {
	g, ok := m.groups[settings.GroupID]
	if !ok {
		return fmt.Errorf("group %d not found", settings.GroupID)
	}
	g.Settings = settings
	return nil
}

func (m *adminMemStore) DeactivateGroup(_ context.Context, id int64) error {
	if g, ok := m.groups[id]; ok {
		g.IsActive = false
	}
	return nil
}

func (m *adminMemStore) CreateInvite(_ context.Context, invite *model.Invite) error {
	invite.IsActive = true
	m.invites[invite.Token] = invite
	return nil
}

func (m *adminMemStore) DeactivateInvite(_ context.Context, token string) error {
	if inv, ok := m.invites[token]; ok {
		inv.IsActive = false
	}
	return nil
}

func (m *adminMemStore) CreateTrainingSlot(_ context.Context, slot *model.TrainingSlot) error {
	slot.ID = m.id()
	slot.IsActive = true
	m.slots[slot.ID] = slot
	return nil
}

func (m *adminMemStore) SlotExists(_ context.Context, groupID int64, startsAt time.Time) (bool, error) {
	for _, s := range m.slots {
		if s.GroupID == groupID && s.StartsAt.Equal(startsAt) && s.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *adminMemStore) UpcomingSlotsByGroup(_ context.Context, groupID int64, from time.Time) ([]*model.TrainingSlot, error) {
	var out []*model.TrainingSlot
	for _, s := range m.slots {
		if s.GroupID == groupID && s.IsActive && s.StartsAt.After(from) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *adminMemStore) AddSlotCapacity(_ context.Context, id int64, delta int) (int, error) {
	s, ok := m.slots[id]
	if !ok {
		return 0, fmt.Errorf("slot %d not found", id)
	}
	s.Capacity += delta
	return s.Capacity, nil
}

func (m *adminMemStore) DeactivateTrainingSlot(_ context.Context, id int64) error {
	if s, ok := m.slots[id]; ok {
		s.IsActive = false
	}
	return nil
}

func (m *adminMemStore) CreateWeeklySchedule(_ context.Context, schedule *model.WeeklySchedule) error {
	schedule.ID = m.id()
	schedule.IsActive = true
	m.schedules[schedule.ID] = schedule
	return nil
}

func (m *adminMemStore) ActiveWeeklySchedules(_ context.Context) ([]*model.WeeklySchedule, error) {
	var out []*model.WeeklySchedule
	for _, s := range m.schedules {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *adminMemStore) DeactivateWeeklySeries(_ context.Context, seriesID uuid.UUID) (int64, error) {
	var stopped int64
	for _, s := range m.schedules {
		if s.SeriesID == seriesID && s.IsActive {
			s.IsActive = false
			stopped++
		}
	}
	return stopped, nil
}

func (m *adminMemStore) CreateTournament(_ context.Context, tournament *model.Tournament) error {
	tournament.ID = m.id()
	tournament.IsActive = true
	m.tournaments[tournament.ID] = tournament
	return nil
}

func (m *adminMemStore) UpcomingTournaments(_ context.Context, from time.Time) ([]*model.Tournament, error) {
	var out []*model.Tournament
	for _, t := range m.tournaments {
		if t.IsActive && t.StartsAt.After(from) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *adminMemStore) UpcomingTournamentsForGroup(ctx context.Context, groupID int64, from time.Time) ([]*model.Tournament, error) {
	all, err := m.UpcomingTournaments(ctx, from)
	if err != nil {
		return nil, err
	}
	var out []*model.Tournament
	for _, t := range all {
		for _, id := range t.GroupIDs {
			if id == groupID {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func (m *adminMemStore) DeactivateTournament(_ context.Context, id int64) error {
	if t, ok := m.tournaments[id]; ok {
		t.IsActive = false
	}
	return nil
}

func (m *adminMemStore) PaymentSettings(_ context.Context) (*model.PaymentSettings, error) {
	return m.settings, nil
}

func (m *adminMemStore) UpdatePaymentSettings(_ context.Context, settings *model.PaymentSettings) error {
	m.settings = settings
	return nil
}

func newAdminService(store *adminMemStore) *AdminService {
	return NewAdminService(store, testZone, zap.NewNop())
}

func TestGenerateSlots(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	store.schedules[1] = &model.WeeklySchedule{
		ID:        1,
		GroupID:   group.ID,
		Weekday:   time.Monday,
		StartTime: "19:00",
		Capacity:  8,
		IsActive:  true,
		SeriesID:  uuid.New(),
	}
	svc := newAdminService(store)
	ctx := context.Background()

	// Четверг, ближайший понедельник через четыре дня
	now := time.Date(2026, 1, 22, 12, 0, 0, 0, testZone)

	created, err := svc.GenerateSlots(ctx, now, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	slots, err := svc.UpcomingSlots(ctx, group.ID, now)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, time.Date(2026, 1, 26, 19, 0, 0, 0, testZone), slots[0].StartsAt)
	assert.Equal(t, time.Monday, slots[3].StartsAt.Weekday())
	assert.Equal(t, 8, slots[0].Capacity)

	// Повторный запуск ничего не дублирует
	created, err = svc.GenerateSlots(ctx, now, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestGenerateSlots_SkipsPassedMoment(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	store.schedules[1] = &model.WeeklySchedule{
		ID:        1,
		GroupID:   group.ID,
		Weekday:   time.Monday,
		StartTime: "19:00",
		Capacity:  8,
		IsActive:  true,
		SeriesID:  uuid.New(),
	}
	svc := newAdminService(store)

	// Понедельник после начала тренировки: сегодняшний слот уже не нужен
	now := time.Date(2026, 1, 26, 20, 0, 0, 0, testZone)

	created, err := svc.GenerateSlots(context.Background(), now, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	slots, err := svc.UpcomingSlots(context.Background(), group.ID, now)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, time.Date(2026, 2, 2, 19, 0, 0, 0, testZone), slots[0].StartsAt)
}

func TestCreateWeeklySchedule(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)

	seriesID, err := svc.CreateWeeklySchedule(context.Background(), group.ID, []*model.WeeklySchedule{
		{Weekday: time.Monday, StartTime: "19:00", Capacity: 8},
		{Weekday: time.Thursday, StartTime: "20:30", Capacity: 6, Note: "спарринги"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, seriesID)

	for _, schedule := range store.schedules {
		assert.Equal(t, seriesID, schedule.SeriesID)
		assert.Equal(t, group.ID, schedule.GroupID)
	}

	stopped, err := svc.StopWeeklySeries(context.Background(), seriesID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stopped)
}

func TestCreateWeeklySchedule_BadTime(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)

	_, err := svc.CreateWeeklySchedule(context.Background(), group.ID, []*model.WeeklySchedule{
		{Weekday: time.Monday, StartTime: "вечером", Capacity: 8},
	})
	assert.Error(t, err)
}

func TestCreateTournament_InheritsGroupWindows(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(&model.GroupSettings{
		OpenDaysBefore:      2,
		OpenTime:            "10:00",
		CloseMode:           model.CloseMinutesBefore,
		CloseMinutesBefore:  90,
		CancelMinutesBefore: 240,
	})
	svc := newAdminService(store)

	tournament, err := svc.CreateTournament(context.Background(), &model.Tournament{
		Title:    "Кубок клуба",
		StartsAt: slotStart,
		Capacity: 16,
		GroupIDs: []int64{group.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, model.CloseMinutesBefore, tournament.CloseMode)
	assert.Equal(t, 90, tournament.CloseMinutesBefore)
	assert.Equal(t, 240, tournament.CancelMinutesBefore)
}

func TestCreateTournament_ExplicitWindowsWin(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)

	tournament, err := svc.CreateTournament(context.Background(), &model.Tournament{
		Title:               "Кубок клуба",
		StartsAt:            slotStart,
		Capacity:            16,
		CloseMode:           model.CloseAtStart,
		CancelMinutesBefore: 60,
		GroupIDs:            []int64{group.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, model.CloseAtStart, tournament.CloseMode)
	assert.Equal(t, 60, tournament.CancelMinutesBefore)
}

func TestCreateTournament_Validation(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)
	ctx := context.Background()

	_, err := svc.CreateTournament(ctx, &model.Tournament{Title: "без мест", StartsAt: slotStart, GroupIDs: []int64{group.ID}})
	assert.Error(t, err)

	_, err = svc.CreateTournament(ctx, &model.Tournament{Title: "без групп", StartsAt: slotStart, Capacity: 16})
	assert.Error(t, err)
}

func TestCreateInvite(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)
	ctx := context.Background()

	invite, err := svc.CreateInvite(ctx, group.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, invite.Token)
	assert.Equal(t, group.ID, invite.GroupID)

	require.NoError(t, svc.RevokeInvite(ctx, invite.Token))
	assert.False(t, store.invites[invite.Token].IsActive)
}

func TestCreateInvite_ArchivedGroup(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	group.IsActive = false
	svc := newAdminService(store)

	_, err := svc.CreateInvite(context.Background(), group.ID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestUpdateGroupSettings(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)
	ctx := context.Background()

	updated := &model.GroupSettings{
		GroupID:             group.ID,
		OpenDaysBefore:      7,
		OpenTime:            "08:30",
		CloseMode:           model.CloseMinutesBefore,
		CloseMinutesBefore:  120,
		CancelMinutesBefore: 60,
	}
	require.NoError(t, svc.UpdateGroupSettings(ctx, updated))

	got, err := svc.Group(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got.Settings)

	_, err = svc.Group(ctx, 9000)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestArchiveGroup(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)
	ctx := context.Background()

	require.NoError(t, svc.ArchiveGroup(ctx, group.ID))
	assert.False(t, store.groups[group.ID].IsActive)

	groups, err := svc.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	// Повторная архивация и несуществующая группа
	assert.ErrorIs(t, svc.ArchiveGroup(ctx, group.ID), ErrGroupNotFound)
	assert.ErrorIs(t, svc.ArchiveGroup(ctx, 9000), ErrGroupNotFound)
}

func TestActiveSchedulesForGroup(t *testing.T) {
	store := newAdminMemStore()
	first := store.addGroup(groupSettings(0))
	second := store.addGroup(groupSettings(0))
	svc := newAdminService(store)
	ctx := context.Background()

	seriesID, err := svc.CreateWeeklySchedule(ctx, first.ID, []*model.WeeklySchedule{
		{Weekday: time.Monday, StartTime: "19:00", Capacity: 8},
		{Weekday: time.Thursday, StartTime: "20:00", Capacity: 8},
	})
	require.NoError(t, err)

	_, err = svc.CreateWeeklySchedule(ctx, second.ID, []*model.WeeklySchedule{
		{Weekday: time.Friday, StartTime: "18:00", Capacity: 6},
	})
	require.NoError(t, err)

	schedules, err := svc.ActiveSchedulesForGroup(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	for _, schedule := range schedules {
		assert.Equal(t, first.ID, schedule.GroupID)
	}

	// После остановки серии строки группы пропадают из выборки
	_, err = svc.StopWeeklySeries(ctx, seriesID)
	require.NoError(t, err)

	schedules, err = svc.ActiveSchedulesForGroup(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, schedules)
}

func TestUpdateGroupSettings_BadOpenTime(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)

	err := svc.UpdateGroupSettings(context.Background(), &model.GroupSettings{
		GroupID:  group.ID,
		OpenTime: "25:99",
	})
	assert.Error(t, err)
}

func TestAddSlotCapacity(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)
	ctx := context.Background()

	slot, err := svc.CreateTrainingSlot(ctx, group.ID, slotStart, 8, "")
	require.NoError(t, err)

	capacity, err := svc.AddSlotCapacity(ctx, slot.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, capacity)

	_, err = svc.AddSlotCapacity(ctx, slot.ID, 0)
	assert.Error(t, err)
}

func TestCreateTrainingSlot_Validation(t *testing.T) {
	store := newAdminMemStore()
	group := store.addGroup(groupSettings(0))
	svc := newAdminService(store)
	ctx := context.Background()

	_, err := svc.CreateTrainingSlot(ctx, group.ID, slotStart, 0, "")
	assert.Error(t, err)

	_, err = svc.CreateTrainingSlot(ctx, 999, slotStart, 8, "")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestUpcomingTournaments_GroupFilter(t *testing.T) {
	store := newAdminMemStore()
	first := store.addGroup(groupSettings(0))
	second := store.addGroup(groupSettings(0))
	svc := newAdminService(store)
	ctx := context.Background()

	_, err := svc.CreateTournament(ctx, &model.Tournament{
		Title: "для первой", StartsAt: slotStart, Capacity: 8, GroupIDs: []int64{first.ID},
	})
	require.NoError(t, err)
	_, err = svc.CreateTournament(ctx, &model.Tournament{
		Title: "для всех", StartsAt: slotStart.Add(time.Hour), Capacity: 8, GroupIDs: []int64{first.ID, second.ID},
	})
	require.NoError(t, err)

	from := slotStart.Add(-24 * time.Hour)

	all, err := svc.UpcomingTournaments(ctx, 0, from)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forSecond, err := svc.UpcomingTournaments(ctx, second.ID, from)
	require.NoError(t, err)
	require.Len(t, forSecond, 1)
	assert.Equal(t, "для всех", forSecond[0].Title)
}

func TestPaymentSettings(t *testing.T) {
	store := newAdminMemStore()
	svc := newAdminService(store)
	ctx := context.Background()

	require.NoError(t, svc.UpdatePaymentSettings(ctx, "сбер 1234", 700))

	settings, err := svc.PaymentSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "сбер 1234", settings.Text)
	assert.Equal(t, 700, settings.Amount)
}
