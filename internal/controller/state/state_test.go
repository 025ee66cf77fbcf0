package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbazhenoff/trainings_bot/internal/model"
)

func TestManager_SetGetClear(t *testing.T) {
	m := NewManager()

	assert.Nil(t, m.Get(100))

	m.Set(100, GuestNameEntry{EntityType: model.EntityTraining, EntityID: 7})

	got, ok := m.Get(100).(GuestNameEntry)
	require.True(t, ok)
	assert.Equal(t, model.EntityTraining, got.EntityType)
	assert.Equal(t, int64(7), got.EntityID)

	// Состояния пользователей независимы
	assert.Nil(t, m.Get(101))

	m.Clear(100)
	assert.Nil(t, m.Get(100))
}

func TestManager_StepReplacesState(t *testing.T) {
	m := NewManager()

	m.Set(100, TournamentCreation{Step: TournamentTitle})
	m.Set(100, TournamentCreation{
		Step:  TournamentStartsAt,
		Draft: model.Tournament{Title: "Кубок"},
	})

	got, ok := m.Get(100).(TournamentCreation)
	require.True(t, ok)
	assert.Equal(t, TournamentStartsAt, got.Step)
	assert.Equal(t, "Кубок", got.Draft.Title)
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Set(id, GroupCreation{})
			_ = m.Get(id)
			m.Clear(id)
		}(int64(i))
	}
	wg.Wait()
}
