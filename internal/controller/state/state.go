// Package state хранит состояние многошаговых диалогов с администратором.
// Каждый шаг — свой тип с ровно теми полями, которые шагу нужны:
// никаких строковых режимов и карт со значениями произвольного типа.
package state

import (
	"sync"

	"github.com/mbazhenoff/trainings_bot/internal/model"
)

// State текущий шаг диалога пользователя
type State interface {
	isState()
}

// GuestNameEntry администратор вводит имя гостя для записи вручную
type GuestNameEntry struct {
	EntityType model.EntityType
	EntityID   int64
}

// GroupCreation администратор вводит название новой группы
type GroupCreation struct{}

// SlotCreation администратор создаёт разовую тренировку:
// одно сообщение вида «ДД.ММ.ГГГГ ЧЧ:ММ вместимость [заметка]»
type SlotCreation struct {
	GroupID int64
}

// ScheduleCreation администратор вводит еженедельный шаблон:
// строки вида «пн 19:00 8 [заметка]»
type ScheduleCreation struct {
	GroupID int64
}

// CapacityAdd администратор вводит, на сколько увеличить вместимость
type CapacityAdd struct {
	SlotID int64
}

// GroupSettingsEdit администратор вводит новые окна записи и отмены:
// одно сообщение вида «дни ЧЧ:ММ минуты-закрытия минуты-отмены»
type GroupSettingsEdit struct {
	GroupID int64
}

// TournamentStep шаг создания турнира
type TournamentStep int

const (
	TournamentGroups TournamentStep = iota
	TournamentTitle
	TournamentStartsAt
	TournamentCapacity
	TournamentWaitlist
	TournamentDescription
)

// TournamentCreation администратор создаёт турнир по шагам.
// Накопленные ответы едут вместе с состоянием.
type TournamentCreation struct {
	Step     TournamentStep
	GroupIDs []int64
	Draft    model.Tournament
}

// PaymentStep шаг редактирования реквизитов оплаты
type PaymentStep int

const (
	PaymentText PaymentStep = iota
	PaymentAmount
)

// PaymentSettingsEdit администратор меняет реквизиты и сумму оплаты
type PaymentSettingsEdit struct {
	Step PaymentStep
	Text string
}

func (GuestNameEntry) isState()      {}
func (GroupCreation) isState()       {}
func (SlotCreation) isState()        {}
func (ScheduleCreation) isState()    {}
func (CapacityAdd) isState()         {}
func (GroupSettingsEdit) isState()   {}
func (TournamentCreation) isState()  {}
func (PaymentSettingsEdit) isState() {}

// Manager потокобезопасная карта состояний диалогов по пользователям
type Manager struct {
	mu     sync.RWMutex
	states map[int64]State
}

func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]State),
	}
}

// Get получает текущее состояние пользователя, nil — диалога нет
func (m *Manager) Get(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[userID]
}

// Set переводит пользователя на шаг state
func (m *Manager) Set(userID int64, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = state
}

// Clear завершает диалог пользователя
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}
