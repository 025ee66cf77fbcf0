package model

import "time"

type TrainingSlot struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	StartsAt  time.Time `json:"starts_at"`
	Capacity  int       `json:"capacity"`
	Note      string    `json:"note"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	// Настройки записи группы (не из таблицы training_slots)
	Settings *GroupSettings `json:"settings,omitempty"`
}

// Policy собирает правила записи слота из настроек его группы
func (s *TrainingSlot) Policy() BookingPolicy {
	p := BookingPolicy{
		StartsAt: s.StartsAt,
		Capacity: s.Capacity,
	}
	if s.Settings != nil {
		p.OpenDaysBefore = s.Settings.OpenDaysBefore
		p.OpenTime = s.Settings.OpenTime
		p.CloseMode = s.Settings.CloseMode
		p.CloseMinutesBefore = s.Settings.CloseMinutesBefore
		p.CancelMinutesBefore = s.Settings.CancelMinutesBefore
	}
	return p
}
