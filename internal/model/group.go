package model

import "time"

type Group struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	// Настройки записи (не из таблицы groups)
	Settings *GroupSettings `json:"settings,omitempty"`
}

// GroupSettings окна записи и отмены для тренировок группы
type GroupSettings struct {
	GroupID             int64     `json:"group_id"`
	OpenDaysBefore      int       `json:"open_days_before"`
	OpenTime            string    `json:"open_time"` // "HH:MM"
	CloseMode           CloseMode `json:"close_mode"`
	CloseMinutesBefore  int       `json:"close_minutes_before"`
	CancelMinutesBefore int       `json:"cancel_minutes_before"`
}
