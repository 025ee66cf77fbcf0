package model

import (
	"time"

	"github.com/google/uuid"
)

// WeeklySchedule еженедельный шаблон, из которого генерируются тренировки.
// Используется только при создании слотов, на правила записи не влияет.
type WeeklySchedule struct {
	ID        int64        `json:"id"`
	GroupID   int64        `json:"group_id"`
	Weekday   time.Weekday `json:"weekday"`
	StartTime string       `json:"start_time"` // "HH:MM"
	Capacity  int          `json:"capacity"`
	Note      string       `json:"note"`
	SeriesID  uuid.UUID    `json:"series_id"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
}
