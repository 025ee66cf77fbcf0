package model

import "time"

type Tournament struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	StartsAt            time.Time `json:"starts_at"`
	Capacity            int       `json:"capacity"`
	Description         string    `json:"description"`
	CloseMode           CloseMode `json:"close_mode"`
	CloseMinutesBefore  int       `json:"close_minutes_before"`
	CancelMinutesBefore int       `json:"cancel_minutes_before"`
	WaitlistLimit       int       `json:"waitlist_limit"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`

	// Группы, которым доступен турнир (не из таблицы tournaments)
	GroupIDs []int64 `json:"group_ids,omitempty"`
}

// Policy собирает правила записи турнира
func (t *Tournament) Policy() BookingPolicy {
	return BookingPolicy{
		StartsAt:            t.StartsAt,
		Capacity:            t.Capacity,
		WaitlistLimit:       t.WaitlistLimit,
		CloseMode:           t.CloseMode,
		CloseMinutesBefore:  t.CloseMinutesBefore,
		CancelMinutesBefore: t.CancelMinutesBefore,
		OpenAtCreation:      true,
	}
}
