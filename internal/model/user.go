package model

import "time"

type User struct {
	ID           int64     `json:"id"` // Telegram ID
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	GroupID      int64     `json:"group_id"` // 0 — не состоит в группе
	NotifyOnOpen bool      `json:"notify_on_open"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName имя для показа в списках участников
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "без имени"
}
