package model

import "time"

// Invite ссылка-приглашение в группу, используется как deep-link /start <token>
type Invite struct {
	Token     string    `json:"token"`
	GroupID   int64     `json:"group_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
