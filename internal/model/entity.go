package model

import "time"

// EntityType тип события, на которое можно записаться
type EntityType string

const (
	EntityTraining   EntityType = "training"   // Регулярная тренировка группы
	EntityTournament EntityType = "tournament" // Разовый турнир
)

// Valid проверяет что тип события известен
func (t EntityType) Valid() bool {
	return t == EntityTraining || t == EntityTournament
}

// CloseMode правило закрытия записи
type CloseMode string

const (
	CloseAtStart       CloseMode = "at_start"       // Запись закрывается в момент начала
	CloseMinutesBefore CloseMode = "minutes_before" // Запись закрывается за N минут до начала
)

// BookingPolicy правила записи, общие для тренировок и турниров.
// Для тренировки собирается из настроек её группы, для турнира — из него самого.
type BookingPolicy struct {
	StartsAt            time.Time
	Capacity            int
	WaitlistLimit       int // 0 — списка ожидания нет
	CloseMode           CloseMode
	CloseMinutesBefore  int
	CancelMinutesBefore int
	OpenDaysBefore      int    // только тренировки
	OpenTime            string // "HH:MM", только тренировки
	OpenAtCreation      bool   // турниры открыты с момента создания
}
