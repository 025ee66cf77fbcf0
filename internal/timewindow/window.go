// Package timewindow считает границы записи и отмены для событий.
// Все функции чистые: одинаковый вход всегда даёт одинаковый результат,
// текущее время передаётся снаружи.
package timewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/model"
)

// ParseTimeOfDay разбирает строку вида "10:00"
func ParseTimeOfDay(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hour, minute, nil
}

// OpenInstant момент открытия записи на тренировку: за openDaysBefore дней
// до начала, время суток заменяется на openTime ("HH:MM").
func OpenInstant(startsAt time.Time, openDaysBefore int, openTime string) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(openTime)
	if err != nil {
		return time.Time{}, err
	}

	base := startsAt.AddDate(0, 0, -openDaysBefore)
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location()), nil
}

// CloseInstant момент закрытия записи
func CloseInstant(startsAt time.Time, mode model.CloseMode, minutesBefore int) time.Time {
	if mode == model.CloseMinutesBefore {
		return startsAt.Add(-time.Duration(minutesBefore) * time.Minute)
	}
	return startsAt
}

// CancelDeadline крайний срок отмены брони
func CancelDeadline(startsAt time.Time, cancelMinutesBefore int) time.Time {
	return startsAt.Add(-time.Duration(cancelMinutesBefore) * time.Minute)
}

// Windows вычисленные границы записи для одного события
type Windows struct {
	OpensAt  time.Time // нулевое значение — запись открыта с момента создания
	ClosesAt time.Time
	CancelBy time.Time
}

// ForPolicy считает все границы по правилам события
func ForPolicy(p model.BookingPolicy) (Windows, error) {
	w := Windows{
		ClosesAt: CloseInstant(p.StartsAt, p.CloseMode, p.CloseMinutesBefore),
		CancelBy: CancelDeadline(p.StartsAt, p.CancelMinutesBefore),
	}

	if !p.OpenAtCreation {
		opensAt, err := OpenInstant(p.StartsAt, p.OpenDaysBefore, p.OpenTime)
		if err != nil {
			return Windows{}, err
		}
		w.OpensAt = opensAt
	}

	return w, nil
}

// TooEarly запись ещё не открылась
func (w Windows) TooEarly(now time.Time) bool {
	return !w.OpensAt.IsZero() && now.Before(w.OpensAt)
}

// Closed запись уже закрыта
func (w Windows) Closed(now time.Time) bool {
	return !now.Before(w.ClosesAt)
}

// Open запись открыта в момент now
func (w Windows) Open(now time.Time) bool {
	return !w.TooEarly(now) && !w.Closed(now)
}

// CancelAllowed отмена брони ещё разрешена
func (w Windows) CancelAllowed(now time.Time) bool {
	return now.Before(w.CancelBy)
}

// JustOpened момент now попадает в первую минуту после открытия записи.
// По этому условию рассылаются уведомления об открытии.
func (w Windows) JustOpened(now time.Time) bool {
	if w.OpensAt.IsZero() {
		return false
	}
	return !now.Before(w.OpensAt) && now.Before(w.OpensAt.Add(time.Minute))
}
