// Package format собирает русский текст сообщений: даты, склонения, статусы
package format

import (
	"fmt"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/model"
)

// DateTime формат «дд.мм ЧЧ:ММ», как в записках тренера
func DateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01 15:04")
}

// DateTimeFull формат с годом, для админских списков
func DateTimeFull(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}

// WeekdayShort короткое русское название дня недели
func WeekdayShort(weekday time.Weekday) string {
	names := [...]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}
	return names[int(weekday)%7]
}

// ParseWeekday разбирает короткое русское название дня недели
func ParseWeekday(s string) (time.Weekday, bool) {
	names := map[string]time.Weekday{
		"пн": time.Monday,
		"вт": time.Tuesday,
		"ср": time.Wednesday,
		"чт": time.Thursday,
		"пт": time.Friday,
		"сб": time.Saturday,
		"вс": time.Sunday,
	}
	weekday, ok := names[s]
	return weekday, ok
}

// Seats склонение слова «место»
func Seats(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "место"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "места"
	}
	return "мест"
}

// People склонение слова «человек»
func People(count int) string {
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "человека"
	}
	return "человек"
}

// PaymentStatus статус оплаты со значком
func PaymentStatus(status model.PaymentStatus) string {
	switch status {
	case model.PaymentStatusConfirmed:
		return "✅ оплачено"
	case model.PaymentStatusRejected:
		return "🚫 отклонено"
	default:
		return "⏳ не оплачено"
	}
}

// BookingStatus статус брони со значком
func BookingStatus(status model.BookingStatus) string {
	switch status {
	case model.BookingStatusActive:
		return "✅ записан"
	case model.BookingStatusWaitlist:
		return "⏳ в списке ожидания"
	default:
		return "❌ отменена"
	}
}

// FreeSeats строка «свободно N мест из M»
func FreeSeats(free, capacity int) string {
	return fmt.Sprintf("свободно %d %s из %d", free, Seats(free), capacity)
}

// WindowRules правила записи группы одной строкой
func WindowRules(s *model.GroupSettings) string {
	closing := "в момент начала"
	if s.CloseMode == model.CloseMinutesBefore {
		closing = fmt.Sprintf("за %d мин до начала", s.CloseMinutesBefore)
	}
	return fmt.Sprintf("Запись за %d дн. с %s, закрытие %s, отмена не позднее чем за %d мин.",
		s.OpenDaysBefore, s.OpenTime, closing, s.CancelMinutesBefore)
}

// Price сумма в рублях
func Price(amount int) string {
	return fmt.Sprintf("%d ₽", amount)
}
