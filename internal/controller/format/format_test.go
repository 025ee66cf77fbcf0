package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mbazhenoff/trainings_bot/internal/model"
)

func TestDateTime(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	moment := time.Date(2026, 1, 24, 16, 0, 0, 0, time.UTC)

	assert.Equal(t, "24.01 19:00", DateTime(moment, msk))
	assert.Equal(t, "24.01.2026 19:00", DateTimeFull(moment, msk))
}

func TestWeekdayRoundTrip(t *testing.T) {
	for _, short := range []string{"пн", "вт", "ср", "чт", "пт", "сб", "вс"} {
		weekday, ok := ParseWeekday(short)
		assert.True(t, ok, short)
		assert.Equal(t, short, WeekdayShort(weekday))
	}

	_, ok := ParseWeekday("понедельник")
	assert.False(t, ok)
}

func TestSeats(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{1, "место"},
		{2, "места"},
		{4, "места"},
		{5, "мест"},
		{11, "мест"},
		{21, "место"},
		{111, "мест"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Seats(tt.count), "count %d", tt.count)
	}
}

func TestPeople(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{1, "человек"},
		{2, "человека"},
		{5, "человек"},
		{12, "человек"},
		{22, "человека"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, People(tt.count), "count %d", tt.count)
	}
}

func TestStatuses(t *testing.T) {
	assert.Equal(t, "✅ оплачено", PaymentStatus(model.PaymentStatusConfirmed))
	assert.Equal(t, "⏳ не оплачено", PaymentStatus(model.PaymentStatusPending))
	assert.Equal(t, "✅ записан", BookingStatus(model.BookingStatusActive))
	assert.Equal(t, "⏳ в списке ожидания", BookingStatus(model.BookingStatusWaitlist))
}

func TestFreeSeats(t *testing.T) {
	assert.Equal(t, "свободно 3 места из 8", FreeSeats(3, 8))
	assert.Equal(t, "свободно 1 место из 8", FreeSeats(1, 8))
}

func TestWindowRules(t *testing.T) {
	assert.Equal(t,
		"Запись за 2 дн. с 10:00, закрытие в момент начала, отмена не позднее чем за 360 мин.",
		WindowRules(&model.GroupSettings{
			OpenDaysBefore:      2,
			OpenTime:            "10:00",
			CloseMode:           model.CloseAtStart,
			CancelMinutesBefore: 360,
		}))

	assert.Equal(t,
		"Запись за 7 дн. с 08:30, закрытие за 120 мин до начала, отмена не позднее чем за 60 мин.",
		WindowRules(&model.GroupSettings{
			OpenDaysBefore:      7,
			OpenTime:            "08:30",
			CloseMode:           model.CloseMinutesBefore,
			CloseMinutesBefore:  120,
			CancelMinutesBefore: 60,
		}))
}
