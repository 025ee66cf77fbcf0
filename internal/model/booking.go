package model

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"    // Место занято
	BookingStatusWaitlist  BookingStatus = "waitlist"  // В списке ожидания
	BookingStatusCancelled BookingStatus = "cancelled" // Отменена
)

// MaxSeats максимум мест в одной брони: своё и одно для спутника
const MaxSeats = 2

type Booking struct {
	ID         int64         `json:"id"`
	User       UserRef       `json:"user"`
	EntityType EntityType    `json:"entity_type"`
	EntityID   int64         `json:"entity_id"`
	Status     BookingStatus `json:"status"`
	Seats      int           `json:"seats"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Payment    *Payment      `json:"payment,omitempty"`
	Training   *TrainingSlot `json:"training,omitempty"`
	Tournament *Tournament   `json:"tournament,omitempty"`
}

// RosterEntry строка списка записавшихся на событие
type RosterEntry struct {
	BookingID     int64         `json:"booking_id"`
	User          UserRef       `json:"user"`
	Seats         int           `json:"seats"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	FullName      string        `json:"full_name"`
	Username      string        `json:"username"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// DisplayName возвращает имя для списков: гость — по введённому имени,
// зарегистрированный — как в профиле
func (e *RosterEntry) DisplayName() string {
	if e.User.IsGuest() {
		return e.User.GuestName
	}
	if e.FullName != "" {
		return e.FullName
	}
	if e.Username != "" {
		return "@" + e.Username
	}
	return fmt.Sprintf("id%d", e.User.ID)
}
