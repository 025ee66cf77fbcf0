package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // Ожидает подтверждения
	PaymentStatusConfirmed PaymentStatus = "confirmed" // Подтверждена администратором
	PaymentStatusRejected  PaymentStatus = "rejected"  // Отклонена
)

type Payment struct {
	ID          int64         `json:"id"`
	BookingID   int64         `json:"booking_id"`
	Status      PaymentStatus `json:"status"`
	ConfirmedBy *int64        `json:"confirmed_by"` // администратор, переключавший последним
	ConfirmedAt *time.Time    `json:"confirmed_at"`
	CreatedAt   time.Time     `json:"created_at"`
}

// PaymentSettings реквизиты и сумма оплаты, единственная запись в БД
type PaymentSettings struct {
	Text      string    `json:"text"`
	Amount    int       `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}
