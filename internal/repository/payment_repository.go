package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

type PaymentRepository struct {
	*base.Repository
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{base.NewRepository(pool)}
}

// GetByBookingID получает запись об оплате брони
func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*model.Payment, error) {
	query := `
		SELECT id, booking_id, status, confirmed_by, confirmed_at, created_at
		FROM payments
		WHERE booking_id = $1
	`

	var p model.Payment
	err := r.DB(ctx).QueryRow(ctx, query, bookingID).Scan(
		&p.ID,
		&p.BookingID,
		&p.Status,
		&p.ConfirmedBy,
		&p.ConfirmedAt,
		&p.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by booking id: %w", err)
	}

	return &p, nil
}

// Create создаёт запись об оплате со статусом «ожидает»
func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (booking_id, status)
		VALUES ($1, $2)
		ON CONFLICT (booking_id) DO NOTHING
		RETURNING id, created_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, payment.BookingID, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

// SetStatus меняет статус оплаты и запоминает, кто и когда его переключил
func (r *PaymentRepository) SetStatus(ctx context.Context, bookingID int64, status model.PaymentStatus, confirmedBy int64, confirmedAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $1, confirmed_by = $2, confirmed_at = $3
		WHERE booking_id = $4
	`

	result, err := r.DB(ctx).Exec(ctx, query, status, confirmedBy, confirmedAt, bookingID)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}

// Settings получает реквизиты для оплаты
func (r *PaymentRepository) Settings(ctx context.Context) (*model.PaymentSettings, error) {
	query := `
		SELECT text, amount, updated_at
		FROM payment_settings
		WHERE id = 1
	`

	var s model.PaymentSettings
	err := r.DB(ctx).QueryRow(ctx, query).Scan(&s.Text, &s.Amount, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get payment settings: %w", err)
	}

	return &s, nil
}

// UpdateSettings обновляет реквизиты для оплаты
func (r *PaymentRepository) UpdateSettings(ctx context.Context, settings *model.PaymentSettings) error {
	query := `
		UPDATE payment_settings
		SET text = $1, amount = $2, updated_at = now()
		WHERE id = 1
	`

	_, err := r.DB(ctx).Exec(ctx, query, settings.Text, settings.Amount)
	if err != nil {
		return fmt.Errorf("update payment settings: %w", err)
	}

	return nil
}
