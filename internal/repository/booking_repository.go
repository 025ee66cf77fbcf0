package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{base.NewRepository(pool)}
}

const bookingColumns = `id, COALESCE(user_id, 0), COALESCE(guest_name, ''),
	entity_type, entity_id, status, seats, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.User.ID,
		&b.User.GuestName,
		&b.EntityType,
		&b.EntityID,
		&b.Status,
		&b.Seats,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create создаёт бронь. Частичный уникальный индекс не даст пользователю
// второй незавершённой брони на то же событие.
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (user_id, guest_name, entity_type, entity_id, status, seats)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	var userID, guestName any
	if booking.User.IsGuest() {
		guestName = booking.User.GuestName
	} else {
		userID = booking.User.ID
	}

	err := r.DB(ctx).QueryRow(
		ctx, query,
		userID,
		guestName,
		booking.EntityType,
		booking.EntityID,
		booking.Status,
		booking.Seats,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронь по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	booking, err := scanBooking(r.DB(ctx).QueryRow(
		ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// CurrentFor получает незавершённую бронь пользователя на событие
func (r *BookingRepository) CurrentFor(ctx context.Context, userID int64, entityType model.EntityType, entityID int64) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		  AND status IN ('active', 'waitlist')
	`

	booking, err := scanBooking(r.DB(ctx).QueryRow(ctx, query, userID, entityType, entityID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current booking: %w", err)
	}

	return booking, nil
}

// ActiveSeatCount считает занятые места события
func (r *BookingRepository) ActiveSeatCount(ctx context.Context, entityType model.EntityType, entityID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(seats), 0)
		FROM bookings
		WHERE entity_type = $1 AND entity_id = $2 AND status = 'active'
	`

	var count int
	err := r.DB(ctx).QueryRow(ctx, query, entityType, entityID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active seats: %w", err)
	}

	return count, nil
}

// WaitlistCount считает брони в списке ожидания события
func (r *BookingRepository) WaitlistCount(ctx context.Context, entityType model.EntityType, entityID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE entity_type = $1 AND entity_id = $2 AND status = 'waitlist'
	`

	var count int
	err := r.DB(ctx).QueryRow(ctx, query, entityType, entityID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count waitlist: %w", err)
	}

	return count, nil
}

// SetSeats меняет количество мест брони. Уменьшение до нуля — это отмена,
// для неё есть Cancel.
func (r *BookingRepository) SetSeats(ctx context.Context, id int64, seats int) error {
	if seats < 1 || seats > model.MaxSeats {
		return fmt.Errorf("invalid seats %d", seats)
	}

	query := `
		UPDATE bookings
		SET seats = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.DB(ctx).Exec(ctx, query, seats, id)
	if err != nil {
		return fmt.Errorf("set booking seats: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// Cancel отменяет бронь. Повторная отмена уже отменённой брони не ошибка.
func (r *BookingRepository) Cancel(ctx context.Context, id int64) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status <> 'cancelled'
	`

	_, err := r.DB(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	return nil
}

// OldestWaitlisted получает самую раннюю бронь из списка ожидания
func (r *BookingRepository) OldestWaitlisted(ctx context.Context, entityType model.EntityType, entityID int64) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE entity_type = $1 AND entity_id = $2 AND status = 'waitlist'
		ORDER BY created_at, id
		LIMIT 1
	`

	booking, err := scanBooking(r.DB(ctx).QueryRow(ctx, query, entityType, entityID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get oldest waitlisted: %w", err)
	}

	return booking, nil
}

// Activate переводит бронь из списка ожидания в активные
func (r *BookingRepository) Activate(ctx context.Context, id int64) error {
	query := `
		UPDATE bookings
		SET status = 'active', updated_at = now()
		WHERE id = $1 AND status = 'waitlist'
	`

	result, err := r.DB(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("activate booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking is not waitlisted")
	}

	return nil
}

// RosterByEntity получает список записавшихся с именами и статусом оплаты
func (r *BookingRepository) RosterByEntity(ctx context.Context, entityType model.EntityType, entityID int64, status model.BookingStatus) ([]*model.RosterEntry, error) {
	query := `
		SELECT b.id, COALESCE(b.user_id, 0), COALESCE(b.guest_name, ''), b.seats, b.status, b.created_at,
		       COALESCE(u.full_name, ''), COALESCE(u.username, ''), COALESCE(p.status, 'pending')
		FROM bookings b
		LEFT JOIN users u ON u.id = b.user_id
		LEFT JOIN payments p ON p.booking_id = b.id
		WHERE b.entity_type = $1 AND b.entity_id = $2 AND b.status = $3
		ORDER BY b.created_at, b.id
	`

	rows, err := r.DB(ctx).Query(ctx, query, entityType, entityID, status)
	if err != nil {
		return nil, fmt.Errorf("get roster: %w", err)
	}
	defer rows.Close()

	var entries []*model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		err := rows.Scan(
			&e.BookingID,
			&e.User.ID,
			&e.User.GuestName,
			&e.Seats,
			&e.Status,
			&e.CreatedAt,
			&e.FullName,
			&e.Username,
			&e.PaymentStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// ListForUser получает незавершённые брони пользователя
func (r *BookingRepository) ListForUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND status IN ('active', 'waitlist')
		ORDER BY created_at
	`

	rows, err := r.DB(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get user bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// BookedUserIDs получает пользователей, уже имеющих незавершённую бронь на событие
func (r *BookingRepository) BookedUserIDs(ctx context.Context, entityType model.EntityType, entityID int64) ([]int64, error) {
	query := `
		SELECT user_id
		FROM bookings
		WHERE entity_type = $1 AND entity_id = $2
		  AND status IN ('active', 'waitlist') AND user_id IS NOT NULL
	`

	rows, err := r.DB(ctx).Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("get booked user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan booked user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func collectBookings(rows pgx.Rows) ([]*model.Booking, error) {
	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
