package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{base.NewRepository(pool)}
}

// ClaimSlot помечает уведомление об открытии записи отправленным.
// Возвращает false, если отметка уже стоит: так повторный проход
// рассыльщика не шлёт дубликаты.
func (r *NotificationRepository) ClaimSlot(ctx context.Context, userID, slotID int64) (bool, error) {
	query := `
		INSERT INTO slot_notifications (user_id, slot_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, slot_id) DO NOTHING
	`

	result, err := r.DB(ctx).Exec(ctx, query, userID, slotID)
	if err != nil {
		return false, fmt.Errorf("claim slot notification: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
