package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{base.NewRepository(pool)}
}

// Upsert создаёт пользователя или обновляет username и имя существующего
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, full_name = EXCLUDED.full_name
		RETURNING COALESCE(group_id, 0), notify_on_open, created_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, user.ID, user.Username, user.FullName).
		Scan(&user.GroupID, &user.NotifyOnOpen, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, username, full_name, COALESCE(group_id, 0), notify_on_open, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.DB(ctx).QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.GroupID,
		&user.NotifyOnOpen,
		&user.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// SetGroup переводит пользователя в группу
func (r *UserRepository) SetGroup(ctx context.Context, userID, groupID int64) error {
	result, err := r.DB(ctx).Exec(ctx, `UPDATE users SET group_id = $1 WHERE id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("set user group: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// SetNotifyOnOpen включает или выключает уведомления об открытии записи
func (r *UserRepository) SetNotifyOnOpen(ctx context.Context, userID int64, enabled bool) error {
	result, err := r.DB(ctx).Exec(ctx, `UPDATE users SET notify_on_open = $1 WHERE id = $2`, enabled, userID)
	if err != nil {
		return fmt.Errorf("set notify on open: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// NotifyRecipients получает участников группы, подписанных на уведомления
func (r *UserRepository) NotifyRecipients(ctx context.Context, groupID int64) ([]*model.User, error) {
	query := `
		SELECT id, username, full_name, COALESCE(group_id, 0), notify_on_open, created_at
		FROM users
		WHERE group_id = $1 AND notify_on_open = TRUE
	`

	rows, err := r.DB(ctx).Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("get notify recipients: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.FullName,
			&user.GroupID,
			&user.NotifyOnOpen,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
