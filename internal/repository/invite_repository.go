package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

type InviteRepository struct {
	*base.Repository
}

func NewInviteRepository(pool *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{base.NewRepository(pool)}
}

// Create создаёт приглашение в группу
func (r *InviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	query := `
		INSERT INTO invites (token, group_id)
		VALUES ($1, $2)
		RETURNING is_active, created_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, invite.Token, invite.GroupID).
		Scan(&invite.IsActive, &invite.CreatedAt)
	if err != nil {
		return fmt.Errorf("create invite: %w", err)
	}

	return nil
}

// GetByToken получает приглашение по токену
func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*model.Invite, error) {
	query := `
		SELECT token, group_id, is_active, created_at
		FROM invites
		WHERE token = $1
	`

	var invite model.Invite
	err := r.DB(ctx).QueryRow(ctx, query, token).Scan(
		&invite.Token,
		&invite.GroupID,
		&invite.IsActive,
		&invite.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invite by token: %w", err)
	}

	return &invite, nil
}

// Deactivate отзывает приглашение
func (r *InviteRepository) Deactivate(ctx context.Context, token string) error {
	result, err := r.DB(ctx).Exec(ctx, `UPDATE invites SET is_active = FALSE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("deactivate invite: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("invite not found")
	}

	return nil
}
