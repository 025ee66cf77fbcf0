package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

type GroupRepository struct {
	*base.Repository
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{base.NewRepository(pool)}
}

// Create создаёт группу вместе с настройками записи по умолчанию
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	query := `
		INSERT INTO groups (title)
		VALUES ($1)
		RETURNING id, is_active, created_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, group.Title).
		Scan(&group.ID, &group.IsActive, &group.CreatedAt)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	_, err = r.DB(ctx).Exec(ctx, `INSERT INTO group_settings (group_id) VALUES ($1)`, group.ID)
	if err != nil {
		return fmt.Errorf("create group settings: %w", err)
	}

	return nil
}

// GetByID получает группу вместе с настройками записи
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	query := `
		SELECT g.id, g.title, g.is_active, g.created_at,
		       s.open_days_before, s.open_time, s.close_mode, s.close_minutes_before, s.cancel_minutes_before
		FROM groups g
		JOIN group_settings s ON s.group_id = g.id
		WHERE g.id = $1
	`

	var group model.Group
	settings := model.GroupSettings{GroupID: id}

	err := r.DB(ctx).QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Title,
		&group.IsActive,
		&group.CreatedAt,
		&settings.OpenDaysBefore,
		&settings.OpenTime,
		&settings.CloseMode,
		&settings.CloseMinutesBefore,
		&settings.CancelMinutesBefore,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group by id: %w", err)
	}

	group.Settings = &settings
	return &group, nil
}

// ListActive получает все активные группы
func (r *GroupRepository) ListActive(ctx context.Context) ([]*model.Group, error) {
	query := `
		SELECT id, title, is_active, created_at
		FROM groups
		WHERE is_active = TRUE
		ORDER BY title
	`

	rows, err := r.DB(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*model.Group
	for rows.Next() {
		var group model.Group
		err := rows.Scan(&group.ID, &group.Title, &group.IsActive, &group.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, &group)
	}

	return groups, rows.Err()
}

// UpdateSettings обновляет настройки записи группы
func (r *GroupRepository) UpdateSettings(ctx context.Context, settings *model.GroupSettings) error {
	query := `
		UPDATE group_settings
		SET open_days_before = $1,
		    open_time = $2,
		    close_mode = $3,
		    close_minutes_before = $4,
		    cancel_minutes_before = $5
		WHERE group_id = $6
	`

	result, err := r.DB(ctx).Exec(
		ctx, query,
		settings.OpenDaysBefore,
		settings.OpenTime,
		settings.CloseMode,
		settings.CloseMinutesBefore,
		settings.CancelMinutesBefore,
		settings.GroupID,
	)
	if err != nil {
		return fmt.Errorf("update group settings: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("group settings not found")
	}

	return nil
}

// Deactivate помечает группу неактивной
func (r *GroupRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.DB(ctx).Exec(ctx, `UPDATE groups SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate group: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("group not found")
	}

	return nil
}
