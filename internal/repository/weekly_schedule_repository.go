package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

type WeeklyScheduleRepository struct {
	*base.Repository
}

func NewWeeklyScheduleRepository(pool *pgxpool.Pool) *WeeklyScheduleRepository {
	return &WeeklyScheduleRepository{base.NewRepository(pool)}
}

// Create создаёт еженедельный шаблон тренировок
func (r *WeeklyScheduleRepository) Create(ctx context.Context, schedule *model.WeeklySchedule) error {
	query := `
		INSERT INTO weekly_schedules (group_id, weekday, start_time, capacity, note, series_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at
	`

	err := r.DB(ctx).QueryRow(
		ctx, query,
		schedule.GroupID,
		int(schedule.Weekday),
		schedule.StartTime,
		schedule.Capacity,
		schedule.Note,
		schedule.SeriesID,
	).Scan(&schedule.ID, &schedule.IsActive, &schedule.CreatedAt)
	if err != nil {
		return fmt.Errorf("create weekly schedule: %w", err)
	}

	return nil
}

// ListActive получает все активные шаблоны
func (r *WeeklyScheduleRepository) ListActive(ctx context.Context) ([]*model.WeeklySchedule, error) {
	query := `
		SELECT id, group_id, weekday, start_time, capacity, note, series_id, is_active, created_at
		FROM weekly_schedules
		WHERE is_active = TRUE
		ORDER BY group_id, weekday, start_time
	`

	rows, err := r.DB(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list weekly schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.WeeklySchedule
	for rows.Next() {
		var schedule model.WeeklySchedule
		var weekday int

		err := rows.Scan(
			&schedule.ID,
			&schedule.GroupID,
			&weekday,
			&schedule.StartTime,
			&schedule.Capacity,
			&schedule.Note,
			&schedule.SeriesID,
			&schedule.IsActive,
			&schedule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan weekly schedule: %w", err)
		}

		schedule.Weekday = time.Weekday(weekday)
		schedules = append(schedules, &schedule)
	}

	return schedules, rows.Err()
}

// DeactivateSeries выключает все шаблоны серии, возвращает сколько затронуто
func (r *WeeklyScheduleRepository) DeactivateSeries(ctx context.Context, seriesID uuid.UUID) (int64, error) {
	query := `UPDATE weekly_schedules SET is_active = FALSE WHERE series_id = $1 AND is_active = TRUE`

	result, err := r.DB(ctx).Exec(ctx, query, seriesID)
	if err != nil {
		return 0, fmt.Errorf("deactivate weekly series: %w", err)
	}

	return result.RowsAffected(), nil
}
