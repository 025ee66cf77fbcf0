package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/repository/base"
)

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{base.NewRepository(pool)}
}

// Колонки слота вместе с настройками записи его группы
const slotSelect = `
	SELECT t.id, t.group_id, t.starts_at, t.capacity, t.note, t.is_active, t.created_at,
	       s.open_days_before, s.open_time, s.close_mode, s.close_minutes_before, s.cancel_minutes_before
	FROM training_slots t
	JOIN group_settings s ON s.group_id = t.group_id
`

func scanSlot(row pgx.Row) (*model.TrainingSlot, error) {
	var slot model.TrainingSlot
	var settings model.GroupSettings

	err := row.Scan(
		&slot.ID,
		&slot.GroupID,
		&slot.StartsAt,
		&slot.Capacity,
		&slot.Note,
		&slot.IsActive,
		&slot.CreatedAt,
		&settings.OpenDaysBefore,
		&settings.OpenTime,
		&settings.CloseMode,
		&settings.CloseMinutesBefore,
		&settings.CancelMinutesBefore,
	)
	if err != nil {
		return nil, err
	}

	settings.GroupID = slot.GroupID
	slot.Settings = &settings
	return &slot, nil
}

// Create создаёт тренировочный слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.TrainingSlot) error {
	query := `
		INSERT INTO training_slots (group_id, starts_at, capacity, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at
	`

	err := r.DB(ctx).QueryRow(ctx, query, slot.GroupID, slot.StartsAt, slot.Capacity, slot.Note).
		Scan(&slot.ID, &slot.IsActive, &slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("create training slot: %w", err)
	}

	return nil
}

// GetByID получает слот вместе с настройками записи его группы
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.TrainingSlot, error) {
	slot, err := scanSlot(r.DB(ctx).QueryRow(ctx, slotSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get training slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает слот, блокируя его строку до конца транзакции.
// Сериализует проверку вместимости и вставку брони по одному слоту.
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.TrainingSlot, error) {
	slot, err := scanSlot(r.DB(ctx).QueryRow(ctx, slotSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get training slot for update: %w", err)
	}

	return slot, nil
}

// Exists проверяет есть ли у группы слот на этот момент
func (r *SlotRepository) Exists(ctx context.Context, groupID int64, startsAt time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM training_slots WHERE group_id = $1 AND starts_at = $2)`

	var exists bool
	err := r.DB(ctx).QueryRow(ctx, query, groupID, startsAt).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot exists: %w", err)
	}

	return exists, nil
}

// UpcomingByGroup получает будущие активные слоты группы
func (r *SlotRepository) UpcomingByGroup(ctx context.Context, groupID int64, from time.Time) ([]*model.TrainingSlot, error) {
	query := slotSelect + `
		WHERE t.group_id = $1 AND t.is_active = TRUE AND t.starts_at > $2
		ORDER BY t.starts_at
	`

	rows, err := r.DB(ctx).Query(ctx, query, groupID, from)
	if err != nil {
		return nil, fmt.Errorf("get upcoming slots: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

// UpcomingWithin получает активные слоты всех групп в горизонте планирования.
// Используется фоновой рассылкой уведомлений об открытии записи.
func (r *SlotRepository) UpcomingWithin(ctx context.Context, from, until time.Time) ([]*model.TrainingSlot, error) {
	query := slotSelect + `
		WHERE t.is_active = TRUE AND t.starts_at > $1 AND t.starts_at < $2
		ORDER BY t.starts_at
	`

	rows, err := r.DB(ctx).Query(ctx, query, from, until)
	if err != nil {
		return nil, fmt.Errorf("get slots within horizon: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]*model.TrainingSlot, error) {
	var slots []*model.TrainingSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan training slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// AddCapacity увеличивает вместимость слота, возвращает новое значение
func (r *SlotRepository) AddCapacity(ctx context.Context, id int64, delta int) (int, error) {
	query := `
		UPDATE training_slots
		SET capacity = capacity + $1
		WHERE id = $2 AND is_active = TRUE
		RETURNING capacity
	`

	var capacity int
	err := r.DB(ctx).QueryRow(ctx, query, delta, id).Scan(&capacity)
	if err != nil {
		if base.IsNotFound(err) {
			return 0, fmt.Errorf("training slot not found")
		}
		return 0, fmt.Errorf("add slot capacity: %w", err)
	}

	return capacity, nil
}

// Deactivate помечает слот неактивным
func (r *SlotRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.DB(ctx).Exec(ctx, `UPDATE training_slots SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate training slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("training slot not found")
	}

	return nil
}
