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

type TournamentRepository struct {
	*base.Repository
}

func NewTournamentRepository(pool *pgxpool.Pool) *TournamentRepository {
	return &TournamentRepository{base.NewRepository(pool)}
}

const tournamentColumns = `id, title, starts_at, capacity, description,
	close_mode, close_minutes_before, cancel_minutes_before, waitlist_limit, is_active, created_at`

func scanTournament(row pgx.Row) (*model.Tournament, error) {
	var t model.Tournament
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.StartsAt,
		&t.Capacity,
		&t.Description,
		&t.CloseMode,
		&t.CloseMinutesBefore,
		&t.CancelMinutesBefore,
		&t.WaitlistLimit,
		&t.IsActive,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create создаёт турнир и привязывает его к группам.
// Вызывается внутри транзакции, чтобы турнир не появился без групп.
func (r *TournamentRepository) Create(ctx context.Context, tournament *model.Tournament) error {
	query := `
		INSERT INTO tournaments (title, starts_at, capacity, description,
			close_mode, close_minutes_before, cancel_minutes_before, waitlist_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_active, created_at
	`

	err := r.DB(ctx).QueryRow(
		ctx, query,
		tournament.Title,
		tournament.StartsAt,
		tournament.Capacity,
		tournament.Description,
		tournament.CloseMode,
		tournament.CloseMinutesBefore,
		tournament.CancelMinutesBefore,
		tournament.WaitlistLimit,
	).Scan(&tournament.ID, &tournament.IsActive, &tournament.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}

	for _, groupID := range tournament.GroupIDs {
		_, err := r.DB(ctx).Exec(
			ctx,
			`INSERT INTO tournament_groups (tournament_id, group_id) VALUES ($1, $2)`,
			tournament.ID, groupID,
		)
		if err != nil {
			return fmt.Errorf("attach tournament group: %w", err)
		}
	}

	return nil
}

// GetByID получает турнир вместе со списком допущенных групп
func (r *TournamentRepository) GetByID(ctx context.Context, id int64) (*model.Tournament, error) {
	tournament, err := scanTournament(r.DB(ctx).QueryRow(
		ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id,
	))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tournament by id: %w", err)
	}

	tournament.GroupIDs, err = r.GroupIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	return tournament, nil
}

// GetByIDForUpdate получает турнир, блокируя его строку до конца транзакции
func (r *TournamentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Tournament, error) {
	tournament, err := scanTournament(r.DB(ctx).QueryRow(
		ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tournament for update: %w", err)
	}

	tournament.GroupIDs, err = r.GroupIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	return tournament, nil
}

// GroupIDs получает группы, которым доступен турнир
func (r *TournamentRepository) GroupIDs(ctx context.Context, tournamentID int64) ([]int64, error) {
	rows, err := r.DB(ctx).Query(
		ctx, `SELECT group_id FROM tournament_groups WHERE tournament_id = $1 ORDER BY group_id`, tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("get tournament groups: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tournament group: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// UpcomingForGroup получает будущие активные турниры, доступные группе
func (r *TournamentRepository) UpcomingForGroup(ctx context.Context, groupID int64, from time.Time) ([]*model.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE is_active = TRUE AND starts_at > $2
		  AND id IN (SELECT tournament_id FROM tournament_groups WHERE group_id = $1)
		ORDER BY starts_at
	`

	rows, err := r.DB(ctx).Query(ctx, query, groupID, from)
	if err != nil {
		return nil, fmt.Errorf("get upcoming tournaments: %w", err)
	}
	defer rows.Close()

	return collectTournaments(rows)
}

// Upcoming получает все будущие активные турниры
func (r *TournamentRepository) Upcoming(ctx context.Context, from time.Time) ([]*model.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE is_active = TRUE AND starts_at > $1
		ORDER BY starts_at
	`

	rows, err := r.DB(ctx).Query(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("get upcoming tournaments: %w", err)
	}
	defer rows.Close()

	return collectTournaments(rows)
}

func collectTournaments(rows pgx.Rows) ([]*model.Tournament, error) {
	var tournaments []*model.Tournament
	for rows.Next() {
		tournament, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tournament: %w", err)
		}
		tournaments = append(tournaments, tournament)
	}

	return tournaments, rows.Err()
}

// Deactivate помечает турнир неактивным
func (r *TournamentRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.DB(ctx).Exec(ctx, `UPDATE tournaments SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate tournament: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("tournament not found")
	}

	return nil
}
