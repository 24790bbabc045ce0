package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/construction-budget/backend/internal/models"
)

const phaseColumns = `id, project_id, name, sort_order, budget_total, actual_total,
	        prerequisites, created_at, updated_at, deleted_at`

type PhaseRepository struct {
	db *pgxpool.Pool
}

// NewPhaseRepository создает репозиторий фаз.
func NewPhaseRepository(db *pgxpool.Pool) *PhaseRepository {
	return &PhaseRepository{db: db}
}

// Create сохраняет фазу проекта, проверяя существование предпосылок.
func (r *PhaseRepository) Create(ctx context.Context, phase models.Phase) (models.Phase, error) {
	if phase.ID == uuid.Nil {
		phase.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Phase{}, storageErr(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if len(phase.Prerequisites) > 0 {
		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*)
			 FROM phases
			 WHERE project_id = $1 AND id = ANY($2) AND deleted_at IS NULL`,
			phase.ProjectID, phase.Prerequisites,
		).Scan(&count)
		if err != nil {
			return models.Phase{}, storageErr(err)
		}
		if count != len(phase.Prerequisites) {
			return models.Phase{}, ErrInvalid
		}
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO phases (id, project_id, name, sort_order, budget_total, actual_total, prerequisites)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+phaseColumns,
		phase.ID, phase.ProjectID, phase.Name, phase.SortOrder, phase.BudgetTotal, phase.ActualTotal, phase.Prerequisites,
	)

	created, err := scanPhase(row)
	if err != nil {
		return models.Phase{}, storageErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Phase{}, storageErr(err)
	}

	return created, nil
}

// GetByID возвращает неудаленную фазу проекта.
func (r *PhaseRepository) GetByID(ctx context.Context, projectID, phaseID uuid.UUID) (models.Phase, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+phaseColumns+`
		 FROM phases
		 WHERE id = $1 AND project_id = $2 AND deleted_at IS NULL`,
		phaseID, projectID,
	)

	phase, err := scanPhase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Phase{}, ErrNotFound
		}
		return models.Phase{}, storageErr(err)
	}

	return phase, nil
}

// ListByProject возвращает неудаленные фазы проекта по порядку.
func (r *PhaseRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Phase, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+phaseColumns+`
		 FROM phases
		 WHERE project_id = $1 AND deleted_at IS NULL
		 ORDER BY sort_order, created_at`,
		projectID,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	phases := make([]models.Phase, 0)
	for rows.Next() {
		phase, err := scanPhase(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		phases = append(phases, phase)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	return phases, nil
}

func scanPhase(row pgx.Row) (models.Phase, error) {
	var phase models.Phase
	var deletedAt *time.Time

	err := row.Scan(
		&phase.ID, &phase.ProjectID, &phase.Name, &phase.SortOrder,
		&phase.BudgetTotal, &phase.ActualTotal, &phase.Prerequisites,
		&phase.CreatedAt, &phase.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return phase, err
	}

	phase.DeletedAt = deletedAt
	return phase, nil
}
