package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/models"
)

const drawColumns = `id, project_id, amount, status, reason, requested_by, resolved_by,
	        created_at, updated_at, deleted_at`

type ContingencyRepository struct {
	db *pgxpool.Pool
}

// NewContingencyRepository создает репозиторий заявок на резерв.
func NewContingencyRepository(db *pgxpool.Pool) *ContingencyRepository {
	return &ContingencyRepository{db: db}
}

// CreateDraw сохраняет заявку на использование резерва в статусе pending.
func (r *ContingencyRepository) CreateDraw(ctx context.Context, draw models.ContingencyDraw) (models.ContingencyDraw, error) {
	if draw.ID == uuid.Nil {
		draw.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO contingency_draws (id, project_id, amount, status, reason, requested_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+drawColumns,
		draw.ID, draw.ProjectID, draw.Amount, models.StatusPending, draw.Reason, draw.RequestedBy,
	)

	created, err := scanDraw(row)
	if err != nil {
		return models.ContingencyDraw{}, storageErr(err)
	}

	return created, nil
}

// ListByProject возвращает неудаленные заявки проекта.
func (r *ContingencyRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ContingencyDraw, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+drawColumns+`
		 FROM contingency_draws
		 WHERE project_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	draws := make([]models.ContingencyDraw, 0)
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		draws = append(draws, draw)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	return draws, nil
}

// Resolve условно переводит заявку из pending в терминальный статус.
// Уже решенная заявка дает finance.ErrInvalidState с текущим статусом.
func (r *ContingencyRepository) Resolve(ctx context.Context, id, resolver uuid.UUID, status models.RequestStatus) (models.ContingencyDraw, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return models.ContingencyDraw{}, ErrInvalid
	}

	row := r.db.QueryRow(ctx,
		`UPDATE contingency_draws
		 SET status = $2, resolved_by = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending' AND deleted_at IS NULL
		 RETURNING `+drawColumns,
		id, status, resolver,
	)

	draw, err := scanDraw(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ContingencyDraw{}, r.resolveConflict(ctx, id)
		}
		return models.ContingencyDraw{}, storageErr(err)
	}

	return draw, nil
}

func (r *ContingencyRepository) resolveConflict(ctx context.Context, id uuid.UUID) error {
	var status models.RequestStatus

	err := r.db.QueryRow(ctx,
		`SELECT status FROM contingency_draws WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: contingency draw", finance.ErrNotFound)
		}
		return storageErr(err)
	}

	return fmt.Errorf("%w: draw already %s", finance.ErrInvalidState, status)
}

func scanDraw(row pgx.Row) (models.ContingencyDraw, error) {
	var draw models.ContingencyDraw
	var resolvedBy *uuid.UUID
	var deletedAt *time.Time

	err := row.Scan(
		&draw.ID, &draw.ProjectID, &draw.Amount, &draw.Status, &draw.Reason,
		&draw.RequestedBy, &resolvedBy,
		&draw.CreatedAt, &draw.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return draw, err
	}

	draw.ResolvedBy = resolvedBy
	draw.DeletedAt = deletedAt
	return draw, nil
}
