package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/models"
)

const reallocationColumns = `id, project_id, source_kind, source_category, source_phase_id,
	        dest_kind, dest_category, dest_phase_id, amount, status,
	        requested_by, resolved_by, rejection_reason, headroom_warning,
	        requested_at, resolved_at, deleted_at`

// ReallocationStore хранит заявки на перенос бюджета и выполняет их
// условные переходы. Реализует finance.RequestStore.
type ReallocationStore struct {
	db *pgxpool.Pool
}

// NewReallocationStore создает хранилище заявок на перенос.
func NewReallocationStore(db *pgxpool.Pool) *ReallocationStore {
	return &ReallocationStore{db: db}
}

// Create сохраняет заявку в статусе pending.
func (s *ReallocationStore) Create(ctx context.Context, request models.ReallocationRequest) (models.ReallocationRequest, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO reallocation_requests
		        (id, project_id, source_kind, source_category, source_phase_id,
		         dest_kind, dest_category, dest_phase_id, amount, status,
		         requested_by, headroom_warning, requested_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+reallocationColumns,
		request.ID, request.ProjectID,
		request.Source.Kind, nullCategory(request.Source), nullPhase(request.Source),
		request.Destination.Kind, nullCategory(request.Destination), nullPhase(request.Destination),
		request.Amount, request.Status,
		request.RequestedBy, request.HeadroomWarning, request.RequestedAt,
	)

	created, err := scanReallocation(row)
	if err != nil {
		return models.ReallocationRequest{}, storageErr(err)
	}

	return created, nil
}

// Get возвращает неудаленную заявку.
func (s *ReallocationStore) Get(ctx context.Context, id uuid.UUID) (models.ReallocationRequest, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+reallocationColumns+`
		 FROM reallocation_requests
		 WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)

	request, err := scanReallocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ReallocationRequest{}, fmt.Errorf("%w: reallocation request", finance.ErrNotFound)
		}
		return models.ReallocationRequest{}, storageErr(err)
	}

	return request, nil
}

// ListByProject возвращает неудаленные заявки проекта, новые первыми.
func (s *ReallocationStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ReallocationRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+reallocationColumns+`
		 FROM reallocation_requests
		 WHERE project_id = $1 AND deleted_at IS NULL
		 ORDER BY requested_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	requests := make([]models.ReallocationRequest, 0)
	for rows.Next() {
		request, err := scanReallocation(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	return requests, nil
}

// Approve атомарно переводит заявку в approved и переносит сумму из
// источника в назначение. Переход условный: WHERE status = 'pending'
// гарантирует, что из конкурирующих согласований зафиксируется одно,
// остальные получат finance.ErrInvalidState. Статус и деньги меняются
// в одной транзакции — частичная запись невозможна.
func (s *ReallocationStore) Approve(ctx context.Context, id, approver uuid.UUID, resolvedAt time.Time) (models.ReallocationRequest, finance.MoneyMove, error) {
	var move finance.MoneyMove

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return models.ReallocationRequest{}, move, storageErr(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`UPDATE reallocation_requests
		 SET status = 'approved', resolved_by = $2, resolved_at = $3
		 WHERE id = $1 AND status = 'pending' AND deleted_at IS NULL
		 RETURNING `+reallocationColumns,
		id, approver, resolvedAt,
	)

	request, err := scanReallocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ReallocationRequest{}, move, s.transitionConflict(ctx, id)
		}
		return models.ReallocationRequest{}, move, storageErr(err)
	}

	move.SourceBefore, move.SourceAfter, err = moveLine(ctx, tx, request.ProjectID, request.Source, request.Amount.Neg())
	if err != nil {
		return models.ReallocationRequest{}, finance.MoneyMove{}, err
	}

	move.DestBefore, move.DestAfter, err = moveLine(ctx, tx, request.ProjectID, request.Destination, request.Amount)
	if err != nil {
		return models.ReallocationRequest{}, finance.MoneyMove{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.ReallocationRequest{}, finance.MoneyMove{}, storageErr(err)
	}

	return request, move, nil
}

// Reject условно переводит заявку в rejected, деньги не двигаются.
func (s *ReallocationStore) Reject(ctx context.Context, id, rejecter uuid.UUID, reason string, resolvedAt time.Time) (models.ReallocationRequest, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE reallocation_requests
		 SET status = 'rejected', resolved_by = $2, rejection_reason = $3, resolved_at = $4
		 WHERE id = $1 AND status = 'pending' AND deleted_at IS NULL
		 RETURNING `+reallocationColumns,
		id, rejecter, reason, resolvedAt,
	)

	request, err := scanReallocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ReallocationRequest{}, s.transitionConflict(ctx, id)
		}
		return models.ReallocationRequest{}, storageErr(err)
	}

	return request, nil
}

// Delete мягко удаляет терминальную заявку; pending удалять нельзя.
func (s *ReallocationStore) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := s.db.Exec(ctx,
		`UPDATE reallocation_requests
		 SET deleted_at = NOW()
		 WHERE id = $1 AND status IN ('approved', 'rejected') AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return storageErr(err)
	}

	if cmd.RowsAffected() == 0 {
		err := s.transitionConflict(ctx, id)
		if errors.Is(err, finance.ErrInvalidState) {
			return fmt.Errorf("%w: pending request cannot be deleted", finance.ErrInvalidState)
		}
		return err
	}

	return nil
}

// Уточняет причину несработавшего условного обновления: заявки нет или
// она уже в терминальном статусе.
func (s *ReallocationStore) transitionConflict(ctx context.Context, id uuid.UUID) error {
	var status models.RequestStatus

	err := s.db.QueryRow(ctx,
		`SELECT status FROM reallocation_requests WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: reallocation request", finance.ErrNotFound)
		}
		return storageErr(err)
	}

	return fmt.Errorf("%w: request already %s", finance.ErrInvalidState, status)
}

// moveLine прибавляет delta к строке бюджета и возвращает значения до
// и после. Категории двигаются только у categorized-бюджетов.
func moveLine(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, line models.BudgetLine, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	var before, after decimal.Decimal

	switch line.Kind {
	case models.LineKindCategory:
		column, err := categoryColumn(line.Category)
		if err != nil {
			return before, after, err
		}

		query := fmt.Sprintf(
			`UPDATE projects
			 SET %[1]s = %[1]s + $2, updated_at = NOW()
			 WHERE id = $1 AND budget_mode = 'categorized' AND %[1]s IS NOT NULL AND deleted_at IS NULL
			 RETURNING %[1]s - $2, %[1]s`,
			column,
		)

		err = tx.QueryRow(ctx, query, projectID, delta).Scan(&before, &after)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return before, after, fmt.Errorf("%w: project budget has no explicit category amounts", finance.ErrInvalidState)
			}
			return before, after, storageErr(err)
		}

	case models.LineKindPhase:
		err := tx.QueryRow(ctx,
			`UPDATE phases
			 SET budget_total = budget_total + $3, updated_at = NOW()
			 WHERE id = $1 AND project_id = $2 AND deleted_at IS NULL
			 RETURNING budget_total - $3, budget_total`,
			line.PhaseID, projectID, delta,
		).Scan(&before, &after)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return before, after, fmt.Errorf("%w: phase", finance.ErrNotFound)
			}
			return before, after, storageErr(err)
		}

	default:
		return before, after, ErrInvalid
	}

	return before, after, nil
}

// Имена колонок берутся только из этого списка, подстановка безопасна.
func categoryColumn(category models.Category) (string, error) {
	switch category {
	case models.CategoryDirectConstruction:
		return "cat_direct_construction", nil
	case models.CategoryPreConstruction:
		return "cat_pre_construction", nil
	case models.CategoryIndirect:
		return "cat_indirect", nil
	case models.CategoryContingency:
		return "cat_contingency", nil
	default:
		return "", ErrInvalid
	}
}

func nullCategory(line models.BudgetLine) *models.Category {
	if line.Kind != models.LineKindCategory {
		return nil
	}
	category := line.Category
	return &category
}

func nullPhase(line models.BudgetLine) *uuid.UUID {
	if line.Kind != models.LineKindPhase {
		return nil
	}
	phaseID := line.PhaseID
	return &phaseID
}

func scanReallocation(row pgx.Row) (models.ReallocationRequest, error) {
	var request models.ReallocationRequest
	var sourceCategory, destCategory *models.Category
	var sourcePhase, destPhase *uuid.UUID

	err := row.Scan(
		&request.ID, &request.ProjectID,
		&request.Source.Kind, &sourceCategory, &sourcePhase,
		&request.Destination.Kind, &destCategory, &destPhase,
		&request.Amount, &request.Status,
		&request.RequestedBy, &request.ResolvedBy, &request.RejectionReason, &request.HeadroomWarning,
		&request.RequestedAt, &request.ResolvedAt, &request.DeletedAt,
	)
	if err != nil {
		return request, err
	}

	if sourceCategory != nil {
		request.Source.Category = *sourceCategory
	}
	if sourcePhase != nil {
		request.Source.PhaseID = *sourcePhase
	}
	if destCategory != nil {
		request.Destination.Category = *destCategory
	}
	if destPhase != nil {
		request.Destination.PhaseID = *destPhase
	}

	return request, nil
}
