package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

type SpendRepository struct {
	db *pgxpool.Pool
}

// NewSpendRepository создает репозиторий записей о тратах.
func NewSpendRepository(db *pgxpool.Pool) *SpendRepository {
	return &SpendRepository{db: db}
}

// Create добавляет запись о трате. Трата с фазой в той же транзакции
// увеличивает фактические расходы фазы.
func (r *SpendRepository) Create(ctx context.Context, record models.SpendRecord) (models.SpendRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.SpendRecord{}, storageErr(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO spend_records (id, project_id, category, phase_id, amount, memo, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, project_id, category, phase_id, amount, memo, recorded_at`,
		record.ID, record.ProjectID, record.Category, record.PhaseID, record.Amount, record.Memo, record.RecordedAt,
	).Scan(&record.ID, &record.ProjectID, &record.Category, &record.PhaseID, &record.Amount, &record.Memo, &record.RecordedAt)
	if err != nil {
		return models.SpendRecord{}, storageErr(err)
	}

	if record.PhaseID != nil {
		cmd, err := tx.Exec(ctx,
			`UPDATE phases
			 SET actual_total = actual_total + $3, updated_at = NOW()
			 WHERE id = $1 AND project_id = $2 AND deleted_at IS NULL`,
			*record.PhaseID, record.ProjectID, record.Amount,
		)
		if err != nil {
			return models.SpendRecord{}, storageErr(err)
		}
		if cmd.RowsAffected() == 0 {
			return models.SpendRecord{}, ErrNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.SpendRecord{}, storageErr(err)
	}

	return record, nil
}

// TotalsByCategory возвращает суммарные траты проекта по категориям.
func (r *SpendRepository) TotalsByCategory(ctx context.Context, projectID uuid.UUID) (map[models.Category]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT category, COALESCE(SUM(amount), 0)
		 FROM spend_records
		 WHERE project_id = $1
		 GROUP BY category`,
		projectID,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	totals := make(map[models.Category]decimal.Decimal)
	for rows.Next() {
		var category models.Category
		var total decimal.Decimal

		if err := rows.Scan(&category, &total); err != nil {
			return nil, storageErr(err)
		}
		totals[category] = total
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	return totals, nil
}

// TotalForCategory возвращает суммарные траты одной категории.
func (r *SpendRepository) TotalForCategory(ctx context.Context, projectID uuid.UUID, category models.Category) (decimal.Decimal, error) {
	var total decimal.Decimal

	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)
		 FROM spend_records
		 WHERE project_id = $1 AND category = $2`,
		projectID, category,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, storageErr(err)
	}

	return total, nil
}

// ListSince возвращает записи о тратах начиная с указанного момента.
func (r *SpendRepository) ListSince(ctx context.Context, projectID uuid.UUID, since time.Time) ([]models.SpendRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, project_id, category, phase_id, amount, memo, recorded_at
		 FROM spend_records
		 WHERE project_id = $1 AND recorded_at >= $2
		 ORDER BY recorded_at`,
		projectID, since,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	records := make([]models.SpendRecord, 0)
	for rows.Next() {
		var record models.SpendRecord

		err := rows.Scan(&record.ID, &record.ProjectID, &record.Category, &record.PhaseID, &record.Amount, &record.Memo, &record.RecordedAt)
		if err != nil {
			return nil, storageErr(err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	return records, nil
}
