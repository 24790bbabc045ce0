package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/construction-budget/backend/internal/models"
)

const auditColumns = `id, actor_id, action, entity_type, entity_id, project_id,
	        before_state, after_state, created_at`

// AuditRepository — append-only журнал изменений. Реализует
// finance.AuditLog.
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository создает репозиторий журнала аудита.
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record добавляет запись в журнал. Записи не обновляются и не
// удаляются.
func (r *AuditRepository) Record(ctx context.Context, record models.AuditRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_records (id, actor_id, action, entity_type, entity_id, project_id, before_state, after_state, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.ActorID, record.Action, record.EntityType, record.EntityID,
		record.ProjectID, record.Before, record.After, record.CreatedAt,
	)
	if err != nil {
		return storageErr(err)
	}

	return nil
}

// ListByProject возвращает записи журнала проекта, новые первыми.
func (r *AuditRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.AuditRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_records
		 WHERE project_id = $1
		 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	records := make([]models.AuditRecord, 0)
	for rows.Next() {
		record, err := scanAudit(rows)
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

func scanAudit(row pgx.Row) (models.AuditRecord, error) {
	var record models.AuditRecord

	err := row.Scan(
		&record.ID, &record.ActorID, &record.Action, &record.EntityType, &record.EntityID,
		&record.ProjectID, &record.Before, &record.After, &record.CreatedAt,
	)
	if err != nil {
		return record, err
	}

	return record, nil
}
