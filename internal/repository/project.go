package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

const projectColumns = `id, name, currency, budget_mode, budget_total, budget_contingency,
	        cat_direct_construction, cat_pre_construction, cat_indirect, cat_contingency,
	        period_start, period_end, created_at, updated_at, deleted_at`

type ProjectRepository struct {
	db *pgxpool.Pool
}

// NewProjectRepository создает репозиторий проектов.
func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create сохраняет проект с плоским или категоризированным бюджетом.
func (r *ProjectRepository) Create(ctx context.Context, project models.Project) (models.Project, error) {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}

	var contingency decimal.NullDecimal
	if project.Budget.Contingency != nil {
		contingency = decimal.NewNullDecimal(*project.Budget.Contingency)
	}

	var catDirect, catPre, catIndirect, catContingency decimal.NullDecimal
	if project.Budget.Categories != nil {
		catDirect = decimal.NewNullDecimal(project.Budget.Categories.DirectConstruction)
		catPre = decimal.NewNullDecimal(project.Budget.Categories.PreConstruction)
		catIndirect = decimal.NewNullDecimal(project.Budget.Categories.Indirect)
		catContingency = decimal.NewNullDecimal(project.Budget.Categories.Contingency)
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO projects (id, name, currency, budget_mode, budget_total, budget_contingency,
		                       cat_direct_construction, cat_pre_construction, cat_indirect, cat_contingency,
		                       period_start, period_end)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+projectColumns,
		project.ID, project.Name, project.Currency, project.Budget.Mode, project.Budget.Total, contingency,
		catDirect, catPre, catIndirect, catContingency,
		project.PeriodStart, project.PeriodEnd,
	)

	created, err := scanProject(row)
	if err != nil {
		return models.Project{}, storageErr(err)
	}

	return created, nil
}

// GetByID возвращает неудаленный проект по идентификатору.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Project, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, storageErr(err)
	}

	return project, nil
}

// List возвращает неудаленные проекты в порядке создания.
func (r *ProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE deleted_at IS NULL
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	return projects, nil
}

// Delete мягко удаляет проект.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE projects
		 SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return storageErr(err)
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanProject(row pgx.Row) (models.Project, error) {
	var project models.Project
	var contingency decimal.NullDecimal
	var catDirect, catPre, catIndirect, catContingency decimal.NullDecimal
	var deletedAt *time.Time

	err := row.Scan(
		&project.ID, &project.Name, &project.Currency,
		&project.Budget.Mode, &project.Budget.Total, &contingency,
		&catDirect, &catPre, &catIndirect, &catContingency,
		&project.PeriodStart, &project.PeriodEnd,
		&project.CreatedAt, &project.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return project, err
	}

	if contingency.Valid {
		value := contingency.Decimal
		project.Budget.Contingency = &value
	}

	if project.Budget.Mode == models.BudgetModeCategorized && catDirect.Valid {
		project.Budget.Categories = &models.BudgetCategories{
			DirectConstruction: catDirect.Decimal,
			PreConstruction:    catPre.Decimal,
			Indirect:           catIndirect.Decimal,
			Contingency:        catContingency.Decimal,
		}
	}

	project.DeletedAt = deletedAt
	return project, nil
}
