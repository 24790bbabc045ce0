package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/models"
)

// LedgerStore отдает запас строк бюджета поверх репозиториев проектов,
// фаз и трат. Реализует finance.LedgerSource.
type LedgerStore struct {
	projects *ProjectRepository
	phases   *PhaseRepository
	spend    *SpendRepository
	cfg      finance.Config
}

// NewLedgerStore собирает источник данных для проверок запаса.
func NewLedgerStore(db *pgxpool.Pool, cfg finance.Config) *LedgerStore {
	return &LedgerStore{
		projects: NewProjectRepository(db),
		phases:   NewPhaseRepository(db),
		spend:    NewSpendRepository(db),
		cfg:      cfg,
	}
}

// LineHeadroom возвращает сумму, которую можно снять со строки бюджета.
// Для прямых строительных затрат это нераспределенный остаток (бюджет
// категории минус бюджеты фаз), для остальных категорий — бюджет минус
// траты, для фазы — бюджет фазы минус ее фактические расходы.
func (s *LedgerStore) LineHeadroom(ctx context.Context, projectID uuid.UUID, line models.BudgetLine) (decimal.Decimal, error) {
	switch line.Kind {
	case models.LineKindPhase:
		phase, err := s.phases.GetByID(ctx, projectID, line.PhaseID)
		if err != nil {
			return decimal.Zero, err
		}
		return phase.BudgetTotal.Sub(phase.ActualTotal), nil

	case models.LineKindCategory:
		project, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return decimal.Zero, err
		}

		budgeted := finance.CategoryBudget(project, line.Category, s.cfg)

		if line.Category == models.CategoryDirectConstruction {
			phases, err := s.phases.ListByProject(ctx, projectID)
			if err != nil {
				return decimal.Zero, err
			}

			allocated := decimal.Zero
			for _, phase := range phases {
				allocated = allocated.Add(phase.BudgetTotal)
			}
			return budgeted.Sub(allocated), nil
		}

		spent, err := s.spend.TotalForCategory(ctx, projectID, line.Category)
		if err != nil {
			return decimal.Zero, err
		}
		return budgeted.Sub(spent), nil

	default:
		return decimal.Zero, ErrInvalid
	}
}
