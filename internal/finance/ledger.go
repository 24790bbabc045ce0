package finance

import (
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

// Summary — производные показатели бюджета для запрошенной области:
// проекта (прямые строительные работы), категории или фазы.
type Summary struct {
	Budgeted              decimal.Decimal `json:"budgeted"`
	Spent                 decimal.Decimal `json:"spent"`
	Remaining             decimal.Decimal `json:"remaining"`
	Allocated             decimal.Decimal `json:"allocated"`
	Unallocated           decimal.Decimal `json:"unallocated"`
	UtilizationPercentage decimal.Decimal `json:"utilization_percentage"`
	Warnings              []string        `json:"warnings,omitempty"`
}

// CategoryBudget определяет бюджет категории. Для categorized-бюджета
// берется явное значение; для flat-бюджета прямые работы выводятся
// вычитанием оценочных долей подготовки, накладных и резерва из общей
// суммы (не ниже нуля), остальные категории — своей долей от общей суммы.
func CategoryBudget(project models.Project, category models.Category, cfg Config) decimal.Decimal {
	budget := project.Budget
	if budget.Mode == models.BudgetModeCategorized && budget.Categories != nil {
		switch category {
		case models.CategoryDirectConstruction:
			return budget.Categories.DirectConstruction
		case models.CategoryPreConstruction:
			return budget.Categories.PreConstruction
		case models.CategoryIndirect:
			return budget.Categories.Indirect
		case models.CategoryContingency:
			return budget.Categories.Contingency
		default:
			return decimal.Zero
		}
	}

	total := budget.Total
	switch category {
	case models.CategoryPreConstruction:
		return total.Mul(cfg.PreConstructionRatio)
	case models.CategoryIndirect:
		return total.Mul(cfg.IndirectRatio)
	case models.CategoryContingency:
		if budget.Contingency != nil {
			return *budget.Contingency
		}
		return total.Mul(cfg.ContingencyRatio)
	case models.CategoryDirectConstruction:
		contingency := total.Mul(cfg.ContingencyRatio)
		if budget.Contingency != nil {
			contingency = *budget.Contingency
		}
		derived := total.
			Sub(total.Mul(cfg.PreConstructionRatio)).
			Sub(total.Mul(cfg.IndirectRatio)).
			Sub(contingency)
		return maxZero(derived)
	default:
		return decimal.Zero
	}
}

// Utilization считает процент освоения. Нулевой бюджет или нулевые траты
// дают 0, деление на ноль невозможно.
func Utilization(spent, budgeted decimal.Decimal) decimal.Decimal {
	if spent.IsPositive() && budgeted.IsPositive() {
		return spent.Div(budgeted).Mul(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

// ProjectSummary считает сводку бюджета прямых строительных работ:
// allocated — сумма бюджетов неудаленных фаз, unallocated — остаток
// нераспределенного бюджета, превышения фиксируются предупреждениями.
func ProjectSummary(project models.Project, phases []models.Phase, spent decimal.Decimal, cfg Config) Summary {
	budgeted := CategoryBudget(project, models.CategoryDirectConstruction, cfg)

	allocated := decimal.Zero
	for _, phase := range phases {
		if phase.DeletedAt != nil {
			continue
		}
		allocated = allocated.Add(phase.BudgetTotal)
	}

	summary := Summary{
		Budgeted:              budgeted,
		Spent:                 spent,
		Remaining:             maxZero(budgeted.Sub(spent)),
		Allocated:             allocated,
		Unallocated:           maxZero(budgeted.Sub(allocated)),
		UtilizationPercentage: Utilization(spent, budgeted),
	}

	if allocated.GreaterThan(budgeted) {
		summary.Warnings = append(summary.Warnings, "phase allocations exceed direct construction budget")
	}
	if warning, ok := categorySumWarning(project); ok {
		summary.Warnings = append(summary.Warnings, warning)
	}

	return summary
}

// PhaseAllocationWarnings проверяет, поместится ли еще одна фаза с
// бюджетом extra в бюджет прямых строительных работ вместе с уже
// распределенными фазами. Превышение не блокирует создание фазы,
// только фиксируется предупреждением.
func PhaseAllocationWarnings(project models.Project, phases []models.Phase, extra decimal.Decimal, cfg Config) []string {
	budgeted := CategoryBudget(project, models.CategoryDirectConstruction, cfg)

	allocated := extra
	for _, phase := range phases {
		if phase.DeletedAt != nil {
			continue
		}
		allocated = allocated.Add(phase.BudgetTotal)
	}

	if allocated.GreaterThan(budgeted) {
		return []string{"phase allocations exceed direct construction budget"}
	}

	return nil
}

// CategorySummary считает сводку по одной категории бюджета.
func CategorySummary(project models.Project, category models.Category, spent decimal.Decimal, cfg Config) Summary {
	budgeted := CategoryBudget(project, category, cfg)

	return Summary{
		Budgeted:              budgeted,
		Spent:                 spent,
		Remaining:             maxZero(budgeted.Sub(spent)),
		Allocated:             decimal.Zero,
		Unallocated:           budgeted,
		UtilizationPercentage: Utilization(spent, budgeted),
	}
}

// PhaseSummary считает сводку по одной фазе.
func PhaseSummary(phase models.Phase) Summary {
	return Summary{
		Budgeted:              phase.BudgetTotal,
		Spent:                 phase.ActualTotal,
		Remaining:             maxZero(phase.BudgetTotal.Sub(phase.ActualTotal)),
		Allocated:             decimal.Zero,
		Unallocated:           phase.BudgetTotal,
		UtilizationPercentage: Utilization(phase.ActualTotal, phase.BudgetTotal),
	}
}

// Мягкий инвариант: сумма явных категорий не должна превышать общую
// сумму, нарушение фиксируется, но не блокирует запись.
func categorySumWarning(project models.Project) (string, bool) {
	budget := project.Budget
	if budget.Mode != models.BudgetModeCategorized || budget.Categories == nil || !budget.Total.IsPositive() {
		return "", false
	}

	sum := budget.Categories.DirectConstruction.
		Add(budget.Categories.PreConstruction).
		Add(budget.Categories.Indirect).
		Add(budget.Categories.Contingency)
	if sum.GreaterThan(budget.Total) {
		return "category amounts exceed declared total", true
	}

	return "", false
}

func maxZero(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}
