package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

func flatProject(total int64) models.Project {
	return models.Project{
		Budget: models.Budget{
			Mode:  models.BudgetModeFlat,
			Total: decimal.NewFromInt(total),
		},
	}
}

func categorizedProject(dcc, pre, indirect, contingency int64) models.Project {
	return models.Project{
		Budget: models.Budget{
			Mode:  models.BudgetModeCategorized,
			Total: decimal.NewFromInt(dcc + pre + indirect + contingency),
			Categories: &models.BudgetCategories{
				DirectConstruction: decimal.NewFromInt(dcc),
				PreConstruction:    decimal.NewFromInt(pre),
				Indirect:           decimal.NewFromInt(indirect),
				Contingency:        decimal.NewFromInt(contingency),
			},
		},
	}
}

// TestCategoryBudgetFlatDerivation проверяет вывод бюджета прямых работ
// из плоской суммы: 1 000 000 минус по 5% на подготовку, накладные и
// резерв дает 850 000.
func TestCategoryBudgetFlatDerivation(t *testing.T) {
	project := flatProject(1_000_000)
	cfg := DefaultConfig()

	got := CategoryBudget(project, models.CategoryDirectConstruction, cfg)
	if !got.Equal(decimal.NewFromInt(850_000)) {
		t.Fatalf("expected 850000, got %s", got)
	}

	contingency := CategoryBudget(project, models.CategoryContingency, cfg)
	if !contingency.Equal(decimal.NewFromInt(50_000)) {
		t.Fatalf("expected estimated contingency 50000, got %s", contingency)
	}
}

// TestCategoryBudgetFlatContingencyOverride проверяет, что явный резерв
// плоского бюджета вытесняет оценочные 5%.
func TestCategoryBudgetFlatContingencyOverride(t *testing.T) {
	project := flatProject(1_000_000)
	override := decimal.NewFromInt(100_000)
	project.Budget.Contingency = &override

	got := CategoryBudget(project, models.CategoryDirectConstruction, DefaultConfig())
	if !got.Equal(decimal.NewFromInt(800_000)) {
		t.Fatalf("expected 800000, got %s", got)
	}
}

// TestCategoryBudgetFlatFloorsAtZero проверяет, что выведенный бюджет
// не уходит в минус.
func TestCategoryBudgetFlatFloorsAtZero(t *testing.T) {
	project := flatProject(100)
	override := decimal.NewFromInt(1_000)
	project.Budget.Contingency = &override

	got := CategoryBudget(project, models.CategoryDirectConstruction, DefaultConfig())
	if !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}

// TestCategoryBudgetCategorized проверяет чтение явных категорий.
func TestCategoryBudgetCategorized(t *testing.T) {
	project := categorizedProject(700_000, 100_000, 100_000, 100_000)
	cfg := DefaultConfig()

	if got := CategoryBudget(project, models.CategoryDirectConstruction, cfg); !got.Equal(decimal.NewFromInt(700_000)) {
		t.Fatalf("expected 700000, got %s", got)
	}
	if got := CategoryBudget(project, models.CategoryIndirect, cfg); !got.Equal(decimal.NewFromInt(100_000)) {
		t.Fatalf("expected 100000, got %s", got)
	}
}

// TestUtilization проверяет формулу освоения и отсутствие деления на ноль.
func TestUtilization(t *testing.T) {
	got := Utilization(decimal.NewFromInt(250), decimal.NewFromInt(1_000))
	if !got.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected 25, got %s", got)
	}

	over := Utilization(decimal.NewFromInt(1_500), decimal.NewFromInt(1_000))
	if !over.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected uncapped 150, got %s", over)
	}

	if got := Utilization(decimal.NewFromInt(500), decimal.Zero); !got.IsZero() {
		t.Fatalf("expected 0 for zero budget, got %s", got)
	}
	if got := Utilization(decimal.Zero, decimal.NewFromInt(500)); !got.IsZero() {
		t.Fatalf("expected 0 for zero spend, got %s", got)
	}
}

// TestProjectSummary проверяет сводку проекта: распределение по фазам,
// остатки и клампы.
func TestProjectSummary(t *testing.T) {
	project := categorizedProject(500_000, 50_000, 50_000, 50_000)
	phases := []models.Phase{
		{BudgetTotal: decimal.NewFromInt(200_000)},
		{BudgetTotal: decimal.NewFromInt(100_000)},
	}

	summary := ProjectSummary(project, phases, decimal.NewFromInt(150_000), DefaultConfig())

	if !summary.Budgeted.Equal(decimal.NewFromInt(500_000)) {
		t.Fatalf("unexpected budgeted: %s", summary.Budgeted)
	}
	if !summary.Allocated.Equal(decimal.NewFromInt(300_000)) {
		t.Fatalf("unexpected allocated: %s", summary.Allocated)
	}
	if !summary.Unallocated.Equal(decimal.NewFromInt(200_000)) {
		t.Fatalf("unexpected unallocated: %s", summary.Unallocated)
	}
	if !summary.Remaining.Equal(decimal.NewFromInt(350_000)) {
		t.Fatalf("unexpected remaining: %s", summary.Remaining)
	}
	if !summary.UtilizationPercentage.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected utilization: %s", summary.UtilizationPercentage)
	}
	if len(summary.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", summary.Warnings)
	}
}

// TestProjectSummarySkipsDeletedPhases проверяет, что удаленные фазы
// не участвуют в распределении.
func TestProjectSummarySkipsDeletedPhases(t *testing.T) {
	deletedAt := time.Now()
	project := categorizedProject(500_000, 0, 0, 0)
	phases := []models.Phase{
		{BudgetTotal: decimal.NewFromInt(200_000)},
		{BudgetTotal: decimal.NewFromInt(900_000), DeletedAt: &deletedAt},
	}

	summary := ProjectSummary(project, phases, decimal.Zero, DefaultConfig())
	if !summary.Allocated.Equal(decimal.NewFromInt(200_000)) {
		t.Fatalf("unexpected allocated: %s", summary.Allocated)
	}
}

// TestProjectSummaryWarnings проверяет мягкие инварианты: перебор фаз
// над бюджетом прямых работ и перебор категорий над общей суммой.
func TestProjectSummaryWarnings(t *testing.T) {
	project := categorizedProject(100_000, 100_000, 100_000, 100_000)
	project.Budget.Total = decimal.NewFromInt(300_000)
	phases := []models.Phase{{BudgetTotal: decimal.NewFromInt(150_000)}}

	summary := ProjectSummary(project, phases, decimal.Zero, DefaultConfig())

	if len(summary.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", summary.Warnings)
	}
	if !summary.Unallocated.IsZero() {
		t.Fatalf("expected unallocated clamped to zero, got %s", summary.Unallocated)
	}
}

// TestPhaseSummary проверяет сводку отдельной фазы.
func TestPhaseSummary(t *testing.T) {
	phase := models.Phase{
		BudgetTotal: decimal.NewFromInt(80_000),
		ActualTotal: decimal.NewFromInt(100_000),
	}

	summary := PhaseSummary(phase)

	if !summary.Remaining.IsZero() {
		t.Fatalf("expected remaining clamped to zero, got %s", summary.Remaining)
	}
	if !summary.UtilizationPercentage.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected uncapped 125, got %s", summary.UtilizationPercentage)
	}
}

// TestPhaseAllocationWarnings проверяет проверку при создании фазы:
// перебор бюджета прямых работ помечается предупреждением, удаленные
// фазы не учитываются.
func TestPhaseAllocationWarnings(t *testing.T) {
	project := flatProject(1_000_000) // 850 000 на прямые работы
	cfg := DefaultConfig()
	deleted := time.Now()

	phases := []models.Phase{
		{BudgetTotal: decimal.NewFromInt(500_000)},
		{BudgetTotal: decimal.NewFromInt(300_000)},
		{BudgetTotal: decimal.NewFromInt(400_000), DeletedAt: &deleted},
	}

	if warnings := PhaseAllocationWarnings(project, phases, decimal.NewFromInt(50_000), cfg); warnings != nil {
		t.Fatalf("expected no warnings within budget, got %v", warnings)
	}

	warnings := PhaseAllocationWarnings(project, phases, decimal.NewFromInt(50_001), cfg)
	if len(warnings) != 1 || warnings[0] != "phase allocations exceed direct construction budget" {
		t.Fatalf("expected over-allocation warning, got %v", warnings)
	}
}
