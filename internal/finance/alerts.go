package finance

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// SeverityRank задает порядок сортировки алертов, неизвестные
// значения уходят в конец списка.
func SeverityRank(severity Severity) int {
	switch severity {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Alert — производное предупреждение об освоении бюджета. Не хранится.
type Alert struct {
	Severity              Severity        `json:"severity"`
	Category              models.Category `json:"category,omitempty"`
	PhaseID               *uuid.UUID      `json:"phase_id,omitempty"`
	PhaseName             string          `json:"phase_name,omitempty"`
	ProjectID             uuid.UUID       `json:"project_id"`
	ProjectName           string          `json:"project_name"`
	UtilizationPercentage decimal.Decimal `json:"utilization_percentage"`
	Budgeted              decimal.Decimal `json:"budgeted"`
	Spent                 decimal.Decimal `json:"spent"`
	Remaining             decimal.Decimal `json:"remaining"`
}

// EvaluatePhaseAlerts оценивает освоение бюджета одной фазы и выдает
// не более одного алерта. Чистое вычисление без побочных эффектов.
func EvaluatePhaseAlerts(project models.Project, phase models.Phase, thresholds Thresholds) []Alert {
	utilization := Utilization(phase.ActualTotal, phase.BudgetTotal)
	severity, ok := classify(utilization, thresholds)
	if !ok {
		return nil
	}

	phaseID := phase.ID
	return []Alert{{
		Severity:              severity,
		PhaseID:               &phaseID,
		PhaseName:             phase.Name,
		ProjectID:             project.ID,
		ProjectName:           project.Name,
		UtilizationPercentage: utilization,
		Budgeted:              phase.BudgetTotal,
		Spent:                 phase.ActualTotal,
		Remaining:             maxZero(phase.BudgetTotal.Sub(phase.ActualTotal)),
	}}
}

// EvaluateProjectAlerts оценивает каждую категорию бюджета и каждую
// неудаленную фазу проекта, объединяет алерты и сортирует их по
// серьезности.
func EvaluateProjectAlerts(project models.Project, phases []models.Phase, spentByCategory map[models.Category]decimal.Decimal, thresholds Thresholds, cfg Config) []Alert {
	alerts := make([]Alert, 0)

	for _, category := range models.Categories {
		budgeted := CategoryBudget(project, category, cfg)
		spent := spentByCategory[category]
		utilization := Utilization(spent, budgeted)

		severity, ok := classify(utilization, thresholds)
		if !ok {
			continue
		}

		alerts = append(alerts, Alert{
			Severity:              severity,
			Category:              category,
			ProjectID:             project.ID,
			ProjectName:           project.Name,
			UtilizationPercentage: utilization,
			Budgeted:              budgeted,
			Spent:                 spent,
			Remaining:             maxZero(budgeted.Sub(spent)),
		})
	}

	for _, phase := range phases {
		if phase.DeletedAt != nil {
			continue
		}
		alerts = append(alerts, EvaluatePhaseAlerts(project, phase, thresholds)...)
	}

	SortAlerts(alerts)
	return alerts
}

// SortAlerts упорядочивает алерты по рангу серьезности, сохраняя
// относительный порядок внутри ранга.
func SortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return SeverityRank(alerts[i].Severity) < SeverityRank(alerts[j].Severity)
	})
}

func classify(utilization decimal.Decimal, thresholds Thresholds) (Severity, bool) {
	switch {
	case utilization.GreaterThanOrEqual(thresholds.Critical):
		return SeverityCritical, true
	case utilization.GreaterThanOrEqual(thresholds.High):
		return SeverityHigh, true
	case utilization.GreaterThanOrEqual(thresholds.Medium):
		return SeverityMedium, true
	default:
		return "", false
	}
}
