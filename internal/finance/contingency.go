package finance

import (
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

type ContingencyStatus string

const (
	ContingencyHealthy  ContingencyStatus = "healthy"
	ContingencyWarning  ContingencyStatus = "warning"
	ContingencyCritical ContingencyStatus = "critical"
	ContingencyExceeded ContingencyStatus = "exceeded"
)

// ContingencySummary — состояние резерва проекта. UsagePercentage
// ограничен 100 для отображения, RawUsagePercentage хранит фактическое
// отношение для алертов.
type ContingencySummary struct {
	Budgeted           decimal.Decimal   `json:"budgeted"`
	Drawn              decimal.Decimal   `json:"drawn"`
	Remaining          decimal.Decimal   `json:"remaining"`
	UsagePercentage    decimal.Decimal   `json:"usage_percentage"`
	RawUsagePercentage decimal.Decimal   `json:"raw_usage_percentage"`
	Status             ContingencyStatus `json:"status"`
	PendingDraws       int               `json:"pending_draws"`
}

// SummarizeContingency считает использование резерва: сумма одобренных
// неудаленных заявок против бюджета резерва. Превышение бюджета меняет
// статус сводки, сами заявки не трогаются.
func SummarizeContingency(project models.Project, draws []models.ContingencyDraw, cfg Config) ContingencySummary {
	budgeted := CategoryBudget(project, models.CategoryContingency, cfg)

	drawn := decimal.Zero
	pending := 0
	for _, draw := range draws {
		if draw.DeletedAt != nil {
			continue
		}
		switch draw.Status {
		case models.StatusApproved:
			drawn = drawn.Add(draw.Amount)
		case models.StatusPending:
			pending++
		}
	}

	usage := Utilization(drawn, budgeted)
	capped := usage
	hundred := decimal.NewFromInt(100)
	if capped.GreaterThan(hundred) {
		capped = hundred
	}

	return ContingencySummary{
		Budgeted:           budgeted,
		Drawn:              drawn,
		Remaining:          maxZero(budgeted.Sub(drawn)),
		UsagePercentage:    capped,
		RawUsagePercentage: usage,
		Status:             contingencyStatus(usage, cfg),
		PendingDraws:       pending,
	}
}

func contingencyStatus(usage decimal.Decimal, cfg Config) ContingencyStatus {
	switch {
	case usage.GreaterThanOrEqual(cfg.ContingencyExceededPct):
		return ContingencyExceeded
	case usage.GreaterThanOrEqual(cfg.ContingencyCriticalPct):
		return ContingencyCritical
	case usage.GreaterThanOrEqual(cfg.ContingencyWarningPct):
		return ContingencyWarning
	default:
		return ContingencyHealthy
	}
}
