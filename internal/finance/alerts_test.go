package finance

import (
	"testing"

	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

// TestClassifyThresholds проверяет границы серьезности по умолчанию.
func TestClassifyThresholds(t *testing.T) {
	thresholds := DefaultThresholds()

	cases := []struct {
		utilization int64
		severity    Severity
		emitted     bool
	}{
		{49, "", false},
		{50, SeverityMedium, true},
		{75, SeverityHigh, true},
		{90, SeverityCritical, true},
		{140, SeverityCritical, true},
	}

	for _, tc := range cases {
		severity, ok := classify(decimal.NewFromInt(tc.utilization), thresholds)
		if ok != tc.emitted || severity != tc.severity {
			t.Fatalf("utilization %d: expected (%s, %v), got (%s, %v)", tc.utilization, tc.severity, tc.emitted, severity, ok)
		}
	}
}

// TestSortAlerts проверяет порядок: critical, high, medium, low,
// неизвестные в конце.
func TestSortAlerts(t *testing.T) {
	alerts := []Alert{
		{Severity: SeverityLow},
		{Severity: "unknown"},
		{Severity: SeverityHigh},
		{Severity: SeverityCritical},
		{Severity: SeverityMedium},
	}

	SortAlerts(alerts)

	want := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, "unknown"}
	for i, severity := range want {
		if alerts[i].Severity != severity {
			t.Fatalf("position %d: expected %s, got %s", i, severity, alerts[i].Severity)
		}
	}
}

// TestEvaluatePhaseAlerts проверяет оценку одной фазы.
func TestEvaluatePhaseAlerts(t *testing.T) {
	project := models.Project{Name: "Riverside Tower"}
	phase := models.Phase{
		Name:        "Foundation",
		BudgetTotal: decimal.NewFromInt(100_000),
		ActualTotal: decimal.NewFromInt(92_000),
	}

	alerts := EvaluatePhaseAlerts(project, phase, DefaultThresholds())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != SeverityCritical {
		t.Fatalf("expected critical, got %s", alerts[0].Severity)
	}
	if alerts[0].PhaseName != "Foundation" || alerts[0].ProjectName != "Riverside Tower" {
		t.Fatalf("unexpected context: %+v", alerts[0])
	}

	quiet := models.Phase{BudgetTotal: decimal.NewFromInt(100_000), ActualTotal: decimal.NewFromInt(10_000)}
	if alerts := EvaluatePhaseAlerts(project, quiet, DefaultThresholds()); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}

// TestEvaluateProjectAlerts проверяет объединение алертов категорий и
// фаз с сортировкой по серьезности.
func TestEvaluateProjectAlerts(t *testing.T) {
	project := categorizedProject(100_000, 100_000, 100_000, 100_000)
	phases := []models.Phase{
		{Name: "Framing", BudgetTotal: decimal.NewFromInt(50_000), ActualTotal: decimal.NewFromInt(48_000)},
		{Name: "Roofing", BudgetTotal: decimal.NewFromInt(50_000), ActualTotal: decimal.NewFromInt(30_000)},
	}
	spent := map[models.Category]decimal.Decimal{
		models.CategoryDirectConstruction: decimal.NewFromInt(55_000),
		models.CategoryIndirect:           decimal.NewFromInt(80_000),
	}

	alerts := EvaluateProjectAlerts(project, phases, spent, DefaultThresholds(), DefaultConfig())

	if len(alerts) != 4 {
		t.Fatalf("expected 4 alerts, got %d", len(alerts))
	}
	for i := 1; i < len(alerts); i++ {
		if SeverityRank(alerts[i-1].Severity) > SeverityRank(alerts[i].Severity) {
			t.Fatalf("alerts out of order at %d: %s after %s", i, alerts[i].Severity, alerts[i-1].Severity)
		}
	}
	if alerts[0].PhaseName != "Framing" {
		t.Fatalf("expected Framing first (96%%), got %+v", alerts[0])
	}
}

// TestEvaluateProjectAlertsOverride проверяет переопределение порогов.
func TestEvaluateProjectAlertsOverride(t *testing.T) {
	project := categorizedProject(100_000, 0, 0, 0)
	spent := map[models.Category]decimal.Decimal{
		models.CategoryDirectConstruction: decimal.NewFromInt(30_000),
	}
	thresholds := Thresholds{
		Critical: decimal.NewFromInt(40),
		High:     decimal.NewFromInt(30),
		Medium:   decimal.NewFromInt(20),
	}

	alerts := EvaluateProjectAlerts(project, nil, spent, thresholds, DefaultConfig())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != SeverityHigh {
		t.Fatalf("expected high with custom thresholds, got %s", alerts[0].Severity)
	}
}
