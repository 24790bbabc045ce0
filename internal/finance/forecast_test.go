package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

func findForecast(t *testing.T, forecasts []CategoryForecast, category models.Category) CategoryForecast {
	t.Helper()
	for _, forecast := range forecasts {
		if forecast.Category == category {
			return forecast
		}
	}
	t.Fatalf("forecast for %s not found", category)
	return CategoryForecast{}
}

// TestForecastInsufficientData проверяет деградацию на редких данных:
// меньше трех завершенных периодов — low и проекция равна факту.
func TestForecastInsufficientData(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	project := models.Project{
		PeriodStart: now.Add(-8 * 24 * time.Hour),
		PeriodEnd:   now.Add(60 * 24 * time.Hour),
	}
	records := []models.SpendRecord{{
		Category:   models.CategoryDirectConstruction,
		Amount:     decimal.NewFromInt(42_000),
		RecordedAt: now.Add(-24 * time.Hour),
	}}

	forecast := findForecast(t, ForecastSpend(project, records, now, DefaultConfig()), models.CategoryDirectConstruction)

	if forecast.Confidence != ConfidenceLow {
		t.Fatalf("expected low confidence, got %s", forecast.Confidence)
	}
	if !forecast.InsufficientData {
		t.Fatal("expected insufficient data flag")
	}
	if !forecast.ProjectedTotal.Equal(decimal.NewFromInt(42_000)) {
		t.Fatalf("expected projection equal to actual, got %s", forecast.ProjectedTotal)
	}
	if forecast.BasisPeriods != 1 {
		t.Fatalf("expected 1 basis period, got %d", forecast.BasisPeriods)
	}
}

// TestForecastRunRate проверяет линейную экстраполяцию: 4 завершенные
// недели по 100 000 из 8 дают проекцию 800 000.
func TestForecastRunRate(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	start := now.Add(-4 * 7 * 24 * time.Hour)
	project := models.Project{
		PeriodStart: start,
		PeriodEnd:   start.Add(8 * 7 * 24 * time.Hour),
	}

	records := weeklyRecords(models.CategoryDirectConstruction, start, 100_000, 100_000, 100_000, 100_000)

	forecast := findForecast(t, ForecastSpend(project, records, now, DefaultConfig()), models.CategoryDirectConstruction)

	if forecast.BasisPeriods != 4 {
		t.Fatalf("expected 4 basis periods, got %d", forecast.BasisPeriods)
	}
	if !forecast.CurrentActual.Equal(decimal.NewFromInt(400_000)) {
		t.Fatalf("expected actual 400000, got %s", forecast.CurrentActual)
	}
	if !forecast.ProjectedTotal.Equal(decimal.NewFromInt(800_000)) {
		t.Fatalf("expected projection 800000, got %s", forecast.ProjectedTotal)
	}
	if forecast.Confidence != ConfidenceMedium {
		t.Fatalf("expected medium confidence for 4 periods, got %s", forecast.Confidence)
	}
}

// TestForecastHighConfidence проверяет повышение доверия при длинной
// ровной истории и понижение при разбросе.
func TestForecastHighConfidence(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	start := now.Add(-6 * 7 * 24 * time.Hour)
	project := models.Project{
		PeriodStart: start,
		PeriodEnd:   start.Add(12 * 7 * 24 * time.Hour),
	}

	steady := weeklyRecords(models.CategoryIndirect, start, 100, 100, 100, 100, 100, 100)
	forecast := findForecast(t, ForecastSpend(project, steady, now, DefaultConfig()), models.CategoryIndirect)
	if forecast.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", forecast.Confidence)
	}

	noisy := weeklyRecords(models.CategoryIndirect, start, 10, 500, 20, 400, 5, 600)
	forecast = findForecast(t, ForecastSpend(project, noisy, now, DefaultConfig()), models.CategoryIndirect)
	if forecast.Confidence != ConfidenceMedium {
		t.Fatalf("expected medium confidence for noisy history, got %s", forecast.Confidence)
	}
}

// TestForecastNoRecords проверяет отсутствие ошибок на пустых данных.
func TestForecastNoRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	project := models.Project{
		PeriodStart: now.Add(-10 * 7 * 24 * time.Hour),
		PeriodEnd:   now.Add(10 * 7 * 24 * time.Hour),
	}

	forecasts := ForecastSpend(project, nil, now, DefaultConfig())
	if len(forecasts) != len(models.Categories) {
		t.Fatalf("expected %d forecasts, got %d", len(models.Categories), len(forecasts))
	}

	for _, forecast := range forecasts {
		if !forecast.ProjectedTotal.IsZero() {
			t.Fatalf("%s: expected zero projection, got %s", forecast.Category, forecast.ProjectedTotal)
		}
	}
}
