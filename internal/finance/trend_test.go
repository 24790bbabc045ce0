package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

func weeklyRecords(category models.Category, windowStart time.Time, totals ...int64) []models.SpendRecord {
	records := make([]models.SpendRecord, 0, len(totals))
	for i, total := range totals {
		records = append(records, models.SpendRecord{
			Category:   category,
			Amount:     decimal.NewFromInt(total),
			RecordedAt: windowStart.Add(time.Duration(i)*7*24*time.Hour + time.Hour),
		})
	}
	return records
}

func findTrend(t *testing.T, trends []CategoryTrend, category models.Category) CategoryTrend {
	t.Helper()
	for _, trend := range trends {
		if trend.Category == category {
			return trend
		}
	}
	t.Fatalf("trend for %s not found", category)
	return CategoryTrend{}
}

// TestAnalyzeTrendsDirections проверяет направления: существенное
// снижение — improving, существенный рост — declining, в пределах
// порога — stable.
func TestAnalyzeTrendsDirections(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	windowStart := now.Add(-4 * 7 * 24 * time.Hour)

	records := weeklyRecords(models.CategoryDirectConstruction, windowStart, 100, 100, 100, 40)
	records = append(records, weeklyRecords(models.CategoryIndirect, windowStart, 100, 100, 100, 200)...)
	records = append(records, weeklyRecords(models.CategoryPreConstruction, windowStart, 100, 100, 100, 105)...)

	trends := AnalyzeTrends(records, 4, now, DefaultConfig())

	if got := findTrend(t, trends, models.CategoryDirectConstruction); got.Direction != TrendImproving {
		t.Fatalf("expected improving, got %s (change %s)", got.Direction, got.ChangePercentage)
	}
	if got := findTrend(t, trends, models.CategoryIndirect); got.Direction != TrendDeclining {
		t.Fatalf("expected declining, got %s (change %s)", got.Direction, got.ChangePercentage)
	}
	if got := findTrend(t, trends, models.CategoryPreConstruction); got.Direction != TrendStable {
		t.Fatalf("expected stable, got %s (change %s)", got.Direction, got.ChangePercentage)
	}
}

// TestAnalyzeTrendsBuckets проверяет раскладку по недельным корзинам и
// игнорирование записей вне окна.
func TestAnalyzeTrendsBuckets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	windowStart := now.Add(-3 * 7 * 24 * time.Hour)

	records := weeklyRecords(models.CategoryIndirect, windowStart, 10, 20, 30)
	records = append(records, models.SpendRecord{
		Category:   models.CategoryIndirect,
		Amount:     decimal.NewFromInt(999),
		RecordedAt: windowStart.Add(-time.Hour),
	})

	trend := findTrend(t, AnalyzeTrends(records, 3, now, DefaultConfig()), models.CategoryIndirect)

	if len(trend.Periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(trend.Periods))
	}

	want := []int64{10, 20, 30}
	for i, total := range want {
		if !trend.Periods[i].Total.Equal(decimal.NewFromInt(total)) {
			t.Fatalf("period %d: expected %d, got %s", i, total, trend.Periods[i].Total)
		}
	}
}

// TestAnalyzeTrendsEmptyCategory проверяет категорию без записей:
// пустая серия и stable.
func TestAnalyzeTrendsEmptyCategory(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	trend := findTrend(t, AnalyzeTrends(nil, 4, now, DefaultConfig()), models.CategoryContingency)

	if trend.Direction != TrendStable {
		t.Fatalf("expected stable, got %s", trend.Direction)
	}
	if !trend.ChangePercentage.IsZero() {
		t.Fatalf("expected zero change, got %s", trend.ChangePercentage)
	}
}

// TestAnalyzeTrendsSpendAfterQuietWindow проверяет рост с нулевой базы.
func TestAnalyzeTrendsSpendAfterQuietWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	windowStart := now.Add(-4 * 7 * 24 * time.Hour)

	records := weeklyRecords(models.CategoryDirectConstruction, windowStart, 0, 0, 0, 500)

	trend := findTrend(t, AnalyzeTrends(records, 4, now, DefaultConfig()), models.CategoryDirectConstruction)
	if trend.Direction != TrendDeclining {
		t.Fatalf("expected declining, got %s", trend.Direction)
	}
}

// TestAnalyzeTrendsDefaultWindow проверяет, что нулевое окно заменяется
// настроенной шириной из конфигурации.
func TestAnalyzeTrendsDefaultWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cfg := DefaultConfig()
	trends := AnalyzeTrends(nil, 0, now, cfg)

	for _, trend := range trends {
		if len(trend.Periods) != cfg.TrendDefaultWeeks {
			t.Fatalf("%s: expected %d periods, got %d", trend.Category, cfg.TrendDefaultWeeks, len(trend.Periods))
		}
	}

	cfg.TrendDefaultWeeks = 4
	trends = AnalyzeTrends(nil, 0, now, cfg)
	if got := len(findTrend(t, trends, models.CategoryDirectConstruction).Periods); got != 4 {
		t.Fatalf("expected overridden window of 4 periods, got %d", got)
	}
}
