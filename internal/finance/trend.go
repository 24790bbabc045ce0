package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// PeriodBucket — недельная корзина трат для графиков.
type PeriodBucket struct {
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
	Total decimal.Decimal `json:"total"`
}

// CategoryTrend — направление трат категории за окно наблюдения.
type CategoryTrend struct {
	Category         models.Category `json:"category"`
	Direction        TrendDirection  `json:"direction"`
	ChangePercentage decimal.Decimal `json:"change_percentage"`
	Periods          []PeriodBucket  `json:"periods"`
}

// AnalyzeTrends раскладывает траты по недельным корзинам и сравнивает
// последний период со средним по окну. Изменение меньше порога
// существенности считается стабильным. Категории без записей получают
// пустую серию и направление stable. Окно weeks <= 0 заменяется
// значением cfg.TrendDefaultWeeks.
func AnalyzeTrends(records []models.SpendRecord, weeks int, now time.Time, cfg Config) []CategoryTrend {
	if weeks <= 0 {
		weeks = cfg.TrendDefaultWeeks
	}

	week := 7 * 24 * time.Hour
	windowStart := now.Add(-time.Duration(weeks) * week)

	totals := make(map[models.Category][]decimal.Decimal, len(models.Categories))
	for _, category := range models.Categories {
		buckets := make([]decimal.Decimal, weeks)
		for i := range buckets {
			buckets[i] = decimal.Zero
		}
		totals[category] = buckets
	}

	for _, record := range records {
		buckets, ok := totals[record.Category]
		if !ok {
			continue
		}
		if record.RecordedAt.Before(windowStart) || record.RecordedAt.After(now) {
			continue
		}

		index := int(record.RecordedAt.Sub(windowStart) / week)
		if index >= weeks {
			index = weeks - 1
		}
		buckets[index] = buckets[index].Add(record.Amount)
	}

	trends := make([]CategoryTrend, 0, len(models.Categories))
	for _, category := range models.Categories {
		buckets := totals[category]

		periods := make([]PeriodBucket, weeks)
		sum := decimal.Zero
		for i, total := range buckets {
			start := windowStart.Add(time.Duration(i) * week)
			periods[i] = PeriodBucket{Start: start, End: start.Add(week), Total: total}
			sum = sum.Add(total)
		}

		recent := buckets[weeks-1]
		direction, change := trendDirection(recent, sum, weeks, cfg)

		trends = append(trends, CategoryTrend{
			Category:         category,
			Direction:        direction,
			ChangePercentage: change,
			Periods:          periods,
		})
	}

	return trends
}

func trendDirection(recent, sum decimal.Decimal, weeks int, cfg Config) (TrendDirection, decimal.Decimal) {
	average := sum.Div(decimal.NewFromInt(int64(weeks)))
	if average.IsZero() {
		if recent.IsPositive() {
			return TrendDeclining, decimal.NewFromInt(100)
		}
		return TrendStable, decimal.Zero
	}

	relative := recent.Sub(average).Div(average)
	change := relative.Mul(decimal.NewFromInt(100))

	switch {
	case relative.LessThanOrEqual(cfg.TrendMaterialThreshold.Neg()):
		return TrendImproving, change
	case relative.GreaterThanOrEqual(cfg.TrendMaterialThreshold):
		return TrendDeclining, change
	default:
		return TrendStable, change
	}
}
