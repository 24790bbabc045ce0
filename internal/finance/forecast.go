package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// CategoryForecast — линейная run-rate проекция трат категории до конца
// бюджетного периода.
type CategoryForecast struct {
	Category         models.Category `json:"category"`
	ProjectedTotal   decimal.Decimal `json:"projected_total"`
	CurrentActual    decimal.Decimal `json:"current_actual"`
	BasisPeriods     int             `json:"basis_periods"`
	Confidence       Confidence      `json:"confidence"`
	InsufficientData bool            `json:"insufficient_data,omitempty"`
}

// ForecastSpend экстраполирует средние траты завершенных недель на
// оставшиеся недели бюджетного периода. При нехватке истории проекция
// деградирует до текущего факта с низким доверием, ошибок не бывает.
func ForecastSpend(project models.Project, records []models.SpendRecord, now time.Time, cfg Config) []CategoryForecast {
	week := 7 * 24 * time.Hour

	totalPeriods := periodsBetween(project.PeriodStart, project.PeriodEnd, week)
	completed := 0
	if now.After(project.PeriodStart) {
		completed = int(now.Sub(project.PeriodStart) / week)
	}
	if completed > totalPeriods {
		completed = totalPeriods
	}

	actuals := make(map[models.Category]decimal.Decimal, len(models.Categories))
	buckets := make(map[models.Category][]decimal.Decimal, len(models.Categories))
	for _, category := range models.Categories {
		actuals[category] = decimal.Zero
		series := make([]decimal.Decimal, completed)
		for i := range series {
			series[i] = decimal.Zero
		}
		buckets[category] = series
	}

	for _, record := range records {
		if _, ok := actuals[record.Category]; !ok {
			continue
		}
		if record.RecordedAt.Before(project.PeriodStart) || record.RecordedAt.After(now) {
			continue
		}

		actuals[record.Category] = actuals[record.Category].Add(record.Amount)

		index := int(record.RecordedAt.Sub(project.PeriodStart) / week)
		if index < completed {
			buckets[record.Category][index] = buckets[record.Category][index].Add(record.Amount)
		}
	}

	forecasts := make([]CategoryForecast, 0, len(models.Categories))
	for _, category := range models.Categories {
		forecasts = append(forecasts, forecastCategory(category, actuals[category], buckets[category], completed, totalPeriods, cfg))
	}

	return forecasts
}

func forecastCategory(category models.Category, actual decimal.Decimal, series []decimal.Decimal, completed, totalPeriods int, cfg Config) CategoryForecast {
	forecast := CategoryForecast{
		Category:       category,
		ProjectedTotal: actual,
		CurrentActual:  actual,
		BasisPeriods:   completed,
	}

	if completed < cfg.ForecastMinPeriods {
		forecast.Confidence = ConfidenceLow
		forecast.InsufficientData = true
		return forecast
	}

	sum := decimal.Zero
	for _, total := range series {
		sum = sum.Add(total)
	}
	average := sum.Div(decimal.NewFromInt(int64(completed)))

	remaining := totalPeriods - completed
	if remaining > 0 {
		forecast.ProjectedTotal = actual.Add(average.Mul(decimal.NewFromInt(int64(remaining))))
	}

	forecast.Confidence = forecastConfidence(series, average, completed, cfg)
	return forecast
}

// Доверие растет с размером выборки и падает с разбросом недельных трат.
func forecastConfidence(series []decimal.Decimal, average decimal.Decimal, completed int, cfg Config) Confidence {
	if completed < cfg.ForecastHighPeriods || !average.IsPositive() {
		return ConfidenceMedium
	}

	mean := average.InexactFloat64()
	variance := 0.0
	for _, total := range series {
		diff := total.InexactFloat64() - mean
		variance += diff * diff
	}
	variance /= float64(completed)

	relativeStdDev := math.Sqrt(variance) / mean
	if relativeStdDev <= cfg.ForecastHighMaxRelStdDev.InexactFloat64() {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

func periodsBetween(start, end time.Time, period time.Duration) int {
	if !end.After(start) {
		return 1
	}

	span := end.Sub(start)
	periods := int(span / period)
	if span%period != 0 {
		periods++
	}
	if periods < 1 {
		periods = 1
	}
	return periods
}
