package finance

import "github.com/shopspring/decimal"

// Config собирает все настраиваемые коэффициенты движка, чтобы расчеты
// были детерминированы и переопределялись в тестах.
type Config struct {
	// Доли, вычитаемые из плоского бюджета при отсутствии явных категорий.
	PreConstructionRatio decimal.Decimal
	IndirectRatio        decimal.Decimal
	ContingencyRatio     decimal.Decimal

	// Пороги алертов в процентах освоения бюджета.
	Thresholds Thresholds

	// Пороги статусов резерва в процентах использования.
	ContingencyExceededPct decimal.Decimal
	ContingencyCriticalPct decimal.Decimal
	ContingencyWarningPct  decimal.Decimal

	// Относительный порог существенности изменения трат между периодами
	// и ширина окна наблюдения по умолчанию в неделях.
	TrendMaterialThreshold decimal.Decimal
	TrendDefaultWeeks      int

	// Параметры доверия прогноза.
	ForecastMinPeriods       int
	ForecastHighPeriods      int
	ForecastHighMaxRelStdDev decimal.Decimal
}

// Thresholds задает границы серьезности алертов в процентах.
type Thresholds struct {
	Critical decimal.Decimal
	High     decimal.Decimal
	Medium   decimal.Decimal
}

// DefaultConfig возвращает значения по умолчанию:
// оценочные доли 5/5/5%, алерты 90/75/50, резерв 100/90/80,
// существенность тренда 10% при окне 12 недель, доверие прогноза от
// 3 периодов.
func DefaultConfig() Config {
	return Config{
		PreConstructionRatio: decimal.NewFromFloat(0.05),
		IndirectRatio:        decimal.NewFromFloat(0.05),
		ContingencyRatio:     decimal.NewFromFloat(0.05),
		Thresholds: Thresholds{
			Critical: decimal.NewFromInt(90),
			High:     decimal.NewFromInt(75),
			Medium:   decimal.NewFromInt(50),
		},
		ContingencyExceededPct:   decimal.NewFromInt(100),
		ContingencyCriticalPct:   decimal.NewFromInt(90),
		ContingencyWarningPct:    decimal.NewFromInt(80),
		TrendMaterialThreshold:   decimal.NewFromFloat(0.10),
		TrendDefaultWeeks:        12,
		ForecastMinPeriods:       3,
		ForecastHighPeriods:      6,
		ForecastHighMaxRelStdDev: decimal.NewFromFloat(0.25),
	}
}

// DefaultThresholds возвращает пороги алертов по умолчанию.
func DefaultThresholds() Thresholds {
	return DefaultConfig().Thresholds
}
