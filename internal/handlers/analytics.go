package handlers

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/repository"
)

const trendMaxWeeks = 104

type AnalyticsHandler struct {
	Projects *repository.ProjectRepository
	Spend    *repository.SpendRepository
	Cfg      finance.Config
}

// NewAnalyticsHandler создает обработчик трендов и прогнозов трат.
func NewAnalyticsHandler(projects *repository.ProjectRepository, spend *repository.SpendRepository, cfg finance.Config) *AnalyticsHandler {
	return &AnalyticsHandler{
		Projects: projects,
		Spend:    spend,
		Cfg:      cfg,
	}
}

// Trends возвращает недельную динамику трат по категориям за окно
// наблюдения. Ширина окна задается параметром weeks.
func (h *AnalyticsHandler) Trends(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	weeks := h.Cfg.TrendDefaultWeeks
	if raw := c.QueryParam("weeks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > trendMaxWeeks {
			return badRequest(c, "weeks must be between 1 and 104")
		}
		weeks = parsed
	}

	ctx := c.Request().Context()

	if _, err := h.Projects.GetByID(ctx, projectID); err != nil {
		return financeError(c, err)
	}

	now := time.Now().UTC()
	since := now.Add(-time.Duration(weeks) * 7 * 24 * time.Hour)

	records, err := h.Spend.ListSince(ctx, projectID, since)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, finance.AnalyzeTrends(records, weeks, now, h.Cfg))
}

// Forecast возвращает run-rate проекцию трат до конца бюджетного
// периода по каждой категории.
func (h *AnalyticsHandler) Forecast(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	ctx := c.Request().Context()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	records, err := h.Spend.ListSince(ctx, projectID, project.PeriodStart)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, finance.ForecastSpend(project, records, time.Now().UTC(), h.Cfg))
}
