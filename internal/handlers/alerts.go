package handlers

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/repository"
)

type AlertHandler struct {
	Projects *repository.ProjectRepository
	Phases   *repository.PhaseRepository
	Spend    *repository.SpendRepository
	Cfg      finance.Config
}

// NewAlertHandler создает обработчик алертов по порогам освоения.
func NewAlertHandler(projects *repository.ProjectRepository, phases *repository.PhaseRepository, spend *repository.SpendRepository, cfg finance.Config) *AlertHandler {
	return &AlertHandler{
		Projects: projects,
		Phases:   phases,
		Spend:    spend,
		Cfg:      cfg,
	}
}

// List вычисляет алерты проекта по категориям и фазам. Пороги можно
// переопределить на запрос параметрами critical, high и medium.
func (h *AlertHandler) List(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	thresholds, err := thresholdOverrides(c, h.Cfg.Thresholds)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	phases, err := h.Phases.ListByProject(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	spentByCategory, err := h.Spend.TotalsByCategory(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	alerts := finance.EvaluateProjectAlerts(project, phases, spentByCategory, thresholds, h.Cfg)
	return ok(c, alerts)
}

// PhaseAlerts вычисляет алерты одной фазы, не более одного на фазу.
func (h *AlertHandler) PhaseAlerts(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	phaseID, err := uuid.Parse(c.Param("phaseId"))
	if err != nil {
		return badRequest(c, "invalid phase id")
	}

	thresholds, err := thresholdOverrides(c, h.Cfg.Thresholds)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	phase, err := h.Phases.GetByID(ctx, projectID, phaseID)
	if err != nil {
		return financeError(c, err)
	}

	alerts := finance.EvaluatePhaseAlerts(project, phase, thresholds)
	if alerts == nil {
		alerts = []finance.Alert{}
	}
	return ok(c, alerts)
}

// thresholdOverrides применяет пороги из query-параметров поверх
// настроенных. Пороги должны убывать от critical к medium.
func thresholdOverrides(c echo.Context, defaults finance.Thresholds) (finance.Thresholds, error) {
	thresholds := defaults

	overrides := []struct {
		name   string
		target *decimal.Decimal
	}{
		{"critical", &thresholds.Critical},
		{"high", &thresholds.High},
		{"medium", &thresholds.Medium},
	}

	for _, override := range overrides {
		raw := c.QueryParam(override.name)
		if raw == "" {
			continue
		}

		parsed, err := decimal.NewFromString(raw)
		if err != nil || !parsed.IsPositive() {
			return thresholds, errors.New(override.name + " must be a positive number")
		}
		*override.target = parsed
	}

	if thresholds.Critical.LessThanOrEqual(thresholds.High) || thresholds.High.LessThanOrEqual(thresholds.Medium) {
		return thresholds, errors.New("thresholds must decrease from critical to medium")
	}

	return thresholds, nil
}
