package handlers

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/models"
	"example.com/construction-budget/backend/internal/repository"
)

type PhaseHandler struct {
	Phases   *repository.PhaseRepository
	Projects *repository.ProjectRepository
	Cfg      finance.Config
}

// NewPhaseHandler создает обработчик фаз проекта.
func NewPhaseHandler(phases *repository.PhaseRepository, projects *repository.ProjectRepository, cfg finance.Config) *PhaseHandler {
	return &PhaseHandler{Phases: phases, Projects: projects, Cfg: cfg}
}

type CreatePhaseRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	SortOrder     int             `json:"sort_order" validate:"gte=0"`
	BudgetTotal   decimal.Decimal `json:"budget_total"`
	Prerequisites []uuid.UUID     `json:"prerequisites"`
}

// CreatedPhase — ответ на создание фазы. Перебор бюджета прямых работ
// не блокирует создание, но помечается в ответе.
type CreatedPhase struct {
	Phase          models.Phase `json:"phase"`
	OverAllocation bool         `json:"over_allocation"`
	Warnings       []string     `json:"warnings,omitempty"`
}

// Create добавляет фазу к проекту. Предпосылки должны существовать в том
// же проекте.
func (h *PhaseHandler) Create(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	var req CreatePhaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}
	if req.BudgetTotal.IsNegative() {
		return badRequest(c, "phase budget cannot be negative")
	}

	ctx := c.Request().Context()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	existing, err := h.Phases.ListByProject(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}
	warnings := finance.PhaseAllocationWarnings(project, existing, req.BudgetTotal, h.Cfg)

	phase := models.Phase{
		ProjectID:     projectID,
		Name:          req.Name,
		SortOrder:     req.SortOrder,
		BudgetTotal:   req.BudgetTotal,
		ActualTotal:   decimal.Zero,
		Prerequisites: req.Prerequisites,
	}

	createdPhase, err := h.Phases.Create(ctx, phase)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "prerequisite phases must exist in the same project")
		}
		return financeError(c, err)
	}

	return created(c, CreatedPhase{
		Phase:          createdPhase,
		OverAllocation: len(warnings) > 0,
		Warnings:       warnings,
	})
}

// List возвращает фазы проекта в заданном порядке.
func (h *PhaseHandler) List(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	phases, err := h.Phases.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, phases)
}

// Get возвращает фазу проекта.
func (h *PhaseHandler) Get(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	phaseID, err := uuid.Parse(c.Param("phaseId"))
	if err != nil {
		return badRequest(c, "invalid phase id")
	}

	phase, err := h.Phases.GetByID(c.Request().Context(), projectID, phaseID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, phase)
}

// Summary возвращает сводку освоения бюджета фазы.
func (h *PhaseHandler) Summary(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	phaseID, err := uuid.Parse(c.Param("phaseId"))
	if err != nil {
		return badRequest(c, "invalid phase id")
	}

	phase, err := h.Phases.GetByID(c.Request().Context(), projectID, phaseID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, finance.PhaseSummary(phase))
}
