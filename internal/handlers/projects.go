package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/models"
	"example.com/construction-budget/backend/internal/repository"
)

type ProjectHandler struct {
	Projects *repository.ProjectRepository
	Phases   *repository.PhaseRepository
	Spend    *repository.SpendRepository
	Cfg      finance.Config
}

// NewProjectHandler создает обработчик проектов.
func NewProjectHandler(projects *repository.ProjectRepository, phases *repository.PhaseRepository, spend *repository.SpendRepository, cfg finance.Config) *ProjectHandler {
	return &ProjectHandler{
		Projects: projects,
		Phases:   phases,
		Spend:    spend,
		Cfg:      cfg,
	}
}

type BudgetCategoriesRequest struct {
	DirectConstruction decimal.Decimal `json:"direct_construction"`
	PreConstruction    decimal.Decimal `json:"pre_construction"`
	Indirect           decimal.Decimal `json:"indirect"`
	Contingency        decimal.Decimal `json:"contingency"`
}

type BudgetRequest struct {
	Mode        models.BudgetMode        `json:"mode" validate:"required,oneof=flat categorized"`
	Total       decimal.Decimal          `json:"total"`
	Contingency *decimal.Decimal         `json:"contingency"`
	Categories  *BudgetCategoriesRequest `json:"categories"`
}

type CreateProjectRequest struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Currency    string        `json:"currency" validate:"required,len=3"`
	Budget      BudgetRequest `json:"budget" validate:"required"`
	PeriodStart time.Time     `json:"period_start" validate:"required"`
	PeriodEnd   time.Time     `json:"period_end" validate:"required"`
}

// Create создает проект. Бюджет задается плоской суммой или явными
// категориями, вариант фиксируется при создании.
func (h *ProjectHandler) Create(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return badRequest(c, "period_end must be after period_start")
	}

	budget := models.Budget{Mode: req.Budget.Mode}
	switch req.Budget.Mode {
	case models.BudgetModeFlat:
		if !req.Budget.Total.IsPositive() {
			return badRequest(c, "budget total must be greater than zero")
		}
		budget.Total = req.Budget.Total
		if req.Budget.Contingency != nil {
			if req.Budget.Contingency.IsNegative() {
				return badRequest(c, "contingency cannot be negative")
			}
			budget.Contingency = req.Budget.Contingency
		}
	case models.BudgetModeCategorized:
		if req.Budget.Categories == nil {
			return badRequest(c, "categorized budget requires category amounts")
		}
		categories := models.BudgetCategories{
			DirectConstruction: req.Budget.Categories.DirectConstruction,
			PreConstruction:    req.Budget.Categories.PreConstruction,
			Indirect:           req.Budget.Categories.Indirect,
			Contingency:        req.Budget.Categories.Contingency,
		}
		for _, amount := range []decimal.Decimal{categories.DirectConstruction, categories.PreConstruction, categories.Indirect, categories.Contingency} {
			if amount.IsNegative() {
				return badRequest(c, "category amounts cannot be negative")
			}
		}
		budget.Categories = &categories
		budget.Total = req.Budget.Total
		if budget.Total.IsZero() {
			budget.Total = categories.DirectConstruction.
				Add(categories.PreConstruction).
				Add(categories.Indirect).
				Add(categories.Contingency)
		}
	default:
		return badRequest(c, "unknown budget mode")
	}

	project := models.Project{
		Name:        req.Name,
		Currency:    req.Currency,
		Budget:      budget,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	}

	createdProject, err := h.Projects.Create(c.Request().Context(), project)
	if err != nil {
		return financeError(c, err)
	}

	return created(c, createdProject)
}

// List возвращает активные проекты.
func (h *ProjectHandler) List(c echo.Context) error {
	projects, err := h.Projects.List(c.Request().Context())
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, projects)
}

// Get возвращает проект по идентификатору.
func (h *ProjectHandler) Get(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	project, err := h.Projects.GetByID(c.Request().Context(), projectID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, project)
}

// Delete мягко удаляет проект.
func (h *ProjectHandler) Delete(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	if err := h.Projects.Delete(c.Request().Context(), projectID); err != nil {
		return financeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Summary возвращает сводку бюджета прямых строительных работ проекта.
func (h *ProjectHandler) Summary(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
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

	spent, err := h.Spend.TotalForCategory(ctx, projectID, models.CategoryDirectConstruction)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, finance.ProjectSummary(project, phases, spent, h.Cfg))
}

// CategorySummary возвращает сводку по одной категории бюджета.
func (h *ProjectHandler) CategorySummary(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	category := models.Category(c.Param("category"))
	if !models.ValidCategory(category) {
		return badRequest(c, "unknown budget category")
	}

	ctx := c.Request().Context()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	spent, err := h.Spend.TotalForCategory(ctx, projectID, category)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, finance.CategorySummary(project, category, spent, h.Cfg))
}
