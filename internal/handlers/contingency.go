package handlers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/auth"
	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/models"
	"example.com/construction-budget/backend/internal/notifications"
	"example.com/construction-budget/backend/internal/repository"
)

type ContingencyHandler struct {
	Projects *repository.ProjectRepository
	Draws    *repository.ContingencyRepository
	Workflow *finance.DrawWorkflow
	Hub      *notifications.Hub
	Cfg      finance.Config
}

// NewContingencyHandler создает обработчик резерва на непредвиденные
// расходы.
func NewContingencyHandler(projects *repository.ProjectRepository, draws *repository.ContingencyRepository, workflow *finance.DrawWorkflow, hub *notifications.Hub, cfg finance.Config) *ContingencyHandler {
	return &ContingencyHandler{
		Projects: projects,
		Draws:    draws,
		Workflow: workflow,
		Hub:      hub,
		Cfg:      cfg,
	}
}

type CreateDrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required,max=500"`
}

// Summary возвращает состояние резерва проекта с четырехуровневым
// статусом использования.
func (h *ContingencyHandler) Summary(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	ctx := c.Request().Context()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	draws, err := h.Draws.ListByProject(ctx, projectID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, finance.SummarizeContingency(project, draws, h.Cfg))
}

// CreateDraw создает заявку на использование резерва в статусе pending.
func (h *ContingencyHandler) CreateDraw(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	userID, found := auth.UserIDFromContext(c)
	if !found {
		return unauthorized(c)
	}

	var req CreateDrawRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}
	if !req.Amount.IsPositive() {
		return badRequest(c, "amount must be greater than zero")
	}

	ctx := c.Request().Context()

	if _, err := h.Projects.GetByID(ctx, projectID); err != nil {
		return financeError(c, err)
	}

	draw := models.ContingencyDraw{
		ProjectID:   projectID,
		Amount:      req.Amount,
		Reason:      req.Reason,
		RequestedBy: userID,
	}

	createdDraw, err := h.Draws.CreateDraw(ctx, draw)
	if err != nil {
		return financeError(c, err)
	}

	h.Hub.Publish(projectID, notifications.Event{
		Type: notifications.EventContingencyRequested,
		Data: map[string]interface{}{
			"draw_id": createdDraw.ID.String(),
			"amount":  createdDraw.Amount,
		},
	})

	return created(c, createdDraw)
}

// ListDraws возвращает заявки на резерв проекта.
func (h *ContingencyHandler) ListDraws(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	draws, err := h.Draws.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, draws)
}

// ApproveDraw одобряет заявку на резерв. Доступно только роли approver.
func (h *ContingencyHandler) ApproveDraw(c echo.Context) error {
	return h.resolveDraw(c, models.StatusApproved)
}

// RejectDraw отклоняет заявку на резерв. Доступно только роли approver.
func (h *ContingencyHandler) RejectDraw(c echo.Context) error {
	return h.resolveDraw(c, models.StatusRejected)
}

func (h *ContingencyHandler) resolveDraw(c echo.Context, status models.RequestStatus) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	drawID, err := uuid.Parse(c.Param("drawId"))
	if err != nil {
		return badRequest(c, "invalid draw id")
	}

	userID, found := auth.UserIDFromContext(c)
	if !found {
		return unauthorized(c)
	}

	draw, err := h.Workflow.Resolve(c.Request().Context(), drawID, userID, auth.RoleFromContext(c), status)
	if err != nil {
		return financeError(c, err)
	}

	h.Hub.Publish(projectID, notifications.Event{
		Type: notifications.EventContingencyResolved,
		Data: map[string]interface{}{
			"draw_id": draw.ID.String(),
			"status":  draw.Status,
		},
	})

	return okMessage(c, draw, "draw "+string(draw.Status))
}
