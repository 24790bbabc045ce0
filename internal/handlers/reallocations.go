package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/auth"
	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/models"
	"example.com/construction-budget/backend/internal/notifications"
	"example.com/construction-budget/backend/internal/repository"
)

type ReallocationHandler struct {
	Workflow *finance.Workflow
	Store    *repository.ReallocationStore
	Hub      *notifications.Hub
}

// NewReallocationHandler создает обработчик заявок на перенос бюджета.
func NewReallocationHandler(workflow *finance.Workflow, store *repository.ReallocationStore, hub *notifications.Hub) *ReallocationHandler {
	return &ReallocationHandler{
		Workflow: workflow,
		Store:    store,
		Hub:      hub,
	}
}

type BudgetLineRequest struct {
	Kind     models.LineKind `json:"kind" validate:"required,oneof=category phase"`
	Category models.Category `json:"category"`
	PhaseID  *uuid.UUID      `json:"phase_id"`
}

type CreateReallocationRequest struct {
	Source      BudgetLineRequest `json:"source" validate:"required"`
	Destination BudgetLineRequest `json:"destination" validate:"required"`
	Amount      decimal.Decimal   `json:"amount"`
}

type RejectReallocationRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Create создает заявку на перенос бюджета в статусе pending. Нехватка
// запаса в источнике не блокирует заявку, но помечает ее предупреждением.
func (h *ReallocationHandler) Create(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	userID, found := auth.UserIDFromContext(c)
	if !found {
		return unauthorized(c)
	}

	var req CreateReallocationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	input := finance.CreateReallocationInput{
		ProjectID:   projectID,
		Source:      toBudgetLine(req.Source),
		Destination: toBudgetLine(req.Destination),
		Amount:      req.Amount,
		RequestedBy: userID,
	}

	request, err := h.Workflow.Create(c.Request().Context(), input)
	if err != nil {
		return financeError(c, err)
	}

	h.Hub.Publish(projectID, notifications.Event{
		Type: notifications.EventReallocationRequested,
		Data: map[string]interface{}{
			"request_id":       request.ID.String(),
			"amount":           request.Amount,
			"headroom_warning": request.HeadroomWarning,
		},
	})

	return created(c, request)
}

// List возвращает заявки на перенос бюджета проекта.
func (h *ReallocationHandler) List(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	requests, err := h.Store.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, requests)
}

// Get возвращает одну заявку на перенос бюджета.
func (h *ReallocationHandler) Get(c echo.Context) error {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		return badRequest(c, "invalid request id")
	}

	request, err := h.Store.Get(c.Request().Context(), requestID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, request)
}

// Approve одобряет заявку и переносит деньги. Только роль approver.
func (h *ReallocationHandler) Approve(c echo.Context) error {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		return badRequest(c, "invalid request id")
	}

	userID, found := auth.UserIDFromContext(c)
	if !found {
		return unauthorized(c)
	}

	request, err := h.Workflow.Approve(c.Request().Context(), requestID, userID, auth.RoleFromContext(c))
	if err != nil {
		return financeError(c, err)
	}

	h.Hub.Publish(request.ProjectID, notifications.Event{
		Type: notifications.EventReallocationApproved,
		Data: map[string]interface{}{
			"request_id": request.ID.String(),
			"amount":     request.Amount,
		},
	})

	return ok(c, request)
}

// Reject отклоняет заявку с обязательной причиной. Только роль approver.
func (h *ReallocationHandler) Reject(c echo.Context) error {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		return badRequest(c, "invalid request id")
	}

	userID, found := auth.UserIDFromContext(c)
	if !found {
		return unauthorized(c)
	}

	var req RejectReallocationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	request, err := h.Workflow.Reject(c.Request().Context(), requestID, userID, auth.RoleFromContext(c), req.Reason)
	if err != nil {
		return financeError(c, err)
	}

	h.Hub.Publish(request.ProjectID, notifications.Event{
		Type: notifications.EventReallocationRejected,
		Data: map[string]interface{}{
			"request_id": request.ID.String(),
			"reason":     req.Reason,
		},
	})

	return ok(c, request)
}

// Delete мягко удаляет решенную заявку из списков.
func (h *ReallocationHandler) Delete(c echo.Context) error {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		return badRequest(c, "invalid request id")
	}

	if err := h.Store.Delete(c.Request().Context(), requestID); err != nil {
		return financeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func toBudgetLine(req BudgetLineRequest) models.BudgetLine {
	line := models.BudgetLine{Kind: req.Kind, Category: req.Category}
	if req.PhaseID != nil {
		line.PhaseID = *req.PhaseID
	}
	return line
}
