package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
	"example.com/construction-budget/backend/internal/notifications"
	"example.com/construction-budget/backend/internal/repository"
)

type SpendHandler struct {
	Spend    *repository.SpendRepository
	Projects *repository.ProjectRepository
	Hub      *notifications.Hub
}

// NewSpendHandler создает обработчик записей о тратах.
func NewSpendHandler(spend *repository.SpendRepository, projects *repository.ProjectRepository, hub *notifications.Hub) *SpendHandler {
	return &SpendHandler{Spend: spend, Projects: projects, Hub: hub}
}

type RecordSpendRequest struct {
	Category   models.Category `json:"category" validate:"required"`
	PhaseID    *uuid.UUID      `json:"phase_id"`
	Amount     decimal.Decimal `json:"amount"`
	Memo       *string         `json:"memo" validate:"omitempty,max=500"`
	RecordedAt *time.Time      `json:"recorded_at"`
}

// Record фиксирует трату проекта. Трата с фазой дополнительно
// увеличивает фактические расходы фазы.
func (h *SpendHandler) Record(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	var req RecordSpendRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}
	if !models.ValidCategory(req.Category) {
		return badRequest(c, "unknown budget category")
	}
	if !req.Amount.IsPositive() {
		return badRequest(c, "amount must be greater than zero")
	}

	ctx := c.Request().Context()

	if _, err := h.Projects.GetByID(ctx, projectID); err != nil {
		return financeError(c, err)
	}

	record := models.SpendRecord{
		ProjectID: projectID,
		Category:  req.Category,
		PhaseID:   req.PhaseID,
		Amount:    req.Amount,
		Memo:      req.Memo,
	}
	if req.RecordedAt != nil {
		record.RecordedAt = req.RecordedAt.UTC()
	}

	createdRecord, err := h.Spend.Create(ctx, record)
	if err != nil {
		return financeError(c, err)
	}

	h.Hub.Publish(projectID, notifications.Event{
		Type: notifications.EventSpendRecorded,
		Data: map[string]interface{}{
			"record_id": createdRecord.ID.String(),
			"category":  createdRecord.Category,
			"amount":    createdRecord.Amount,
		},
	})

	return created(c, createdRecord)
}

// List возвращает записи о тратах проекта за указанный период.
func (h *SpendHandler) List(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	since := time.Time{}
	if raw := c.QueryParam("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "since must be an RFC3339 timestamp")
		}
		since = parsed
	}

	records, err := h.Spend.ListSince(c.Request().Context(), projectID, since)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, records)
}
