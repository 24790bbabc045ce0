package handlers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/construction-budget/backend/internal/repository"
)

type AuditHandler struct {
	Audit *repository.AuditRepository
}

// NewAuditHandler создает обработчик журнала аудита.
func NewAuditHandler(audit *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

// List возвращает записи журнала аудита проекта, новые первыми.
func (h *AuditHandler) List(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}

	records, err := h.Audit.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return financeError(c, err)
	}

	return ok(c, records)
}
