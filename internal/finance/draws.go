package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"example.com/construction-budget/backend/internal/models"
)

// DrawStore хранит заявки на использование резерва. Resolve выполняет
// условный переход из pending, при гонке проигравший получает
// ErrInvalidState с текущим статусом.
type DrawStore interface {
	Resolve(ctx context.Context, id, resolver uuid.UUID, status models.RequestStatus) (models.ContingencyDraw, error)
}

// DrawWorkflow управляет решением заявок на резерв:
// pending -> approved | rejected, каждый переход фиксируется в аудите.
type DrawWorkflow struct {
	store DrawStore
	audit AuditLog
	log   *slog.Logger
	now   func() time.Time
}

// NewDrawWorkflow собирает воркфлоу заявок на резерв.
func NewDrawWorkflow(store DrawStore, audit AuditLog, logger *slog.Logger) *DrawWorkflow {
	if logger == nil {
		logger = slog.Default()
	}

	return &DrawWorkflow{
		store: store,
		audit: audit,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Resolve переводит заявку на резерв в терминальный статус. Доступно
// только роли approver.
func (w *DrawWorkflow) Resolve(ctx context.Context, drawID, actor uuid.UUID, role models.Role, status models.RequestStatus) (models.ContingencyDraw, error) {
	if role != models.RoleApprover {
		return models.ContingencyDraw{}, fmt.Errorf("%w: approver role required", ErrPermissionDenied)
	}
	if status != models.StatusApproved && status != models.StatusRejected {
		return models.ContingencyDraw{}, fmt.Errorf("%w: unknown draw resolution %q", ErrValidation, status)
	}

	draw, err := w.store.Resolve(ctx, drawID, actor, status)
	if err != nil {
		return models.ContingencyDraw{}, err
	}

	w.recordAudit(ctx, actor, draw)
	return draw, nil
}

// Аудит идет строго после фиксации перехода; сбой журнала не может
// откатить решение и только логируется.
func (w *DrawWorkflow) recordAudit(ctx context.Context, actor uuid.UUID, draw models.ContingencyDraw) {
	action := "contingency.approved"
	if draw.Status == models.StatusRejected {
		action = "contingency.rejected"
	}

	beforeJSON, err := json.Marshal(map[string]any{"status": models.StatusPending})
	if err != nil {
		w.log.Error("marshal audit payload", slog.String("error", err.Error()))
		return
	}
	afterJSON, err := json.Marshal(map[string]any{"status": draw.Status, "amount": draw.Amount})
	if err != nil {
		w.log.Error("marshal audit payload", slog.String("error", err.Error()))
		return
	}

	record := models.AuditRecord{
		ID:         uuid.New(),
		ActorID:    actor,
		Action:     action,
		EntityType: "contingency_draw",
		EntityID:   draw.ID,
		ProjectID:  draw.ProjectID,
		Before:     beforeJSON,
		After:      afterJSON,
		CreatedAt:  w.now(),
	}

	if err := w.audit.Record(ctx, record); err != nil {
		w.log.Error("audit record failed",
			slog.String("action", action),
			slog.String("draw_id", draw.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
