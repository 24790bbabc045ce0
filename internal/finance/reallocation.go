package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

// MoneyMove — значения строк бюджета до и после одобренного переноса,
// попадают в аудит.
type MoneyMove struct {
	SourceBefore decimal.Decimal
	SourceAfter  decimal.Decimal
	DestBefore   decimal.Decimal
	DestAfter    decimal.Decimal
}

// RequestStore хранит заявки на перенос. Approve и Reject выполняют
// условный переход: фиксация возможна только из статуса pending, при
// гонке проигравший получает ErrInvalidState с текущим статусом.
// Approve двигает деньги и меняет статус атомарно, в одной транзакции.
type RequestStore interface {
	Create(ctx context.Context, request models.ReallocationRequest) (models.ReallocationRequest, error)
	Get(ctx context.Context, id uuid.UUID) (models.ReallocationRequest, error)
	Approve(ctx context.Context, id, approver uuid.UUID, resolvedAt time.Time) (models.ReallocationRequest, MoneyMove, error)
	Reject(ctx context.Context, id, rejecter uuid.UUID, reason string, resolvedAt time.Time) (models.ReallocationRequest, error)
}

// LedgerSource отдает доступный запас строки бюджета для мягкой
// проверки при создании заявки.
type LedgerSource interface {
	LineHeadroom(ctx context.Context, projectID uuid.UUID, line models.BudgetLine) (decimal.Decimal, error)
}

// AuditLog — внешний append-only журнал, одна запись на каждый переход
// состояния.
type AuditLog interface {
	Record(ctx context.Context, record models.AuditRecord) error
}

// Workflow управляет жизненным циклом заявок на перенос бюджета:
// pending -> approved | rejected, терминальные заявки неизменяемы.
type Workflow struct {
	store  RequestStore
	ledger LedgerSource
	audit  AuditLog
	log    *slog.Logger
	now    func() time.Time
}

// NewWorkflow собирает воркфлоу переноса бюджета.
func NewWorkflow(store RequestStore, ledger LedgerSource, audit AuditLog, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}

	return &Workflow{
		store:  store,
		ledger: ledger,
		audit:  audit,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateReallocationInput struct {
	ProjectID   uuid.UUID
	Source      models.BudgetLine
	Destination models.BudgetLine
	Amount      decimal.Decimal
	RequestedBy uuid.UUID
}

// Create проверяет заявку и сохраняет ее в статусе pending. Нехватка
// запаса в источнике не блокирует создание — решение за согласующим,
// факт фиксируется флагом headroom_warning.
func (w *Workflow) Create(ctx context.Context, input CreateReallocationInput) (models.ReallocationRequest, error) {
	var request models.ReallocationRequest

	if !input.Amount.IsPositive() {
		return request, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if err := validateLine(input.Source); err != nil {
		return request, fmt.Errorf("source: %w", err)
	}
	if err := validateLine(input.Destination); err != nil {
		return request, fmt.Errorf("destination: %w", err)
	}
	if input.Source.Equal(input.Destination) {
		return request, fmt.Errorf("%w: source and destination must differ", ErrValidation)
	}

	headroom, err := w.ledger.LineHeadroom(ctx, input.ProjectID, input.Source)
	if err != nil {
		return request, err
	}

	request = models.ReallocationRequest{
		ID:              uuid.New(),
		ProjectID:       input.ProjectID,
		Source:          input.Source,
		Destination:     input.Destination,
		Amount:          input.Amount,
		Status:          models.StatusPending,
		RequestedBy:     input.RequestedBy,
		HeadroomWarning: headroom.LessThan(input.Amount),
		RequestedAt:     w.now(),
	}

	created, err := w.store.Create(ctx, request)
	if err != nil {
		return models.ReallocationRequest{}, err
	}

	if created.HeadroomWarning {
		w.log.Warn("reallocation requested beyond available headroom",
			slog.String("request_id", created.ID.String()),
			slog.String("project_id", created.ProjectID.String()),
			slog.String("amount", created.Amount.String()),
			slog.String("headroom", headroom.String()),
		)
	}

	return created, nil
}

// Approve переводит заявку в approved и переносит сумму из источника в
// назначение одним условным обновлением. Из двух конкурирующих
// согласований фиксируется ровно одно.
func (w *Workflow) Approve(ctx context.Context, requestID, actor uuid.UUID, role models.Role) (models.ReallocationRequest, error) {
	if role != models.RoleApprover {
		return models.ReallocationRequest{}, fmt.Errorf("%w: approver role required", ErrPermissionDenied)
	}

	request, move, err := w.store.Approve(ctx, requestID, actor, w.now())
	if err != nil {
		return models.ReallocationRequest{}, err
	}

	w.recordAudit(ctx, actor, "reallocation.approved", request,
		map[string]any{
			"status":             models.StatusPending,
			"source_amount":      move.SourceBefore,
			"destination_amount": move.DestBefore,
		},
		map[string]any{
			"status":             models.StatusApproved,
			"source_amount":      move.SourceAfter,
			"destination_amount": move.DestAfter,
		},
	)

	return request, nil
}

// Reject переводит заявку в rejected без движения денег. Причина отказа
// обязательна.
func (w *Workflow) Reject(ctx context.Context, requestID, actor uuid.UUID, role models.Role, reason string) (models.ReallocationRequest, error) {
	if role != models.RoleApprover {
		return models.ReallocationRequest{}, fmt.Errorf("%w: approver role required", ErrPermissionDenied)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.ReallocationRequest{}, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	request, err := w.store.Reject(ctx, requestID, actor, reason, w.now())
	if err != nil {
		return models.ReallocationRequest{}, err
	}

	w.recordAudit(ctx, actor, "reallocation.rejected", request,
		map[string]any{"status": models.StatusPending},
		map[string]any{"status": models.StatusRejected, "rejection_reason": reason},
	)

	return request, nil
}

// Аудит идет строго после фиксации перехода; сбой журнала не может
// откатить уже закоммиченное состояние и только логируется.
func (w *Workflow) recordAudit(ctx context.Context, actor uuid.UUID, action string, request models.ReallocationRequest, before, after map[string]any) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		w.log.Error("marshal audit payload", slog.String("error", err.Error()))
		return
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		w.log.Error("marshal audit payload", slog.String("error", err.Error()))
		return
	}

	record := models.AuditRecord{
		ID:         uuid.New(),
		ActorID:    actor,
		Action:     action,
		EntityType: "reallocation_request",
		EntityID:   request.ID,
		ProjectID:  request.ProjectID,
		Before:     beforeJSON,
		After:      afterJSON,
		CreatedAt:  w.now(),
	}

	if err := w.audit.Record(ctx, record); err != nil {
		w.log.Error("audit record failed",
			slog.String("action", action),
			slog.String("request_id", request.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func validateLine(line models.BudgetLine) error {
	switch line.Kind {
	case models.LineKindCategory:
		if !models.ValidCategory(line.Category) {
			return fmt.Errorf("%w: unknown category %q", ErrValidation, line.Category)
		}
	case models.LineKindPhase:
		if line.PhaseID == uuid.Nil {
			return fmt.Errorf("%w: phase id is required", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown budget line kind %q", ErrValidation, line.Kind)
	}

	return nil
}
