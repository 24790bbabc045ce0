package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/construction-budget/backend/internal/models"
)

type fakeRequestStore struct {
	created      []models.ReallocationRequest
	request      models.ReallocationRequest
	sourceBefore decimal.Decimal
	destBefore   decimal.Decimal
	err          error
	approveCalls int
	rejectCalls  int
	lastReason   string
}

func (s *fakeRequestStore) Create(_ context.Context, request models.ReallocationRequest) (models.ReallocationRequest, error) {
	if s.err != nil {
		return models.ReallocationRequest{}, s.err
	}
	s.created = append(s.created, request)
	return request, nil
}

func (s *fakeRequestStore) Get(_ context.Context, _ uuid.UUID) (models.ReallocationRequest, error) {
	return s.request, s.err
}

func (s *fakeRequestStore) Approve(_ context.Context, id, approver uuid.UUID, resolvedAt time.Time) (models.ReallocationRequest, MoneyMove, error) {
	s.approveCalls++
	if s.err != nil {
		return models.ReallocationRequest{}, MoneyMove{}, s.err
	}

	request := s.request
	request.ID = id
	request.Status = models.StatusApproved
	request.ResolvedBy = &approver
	request.ResolvedAt = &resolvedAt

	move := MoneyMove{
		SourceBefore: s.sourceBefore,
		SourceAfter:  s.sourceBefore.Sub(request.Amount),
		DestBefore:   s.destBefore,
		DestAfter:    s.destBefore.Add(request.Amount),
	}
	return request, move, nil
}

func (s *fakeRequestStore) Reject(_ context.Context, id, rejecter uuid.UUID, reason string, resolvedAt time.Time) (models.ReallocationRequest, error) {
	s.rejectCalls++
	s.lastReason = reason
	if s.err != nil {
		return models.ReallocationRequest{}, s.err
	}

	request := s.request
	request.ID = id
	request.Status = models.StatusRejected
	request.ResolvedBy = &rejecter
	request.RejectionReason = &reason
	request.ResolvedAt = &resolvedAt
	return request, nil
}

type fakeLedger struct {
	headroom decimal.Decimal
	err      error
}

func (l *fakeLedger) LineHeadroom(_ context.Context, _ uuid.UUID, _ models.BudgetLine) (decimal.Decimal, error) {
	return l.headroom, l.err
}

type fakeAudit struct {
	records []models.AuditRecord
	err     error
}

func (a *fakeAudit) Record(_ context.Context, record models.AuditRecord) error {
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, record)
	return nil
}

func testWorkflow(store *fakeRequestStore, ledger *fakeLedger, audit *fakeAudit) *Workflow {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorkflow(store, ledger, audit, logger)
}

func categoryLine(category models.Category) models.BudgetLine {
	return models.BudgetLine{Kind: models.LineKindCategory, Category: category}
}

// TestWorkflowCreateValidation проверяет отклонение некорректных заявок
// без обращения к хранилищу.
func TestWorkflowCreateValidation(t *testing.T) {
	store := &fakeRequestStore{}
	workflow := testWorkflow(store, &fakeLedger{headroom: decimal.NewFromInt(1_000)}, &fakeAudit{})

	cases := []CreateReallocationInput{
		{
			Source:      categoryLine(models.CategoryDirectConstruction),
			Destination: categoryLine(models.CategoryIndirect),
			Amount:      decimal.Zero,
		},
		{
			Source:      categoryLine(models.CategoryDirectConstruction),
			Destination: categoryLine(models.CategoryDirectConstruction),
			Amount:      decimal.NewFromInt(100),
		},
		{
			Source:      categoryLine("landscaping"),
			Destination: categoryLine(models.CategoryIndirect),
			Amount:      decimal.NewFromInt(100),
		},
		{
			Source:      models.BudgetLine{Kind: models.LineKindPhase},
			Destination: categoryLine(models.CategoryIndirect),
			Amount:      decimal.NewFromInt(100),
		},
	}

	for i, input := range cases {
		if _, err := workflow.Create(context.Background(), input); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}

	if len(store.created) != 0 {
		t.Fatalf("expected no requests persisted, got %d", len(store.created))
	}
}

// TestWorkflowCreateHeadroomWarning проверяет мягкую проверку запаса:
// заявка создается в pending, но помечается предупреждением.
func TestWorkflowCreateHeadroomWarning(t *testing.T) {
	store := &fakeRequestStore{}
	workflow := testWorkflow(store, &fakeLedger{headroom: decimal.NewFromInt(50)}, &fakeAudit{})

	created, err := workflow.Create(context.Background(), CreateReallocationInput{
		ProjectID:   uuid.New(),
		Source:      categoryLine(models.CategoryDirectConstruction),
		Destination: categoryLine(models.CategoryContingency),
		Amount:      decimal.NewFromInt(100),
		RequestedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected request created, got %v", err)
	}

	if created.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
	if !created.HeadroomWarning {
		t.Fatal("expected headroom warning")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 persisted request, got %d", len(store.created))
	}
}

// TestWorkflowRejectBlankReason проверяет, что пустая причина отказа
// дает ошибку валидации и не меняет состояние.
func TestWorkflowRejectBlankReason(t *testing.T) {
	store := &fakeRequestStore{}
	workflow := testWorkflow(store, &fakeLedger{}, &fakeAudit{})

	for _, reason := range []string{"", "   ", "\t\n"} {
		if _, err := workflow.Reject(context.Background(), uuid.New(), uuid.New(), models.RoleApprover, reason); !errors.Is(err, ErrValidation) {
			t.Fatalf("reason %q: expected ErrValidation, got %v", reason, err)
		}
	}

	if store.rejectCalls != 0 {
		t.Fatalf("expected no store calls, got %d", store.rejectCalls)
	}
}

// TestWorkflowResolveRequiresApproverRole проверяет проверку роли на
// обоих терминальных переходах.
func TestWorkflowResolveRequiresApproverRole(t *testing.T) {
	store := &fakeRequestStore{}
	workflow := testWorkflow(store, &fakeLedger{}, &fakeAudit{})

	if _, err := workflow.Approve(context.Background(), uuid.New(), uuid.New(), models.RoleManager); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := workflow.Reject(context.Background(), uuid.New(), uuid.New(), models.RoleViewer, "over budget"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	if store.approveCalls != 0 || store.rejectCalls != 0 {
		t.Fatal("expected no store calls for denied actors")
	}
}

// TestWorkflowApprove проверяет одобрение: перенос суммы сохраняет
// общий бюджет, аудит пишется ровно один раз с before/after.
func TestWorkflowApprove(t *testing.T) {
	amount := decimal.NewFromInt(25_000)
	store := &fakeRequestStore{
		request: models.ReallocationRequest{
			ProjectID: uuid.New(),
			Amount:    amount,
			Status:    models.StatusPending,
		},
		sourceBefore: decimal.NewFromInt(100_000),
		destBefore:   decimal.NewFromInt(40_000),
	}
	audit := &fakeAudit{}
	workflow := testWorkflow(store, &fakeLedger{}, audit)

	approver := uuid.New()
	request, err := workflow.Approve(context.Background(), uuid.New(), approver, models.RoleApprover)
	if err != nil {
		t.Fatalf("expected approval, got %v", err)
	}

	if request.Status != models.StatusApproved {
		t.Fatalf("expected approved, got %s", request.Status)
	}
	if request.ResolvedBy == nil || *request.ResolvedBy != approver {
		t.Fatalf("expected resolver %s, got %v", approver, request.ResolvedBy)
	}

	if len(audit.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(audit.records))
	}

	record := audit.records[0]
	if record.Action != "reallocation.approved" || record.EntityType != "reallocation_request" {
		t.Fatalf("unexpected audit record: %+v", record)
	}

	var before, after map[string]any
	if err := json.Unmarshal(record.Before, &before); err != nil {
		t.Fatalf("unmarshal before: %v", err)
	}
	if err := json.Unmarshal(record.After, &after); err != nil {
		t.Fatalf("unmarshal after: %v", err)
	}
	if before["status"] != string(models.StatusPending) || after["status"] != string(models.StatusApproved) {
		t.Fatalf("unexpected status transition in audit: %v -> %v", before["status"], after["status"])
	}
	if after["source_amount"] != "75000" || after["destination_amount"] != "65000" {
		t.Fatalf("expected exact amount moved, got %v -> %v", after["source_amount"], after["destination_amount"])
	}
}

// TestWorkflowApproveAlreadyResolved проверяет, что проигравший гонку
// получает ErrInvalidState с текущим статусом.
func TestWorkflowApproveAlreadyResolved(t *testing.T) {
	store := &fakeRequestStore{
		err: fmt.Errorf("%w: request already approved", ErrInvalidState),
	}
	audit := &fakeAudit{}
	workflow := testWorkflow(store, &fakeLedger{}, audit)

	_, err := workflow.Approve(context.Background(), uuid.New(), uuid.New(), models.RoleApprover)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	if len(audit.records) != 0 {
		t.Fatalf("expected no audit records for failed transition, got %d", len(audit.records))
	}
}

// TestWorkflowRejectAudit проверяет аудит отказа с причиной.
func TestWorkflowRejectAudit(t *testing.T) {
	store := &fakeRequestStore{
		request: models.ReallocationRequest{ProjectID: uuid.New(), Status: models.StatusPending},
	}
	audit := &fakeAudit{}
	workflow := testWorkflow(store, &fakeLedger{}, audit)

	request, err := workflow.Reject(context.Background(), uuid.New(), uuid.New(), models.RoleApprover, "  insufficient justification  ")
	if err != nil {
		t.Fatalf("expected rejection, got %v", err)
	}

	if request.Status != models.StatusRejected {
		t.Fatalf("expected rejected, got %s", request.Status)
	}
	if store.lastReason != "insufficient justification" {
		t.Fatalf("expected trimmed reason, got %q", store.lastReason)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "reallocation.rejected" {
		t.Fatalf("unexpected audit records: %+v", audit.records)
	}
}
