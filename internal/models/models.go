package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetMode string

type Category string

type RequestStatus string

type LineKind string

type Role string

const (
	BudgetModeFlat        BudgetMode = "flat"
	BudgetModeCategorized BudgetMode = "categorized"

	CategoryDirectConstruction Category = "direct_construction"
	CategoryPreConstruction    Category = "pre_construction"
	CategoryIndirect           Category = "indirect"
	CategoryContingency        Category = "contingency"

	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"

	LineKindCategory LineKind = "category"
	LineKindPhase    LineKind = "phase"

	RoleViewer   Role = "viewer"
	RoleManager  Role = "manager"
	RoleApprover Role = "approver"
)

// Categories перечисляет бюджетные категории в каноническом порядке.
var Categories = []Category{
	CategoryDirectConstruction,
	CategoryPreConstruction,
	CategoryIndirect,
	CategoryContingency,
}

// ValidCategory проверяет, что значение является известной категорией.
func ValidCategory(value Category) bool {
	for _, category := range Categories {
		if category == value {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Budget задается либо плоской суммой, либо явными категориями.
// Mode — дискриминант: при flat заполнен Total (и опционально
// Contingency), при categorized — Categories.
type Budget struct {
	Mode        BudgetMode        `json:"mode"`
	Total       decimal.Decimal   `json:"total"`
	Contingency *decimal.Decimal  `json:"contingency,omitempty"`
	Categories  *BudgetCategories `json:"categories,omitempty"`
}

type BudgetCategories struct {
	DirectConstruction decimal.Decimal `json:"direct_construction"`
	PreConstruction    decimal.Decimal `json:"pre_construction"`
	Indirect           decimal.Decimal `json:"indirect"`
	Contingency        decimal.Decimal `json:"contingency"`
}

type Project struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Currency    string     `json:"currency"`
	Budget      Budget     `json:"budget"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

type Phase struct {
	ID            uuid.UUID       `json:"id"`
	ProjectID     uuid.UUID       `json:"project_id"`
	Name          string          `json:"name"`
	SortOrder     int             `json:"sort_order"`
	BudgetTotal   decimal.Decimal `json:"budget_total"`
	ActualTotal   decimal.Decimal `json:"actual_total"`
	Prerequisites []uuid.UUID     `json:"prerequisites,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
}

type SpendRecord struct {
	ID         uuid.UUID       `json:"id"`
	ProjectID  uuid.UUID       `json:"project_id"`
	Category   Category        `json:"category"`
	PhaseID    *uuid.UUID      `json:"phase_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Memo       *string         `json:"memo,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type ContingencyDraw struct {
	ID          uuid.UUID       `json:"id"`
	ProjectID   uuid.UUID       `json:"project_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      RequestStatus   `json:"status"`
	Reason      string          `json:"reason"`
	RequestedBy uuid.UUID       `json:"requested_by"`
	ResolvedBy  *uuid.UUID      `json:"resolved_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// BudgetLine адресует строку бюджета: категорию проекта или фазу.
type BudgetLine struct {
	Kind     LineKind  `json:"kind"`
	Category Category  `json:"category,omitempty"`
	PhaseID  uuid.UUID `json:"phase_id,omitempty"`
}

// Equal сравнивает две строки бюджета.
func (l BudgetLine) Equal(other BudgetLine) bool {
	if l.Kind != other.Kind {
		return false
	}
	if l.Kind == LineKindCategory {
		return l.Category == other.Category
	}
	return l.PhaseID == other.PhaseID
}

type ReallocationRequest struct {
	ID              uuid.UUID       `json:"id"`
	ProjectID       uuid.UUID       `json:"project_id"`
	Source          BudgetLine      `json:"source"`
	Destination     BudgetLine      `json:"destination"`
	Amount          decimal.Decimal `json:"amount"`
	Status          RequestStatus   `json:"status"`
	RequestedBy     uuid.UUID       `json:"requested_by"`
	ResolvedBy      *uuid.UUID      `json:"resolved_by,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	HeadroomWarning bool            `json:"headroom_warning"`
	RequestedAt     time.Time       `json:"requested_at"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`
}

type AuditRecord struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	ProjectID  uuid.UUID       `json:"project_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type RefreshToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy *uuid.UUID `json:"replaced_by,omitempty"`
}
