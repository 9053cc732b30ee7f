package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntityType enum constants list the entities the approval engine can gate
const (
	EntityTypeJournalEntry  = "JOURNAL_ENTRY"
	EntityTypeInvoice       = "INVOICE"
	EntityTypePurchaseOrder = "PURCHASE_ORDER"
	EntityTypeExpense       = "EXPENSE"
)

// ApproverType enum constants
const (
	ApproverTypeRole        = "ROLE"
	ApproverTypeUser        = "USER"
	ApproverTypeDepartment  = "DEPARTMENT"
	ApproverTypeAmountBased = "AMOUNT_BASED"
)

// ConditionOperator enum constants
const (
	OpEquals         = "EQUALS"
	OpNotEquals      = "NOT_EQUALS"
	OpGreaterThan    = "GREATER_THAN"
	OpLessThan       = "LESS_THAN"
	OpGreaterOrEqual = "GREATER_OR_EQUAL"
	OpLessOrEqual    = "LESS_OR_EQUAL"
	OpContains       = "CONTAINS"
)

// ApprovalPolicy enum constants control how parallel steps at one order gate advancement
const (
	PolicyAllRequired   = "ALL_REQUIRED"
	PolicyFirstResponse = "FIRST_RESPONSE"
)

// WorkflowDefinition is a reusable, tenant-authored approval policy for one
// entity type. The engine never mutates definitions at runtime.
type WorkflowDefinition struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID        uuid.UUID           `gorm:"type:uuid;not null;index:idx_wf_tenant_entity" json:"tenant_id"`
	Name            string              `gorm:"type:varchar(255);not null" json:"name"`
	EntityType      string              `gorm:"type:varchar(30);not null;index:idx_wf_tenant_entity" json:"entity_type"`
	EntitySubType   string              `gorm:"type:varchar(50)" json:"entity_sub_type"`
	Priority        int                 `gorm:"type:int;not null;default:0" json:"priority"` // higher wins among matching definitions
	ApprovalPolicy  string              `gorm:"type:varchar(20);not null;default:'ALL_REQUIRED'" json:"approval_policy"`
	AutoApproval    bool                `gorm:"default:false" json:"auto_approval"`
	IsDefault       bool                `gorm:"default:false" json:"is_default"` // fallback when no conditioned definition matches
	IsActive        bool                `gorm:"default:true" json:"is_active"`
	Steps           []WorkflowStep      `gorm:"foreignKey:DefinitionID;constraint:OnDelete:CASCADE" json:"steps"`
	Conditions      []WorkflowCondition `gorm:"foreignKey:DefinitionID;constraint:OnDelete:CASCADE" json:"conditions"`
	EscalationRules []EscalationRule    `gorm:"foreignKey:DefinitionID;constraint:OnDelete:CASCADE" json:"escalation_rules"`
	CreatedBy       *uuid.UUID          `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// WorkflowStep is one stage of a definition. Steps sharing the same StepOrder
// execute in parallel; the selector field used depends on ApproverType.
type WorkflowStep struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DefinitionID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"definition_id"`
	StepOrder       int              `gorm:"type:int;not null" json:"step_order"`
	ApproverType    string           `gorm:"type:varchar(20);not null" json:"approver_type"` // ROLE, USER, DEPARTMENT, AMOUNT_BASED
	Role            string           `gorm:"type:varchar(50)" json:"role"`
	UserID          *uuid.UUID       `gorm:"type:uuid" json:"user_id"`
	Department      string           `gorm:"type:varchar(100)" json:"department"`
	AmountThreshold *decimal.Decimal `gorm:"type:decimal(18,4)" json:"amount_threshold"`
	IsRequired      bool             `gorm:"default:true" json:"is_required"`
	EscalationHours *int             `gorm:"type:int" json:"escalation_hours"` // nil = no time budget
	AutoApprove     bool             `gorm:"default:false" json:"auto_approve"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// WorkflowCondition is one applicability predicate on a definition.
// All conditions must hold (AND semantics) for the definition to apply.
// A missing metadata field fails the condition unless Optional is set.
type WorkflowCondition struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DefinitionID uuid.UUID `gorm:"type:uuid;not null;index" json:"definition_id"`
	Field        string    `gorm:"type:varchar(100);not null" json:"field"` // dotted path into request metadata
	Operator     string    `gorm:"type:varchar(20);not null" json:"operator"`
	Value        string    `gorm:"type:varchar(255);not null" json:"value"`
	Optional     bool      `gorm:"default:false" json:"optional"`
	CreatedAt    time.Time `json:"created_at"`
}

// EscalationRule names the fallback approver for a step. A rule with nil
// StepOrder is the definition-wide default used when no step-specific rule
// matches.
type EscalationRule struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DefinitionID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"definition_id"`
	StepOrder      *int       `gorm:"type:int" json:"step_order"`
	EscalateToRole string     `gorm:"type:varchar(50)" json:"escalate_to_role"`
	EscalateToUser *uuid.UUID `gorm:"type:uuid" json:"escalate_to_user"`
	CreatedAt      time.Time  `json:"created_at"`
}
