package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalRequestStatus enum constants
const (
	RequestStatusPending   = "PENDING"
	RequestStatusApproved  = "APPROVED"
	RequestStatusRejected  = "REJECTED"
	RequestStatusEscalated = "ESCALATED"
	RequestStatusCompleted = "COMPLETED"
)

// ApprovalDecision enum constants
const (
	DecisionPending   = "PENDING"
	DecisionApproved  = "APPROVED"
	DecisionRejected  = "REJECTED"
	DecisionEscalated = "ESCALATED"
	DecisionCancelled = "CANCELLED"
)

// SystemApproverID is the sentinel identity attributed to auto-approvals and
// scheduler-originated decisions. The resolver never returns it.
var SystemApproverID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// IsTerminalRequestStatus reports whether no further transitions are possible.
func IsTerminalRequestStatus(status string) bool {
	return status == RequestStatusApproved ||
		status == RequestStatusRejected ||
		status == RequestStatusCompleted
}

// ApprovalRequest is one workflow instance gating a single entity. At most one
// non-terminal request may exist per (tenant, entity type, entity id).
type ApprovalRequest struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID         uuid.UUID           `gorm:"type:uuid;not null;index:idx_req_tenant_entity" json:"tenant_id"`
	CompanyID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"company_id"`
	EntityType       string              `gorm:"type:varchar(30);not null;index:idx_req_tenant_entity" json:"entity_type"`
	EntityID         uuid.UUID           `gorm:"type:uuid;not null;index:idx_req_tenant_entity" json:"entity_id"`
	EntitySubType    string              `gorm:"type:varchar(50)" json:"entity_sub_type"`
	WorkflowID       *uuid.UUID          `gorm:"type:uuid;index" json:"workflow_id"`
	Workflow         *WorkflowDefinition `gorm:"foreignKey:WorkflowID" json:"workflow,omitempty"`
	CurrentStepOrder int                 `gorm:"type:int;not null;default:0" json:"current_step_order"`
	Status           string              `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedBy      uuid.UUID           `gorm:"type:uuid;not null;index" json:"requested_by"`
	Requester        *User               `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	Metadata         JSONMap             `gorm:"type:jsonb" json:"metadata"`
	Approvals        []Approval          `gorm:"foreignKey:RequestID" json:"approvals,omitempty"`
	CompletedAt      *time.Time          `json:"completed_at"`
	CreatedAt        time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Approval is a single approver's decision record for one step of one request.
// Created PENDING by the orchestrator, decided exactly once, never deleted.
type Approval struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"request_id"`
	Request          *ApprovalRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
	StepID           *uuid.UUID       `gorm:"type:uuid" json:"step_id"`
	StepOrder        int              `gorm:"type:int;not null" json:"step_order"`
	ApproverID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"approver_id"`
	Approver         *User            `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Decision         string           `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"decision"`
	IsRequired       bool             `gorm:"default:true" json:"is_required"`
	Comments         string           `gorm:"type:text" json:"comments"`
	IsEscalation     bool             `gorm:"default:false" json:"is_escalation"`
	EscalationReason string           `gorm:"type:text" json:"escalation_reason"`
	EscalationHours  *int             `gorm:"type:int" json:"escalation_hours"` // copied from the step; drives the scheduler sweep
	ProcessedAt      *time.Time       `json:"processed_at"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
