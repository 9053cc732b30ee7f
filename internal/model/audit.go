package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateAccount        = "CREATE_ACCOUNT"
	ActionUpdateAccount        = "UPDATE_ACCOUNT"
	ActionDeleteAccount        = "DELETE_ACCOUNT"
	ActionCreateJournalEntry   = "CREATE_JOURNAL_ENTRY"
	ActionPostJournalEntry     = "POST_JOURNAL_ENTRY"
	ActionCreateInvoice        = "CREATE_INVOICE"
	ActionCreatePurchaseOrder  = "CREATE_PURCHASE_ORDER"
	ActionReceivePurchaseOrder = "RECEIVE_PURCHASE_ORDER"
	ActionCreateExpense        = "CREATE_EXPENSE"
	ActionCreateTaxRule        = "CREATE_TAX_RULE"

	// Approval workflow actions
	ActionCreateApprovalRequest = "CREATE_APPROVAL_REQUEST"
	ActionApproveStep           = "APPROVE_STEP"
	ActionRejectStep            = "REJECT_STEP"
	ActionEscalateStep          = "ESCALATE_STEP"
	ActionAutoApprove           = "AUTO_APPROVE"
	ActionWorkflowCompleted     = "WORKFLOW_COMPLETED"
	ActionWorkflowRejected      = "WORKFLOW_REJECTED"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if system-originated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    JSONMap    `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
