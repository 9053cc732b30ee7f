package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus enum constants
const (
	InvoiceStatusDraft           = "DRAFT"
	InvoiceStatusPendingApproval = "PENDING_APPROVAL"
	InvoiceStatusApproved        = "APPROVED"
	InvoiceStatusRejected        = "REJECTED"
	InvoiceStatusPaid            = "PAID"
)

// Invoice represents a financial document issued to or received from a
// partner. Moving past PENDING_APPROVAL is gated by the approval engine.
type Invoice struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	InvoiceNo   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	PartnerID   *uuid.UUID      `gorm:"type:uuid;index" json:"partner_id"`
	Partner     *Partner        `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	TaxRuleID   *uuid.UUID      `gorm:"type:uuid;index" json:"tax_rule_id"` // FK to tax_rules.id (nullable)
	TaxRule     *TaxRule        `gorm:"foreignKey:TaxRuleID" json:"tax_rule,omitempty"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`             // Pre-tax amount
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"` // Computed from tax rule
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`         // subtotal + tax_amount
	Status      string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Lines       []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines"`
	DueDate     *time.Time      `gorm:"type:date" json:"due_date"`
	ApprovedBy  *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver    *User           `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at"`
	CreatedBy   *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	Note        string          `gorm:"type:text" json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InvoiceLine is a single billed item on an invoice
type InvoiceLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"` // quantity * unit_price
	AccountID   *uuid.UUID      `gorm:"type:uuid" json:"account_id"`               // revenue/expense account posting target
}
