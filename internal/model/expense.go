package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus enum constants
const (
	ExpenseStatusDraft           = "DRAFT"
	ExpenseStatusPendingApproval = "PENDING_APPROVAL"
	ExpenseStatusApproved        = "APPROVED"
	ExpenseStatusRejected        = "REJECTED"
)

// Expense represents a payment/cost entry with multi-currency support
// (base: USD). Approval is gated by the workflow engine.
type Expense struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	VendorID  *uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor    *Partner   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`

	Currency           string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	ExchangeRate       decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1" json:"exchange_rate"`                          // 1 if USD
	OriginalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"original_amount"`                                  // Amount in original currency
	ConvertedAmountUSD decimal.Decimal `gorm:"column:converted_amount_usd;type:decimal(18,4);not null" json:"converted_amount_usd"` // = original_amount * exchange_rate

	Category    string     `gorm:"type:varchar(50);index" json:"category"` // travel, supplies, services...
	Department  string     `gorm:"type:varchar(100)" json:"department"`
	Status      string     `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	ReceiptURL  string     `gorm:"type:text" json:"receipt_url"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
