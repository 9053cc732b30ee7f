package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalStatus enum constants
const (
	JournalStatusDraft           = "DRAFT"
	JournalStatusPendingApproval = "PENDING_APPROVAL"
	JournalStatusPosted          = "POSTED"
	JournalStatusRejected        = "REJECTED"
)

// JournalEntry is a double-entry accounting record. Lines must balance
// (total debit == total credit) before submission; posting is gated by the
// approval engine.
type JournalEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	EntryNo     string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"entry_no"`
	EntryDate   time.Time       `gorm:"type:date;not null;index" json:"entry_date"`
	Description string          `gorm:"type:text" json:"description"`
	Status      string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	TotalDebit  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_debit"`
	TotalCredit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_credit"`
	Lines       []JournalLine   `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedBy   *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	Creator     *User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	PostedAt    *time.Time      `json:"posted_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// JournalLine is one debit or credit against an account
type JournalLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntryID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"entry_id"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	Account     *Account        `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Debit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit"`
	Description string          `gorm:"type:text" json:"description"`
}
