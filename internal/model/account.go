package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountType enum constants
const (
	AccountTypeAsset     = "ASSET"
	AccountTypeLiability = "LIABILITY"
	AccountTypeEquity    = "EQUITY"
	AccountTypeRevenue   = "REVENUE"
	AccountTypeExpense   = "EXPENSE"
)

// Account is one node of the tenant's chart of accounts
type Account struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_account_tenant_code" json:"tenant_id"`
	Code        string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_account_tenant_code" json:"code"` // e.g. "1000", "4010"
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Type        string         `gorm:"type:varchar(20);not null;index" json:"type"` // ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE
	ParentID    *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id"`
	Parent      *Account       `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
