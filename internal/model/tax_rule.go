package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxType enum constants
const (
	TaxTypeVAT         = "VAT"
	TaxTypeSales       = "SALES"
	TaxTypeWithholding = "WITHHOLDING"
)

// TaxRule stores tax rates with temporal validity
type TaxRule struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	TaxType       string          `gorm:"type:varchar(20);not null;index" json:"tax_type"` // VAT, SALES, WITHHOLDING
	Rate          decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"`         // e.g. 0.10 = 10%
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"`  // Start date
	EffectiveTo   *time.Time      `gorm:"type:date;index" json:"effective_to"`             // End date, nullable = currently active
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
