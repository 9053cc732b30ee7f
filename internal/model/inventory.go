package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item in the inventory
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_tenant_sku" json:"tenant_id"`
	SKU          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_tenant_sku" json:"sku"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	CurrentStock int             `gorm:"type:int;default:0;not null" json:"current_stock"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TransactionType Enum Simulation
const (
	TxTypeIn         = "IN"
	TxTypeOut        = "OUT"
	TxTypeAdjustment = "ADJUSTMENT"
)

// InventoryTransaction records stock changes strictly: every change to
// Product.CurrentStock has exactly one matching transaction row.
type InventoryTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	PurchaseOrderID *uuid.UUID `gorm:"type:uuid;index" json:"purchase_order_id"`          // Nullable in case of manual adjustments
	TransactionType string     `gorm:"type:varchar(15);not null" json:"transaction_type"` // IN, OUT, ADJUSTMENT
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	Note            string     `gorm:"type:text" json:"note"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
