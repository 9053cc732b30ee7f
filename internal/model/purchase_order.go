package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus enum constants
const (
	POStatusDraft           = "DRAFT"
	POStatusPendingApproval = "PENDING_APPROVAL"
	POStatusApproved        = "APPROVED"
	POStatusRejected        = "REJECTED"
	POStatusReceived        = "RECEIVED"
)

// PurchaseOrder represents a procurement request against a supplier.
// Approval is gated by the workflow engine; receiving an approved PO
// updates product stock through inventory transactions.
type PurchaseOrder struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CompanyID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"company_id"`
	OrderNo     string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_no"`
	PartnerID   *uuid.UUID          `gorm:"type:uuid;index" json:"partner_id"`
	Partner     *Partner            `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	Status      string              `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	TotalAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Items       []PurchaseOrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Department  string              `gorm:"type:varchar(100)" json:"department"` // requesting department, feeds approval metadata
	ExpectedAt  *time.Time          `gorm:"type:date" json:"expected_at"`
	ApprovedBy  *uuid.UUID          `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt  *time.Time          `json:"approved_at"`
	CreatedBy   *uuid.UUID          `gorm:"type:uuid;index" json:"created_by"`
	Note        string              `gorm:"type:text" json:"note"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// PurchaseOrderItem is a line item within a PurchaseOrder
type PurchaseOrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
}
