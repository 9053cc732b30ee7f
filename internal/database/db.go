package database

import (
	"erpapi/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.WorkflowDefinition{},
		&model.WorkflowStep{},
		&model.WorkflowCondition{},
		&model.EscalationRule{},
		&model.ApprovalRequest{},
		&model.Approval{},
		&model.Account{},
		&model.JournalEntry{},
		&model.JournalLine{},
		&model.Invoice{},
		&model.InvoiceLine{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.Expense{},
		&model.Product{},
		&model.InventoryTransaction{},
		&model.Partner{},
		&model.TaxRule{},
		&model.AuditLog{},
	)
	if err != nil {
		return nil, err
	}

	// Only one active approval request may exist per entity. The check in
	// CreateApprovalRequest is advisory; this index is the guarantee under
	// concurrent submits.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_request_per_entity
		ON approval_requests (tenant_id, entity_type, entity_id)
		WHERE status IN ('PENDING', 'ESCALATED')`).Error
	if err != nil {
		return nil, err
	}

	return db, nil
}
