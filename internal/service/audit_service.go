package service

import (
	"context"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
)

// AuditService is the read side of the audit trail; writes happen inline in
// the services that perform the audited actions.
type AuditService interface {
	ListLogs(ctx context.Context, tenantID uuid.UUID, action string, page, limit int) ([]model.AuditLog, int64, error)
	ListByEntity(ctx context.Context, tenantID uuid.UUID, entityID string) ([]model.AuditLog, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) ListLogs(ctx context.Context, tenantID uuid.UUID, action string, page, limit int) ([]model.AuditLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return s.auditRepo.List(ctx, tenantID, action, page, limit)
}

func (s *auditService) ListByEntity(ctx context.Context, tenantID uuid.UUID, entityID string) ([]model.AuditLog, error) {
	return s.auditRepo.ListByEntity(ctx, tenantID, entityID)
}
