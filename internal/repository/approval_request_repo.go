package repository

import (
	"context"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalRequestRepository owns workflow instances. Status transitions go
// through the orchestrator exclusively.
type ApprovalRequestRepository interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ApprovalRequest, error)
	FindByIDWithApprovals(ctx context.Context, tenantID, id uuid.UUID) (*model.ApprovalRequest, error)
	FindActiveByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error)
	Update(ctx context.Context, req *model.ApprovalRequest) error
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.ApprovalRequest, int64, error)
	ListStalled(ctx context.Context, tenantID uuid.UUID) ([]model.ApprovalRequest, error)
}

type approvalRequestRepository struct {
	db *gorm.DB
}

func NewApprovalRequestRepository(db *gorm.DB) ApprovalRequestRepository {
	return &approvalRequestRepository{db: db}
}

func (r *approvalRequestRepository) Create(ctx context.Context, req *model.ApprovalRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *approvalRequestRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).
		First(&req, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRequestRepository) FindByIDWithApprovals(ctx context.Context, tenantID, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("approvals.created_at asc")
		}).
		Preload("Requester").
		First(&req, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindActiveByEntity returns the single non-terminal request for an entity,
// or gorm.ErrRecordNotFound. Backs the at-most-one-active invariant.
func (r *approvalRequestRepository) FindActiveByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Where("status IN ?", []string{model.RequestStatusPending, model.RequestStatusEscalated}).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRequestRepository) Update(ctx context.Context, req *model.ApprovalRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *approvalRequestRepository) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.ApprovalRequest, int64, error) {
	var requests []model.ApprovalRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ApprovalRequest{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Requester").Where("tenant_id = ?", tenantID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// ListStalled returns pending requests with no actionable approval left,
// the NoApproverFound outcome that needs operator attention.
func (r *approvalRequestRepository) ListStalled(ctx context.Context, tenantID uuid.UUID) ([]model.ApprovalRequest, error) {
	var requests []model.ApprovalRequest
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND status = ?", tenantID, model.RequestStatusPending).
		Where("NOT EXISTS (SELECT 1 FROM approvals a WHERE a.request_id = approval_requests.id AND a.decision = ?)", model.DecisionPending).
		Order("created_at asc").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
