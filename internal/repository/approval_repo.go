package repository

import (
	"context"
	"time"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalRepository owns individual decision records. Decisions move out of
// PENDING exactly once; UpdateDecisionIfPending is the compare-and-set guard
// every transition goes through.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *model.Approval) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Approval, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Approval, error)
	ListByRequestAndOrder(ctx context.Context, requestID uuid.UUID, stepOrder int) ([]model.Approval, error)
	ListPendingByApprover(ctx context.Context, tenantID, approverID uuid.UUID) ([]model.Approval, error)
	UpdateDecisionIfPending(ctx context.Context, id uuid.UUID, decision, comments, escalationReason string, processedAt time.Time) (bool, error)
	ListEscalatable(ctx context.Context, now time.Time) ([]model.Approval, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Create(approval).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	if err := GetDB(ctx, r.db).
		Preload("Request").
		First(&approval, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Approval, error) {
	var approvals []model.Approval
	if err := GetDB(ctx, r.db).
		Where("request_id = ?", requestID).
		Order("step_order asc, created_at asc").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *approvalRepository) ListByRequestAndOrder(ctx context.Context, requestID uuid.UUID, stepOrder int) ([]model.Approval, error) {
	var approvals []model.Approval
	if err := GetDB(ctx, r.db).
		Where("request_id = ? AND step_order = ?", requestID, stepOrder).
		Order("created_at asc").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

// ListPendingByApprover returns a user's actionable approvals. Approvals
// whose owning request already reached a terminal state are excluded;
// that covers FIRST_RESPONSE losers whose rows stay PENDING after a
// sibling's approval completes the request.
func (r *approvalRepository) ListPendingByApprover(ctx context.Context, tenantID, approverID uuid.UUID) ([]model.Approval, error) {
	var approvals []model.Approval
	if err := GetDB(ctx, r.db).
		Joins("JOIN approval_requests req ON req.id = approvals.request_id").
		Where("approvals.approver_id = ? AND approvals.decision = ?", approverID, model.DecisionPending).
		Where("req.tenant_id = ? AND req.status IN ?", tenantID,
			[]string{model.RequestStatusPending, model.RequestStatusEscalated}).
		Preload("Request").
		Order("approvals.created_at asc").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

// UpdateDecisionIfPending performs the conditional transition
// PENDING -> decision. Returns false when the row was already decided,
// letting the caller surface an invalid-transition error instead of
// silently overwriting a concurrent writer.
func (r *approvalRepository) UpdateDecisionIfPending(ctx context.Context, id uuid.UUID, decision, comments, escalationReason string, processedAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"decision":     decision,
		"processed_at": processedAt,
	}
	if comments != "" {
		updates["comments"] = comments
	}
	if escalationReason != "" {
		updates["escalation_reason"] = escalationReason
	}

	result := GetDB(ctx, r.db).Model(&model.Approval{}).
		Where("id = ? AND decision = ?", id, model.DecisionPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListEscalatable returns pending approvals whose time budget has elapsed.
// Eligibility is derived purely from persisted timestamps so a process
// restart never loses pending escalations.
func (r *approvalRepository) ListEscalatable(ctx context.Context, now time.Time) ([]model.Approval, error) {
	var approvals []model.Approval
	if err := GetDB(ctx, r.db).
		Joins("JOIN approval_requests req ON req.id = approvals.request_id").
		Where("approvals.decision = ? AND approvals.escalation_hours IS NOT NULL", model.DecisionPending).
		Where("approvals.created_at + make_interval(hours => approvals.escalation_hours) < ?", now).
		Where("req.status IN ?", []string{model.RequestStatusPending, model.RequestStatusEscalated}).
		Preload("Request").
		Order("approvals.created_at asc").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}
