package repository

import (
	"context"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowDefinitionRepository owns tenant-authored approval policies.
// Definitions are configuration: written by the admin API, read-only to
// the approval engine.
type WorkflowDefinitionRepository interface {
	Create(ctx context.Context, def *model.WorkflowDefinition) error
	Update(ctx context.Context, def *model.WorkflowDefinition) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.WorkflowDefinition, error)
	List(ctx context.Context, tenantID uuid.UUID, entityType string, page, limit int) ([]model.WorkflowDefinition, int64, error)
	FindActiveByEntityType(ctx context.Context, tenantID uuid.UUID, entityType string) ([]model.WorkflowDefinition, error)
}

type workflowDefinitionRepository struct {
	db *gorm.DB
}

func NewWorkflowDefinitionRepository(db *gorm.DB) WorkflowDefinitionRepository {
	return &workflowDefinitionRepository{db: db}
}

func (r *workflowDefinitionRepository) Create(ctx context.Context, def *model.WorkflowDefinition) error {
	return GetDB(ctx, r.db).Create(def).Error
}

func (r *workflowDefinitionRepository) Update(ctx context.Context, def *model.WorkflowDefinition) error {
	return GetDB(ctx, r.db).Session(&gorm.Session{FullSaveAssociations: true}).Save(def).Error
}

func (r *workflowDefinitionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.WorkflowDefinition{}).Error
}

func (r *workflowDefinitionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.WorkflowDefinition, error) {
	var def model.WorkflowDefinition
	if err := GetDB(ctx, r.db).
		Preload("Steps").
		Preload("Conditions").
		Preload("EscalationRules").
		First(&def, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *workflowDefinitionRepository) List(ctx context.Context, tenantID uuid.UUID, entityType string, page, limit int) ([]model.WorkflowDefinition, int64, error) {
	var defs []model.WorkflowDefinition
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.WorkflowDefinition{}).Where("tenant_id = ?", tenantID)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Steps").Preload("Conditions").Preload("EscalationRules").
		Where("tenant_id = ?", tenantID)
	if entityType != "" {
		fetchQuery = fetchQuery.Where("entity_type = ?", entityType)
	}
	if err := fetchQuery.Order("priority desc, created_at desc").
		Offset(offset).Limit(limit).Find(&defs).Error; err != nil {
		return nil, 0, err
	}

	return defs, total, nil
}

// FindActiveByEntityType returns active definitions ordered by priority
// (highest first) so the store can pick the first whose conditions hold.
func (r *workflowDefinitionRepository) FindActiveByEntityType(ctx context.Context, tenantID uuid.UUID, entityType string) ([]model.WorkflowDefinition, error) {
	var defs []model.WorkflowDefinition
	if err := GetDB(ctx, r.db).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("workflow_steps.step_order asc, workflow_steps.amount_threshold asc")
		}).
		Preload("Conditions").
		Preload("EscalationRules").
		Where("tenant_id = ? AND entity_type = ? AND is_active = true", tenantID, entityType).
		Order("priority desc").
		Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}
