package service

import (
	"context"
	"errors"
	"fmt"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type WorkflowStepRequest struct {
	StepOrder       int    `json:"step_order" binding:"min=0"`
	ApproverType    string `json:"approver_type" binding:"required,oneof=ROLE USER DEPARTMENT AMOUNT_BASED"`
	Role            string `json:"role"`
	UserID          string `json:"user_id"`
	Department      string `json:"department"`
	AmountThreshold string `json:"amount_threshold"`
	IsRequired      *bool  `json:"is_required"`
	EscalationHours *int   `json:"escalation_hours"`
	AutoApprove     bool   `json:"auto_approve"`
}

type WorkflowConditionRequest struct {
	Field    string `json:"field" binding:"required"`
	Operator string `json:"operator" binding:"required,oneof=EQUALS NOT_EQUALS GREATER_THAN LESS_THAN GREATER_OR_EQUAL LESS_OR_EQUAL CONTAINS"`
	Value    string `json:"value" binding:"required"`
	Optional bool   `json:"optional"`
}

type EscalationRuleRequest struct {
	StepOrder      *int   `json:"step_order"` // nil = definition-wide default
	EscalateToRole string `json:"escalate_to_role"`
	EscalateToUser string `json:"escalate_to_user"`
}

type SaveWorkflowDefinitionRequest struct {
	Name            string                     `json:"name" binding:"required"`
	EntityType      string                     `json:"entity_type" binding:"required,oneof=JOURNAL_ENTRY INVOICE PURCHASE_ORDER EXPENSE"`
	EntitySubType   string                     `json:"entity_sub_type"`
	Priority        int                        `json:"priority"`
	ApprovalPolicy  string                     `json:"approval_policy" binding:"omitempty,oneof=ALL_REQUIRED FIRST_RESPONSE"`
	AutoApproval    bool                       `json:"auto_approval"`
	IsDefault       bool                       `json:"is_default"`
	IsActive        *bool                      `json:"is_active"`
	Steps           []WorkflowStepRequest      `json:"steps" binding:"dive"`
	Conditions      []WorkflowConditionRequest `json:"conditions" binding:"dive"`
	EscalationRules []EscalationRuleRequest    `json:"escalation_rules" binding:"dive"`
}

// --- Interface ---

// WorkflowAdminService is the tenant-facing configuration surface for
// approval workflow definitions. The engine itself only reads definitions;
// all writes go through here.
type WorkflowAdminService interface {
	CreateDefinition(ctx context.Context, tenantID, userID uuid.UUID, req SaveWorkflowDefinitionRequest) (*model.WorkflowDefinition, error)
	UpdateDefinition(ctx context.Context, tenantID uuid.UUID, id string, req SaveWorkflowDefinitionRequest) (*model.WorkflowDefinition, error)
	DeleteDefinition(ctx context.Context, tenantID uuid.UUID, id string) error
	GetDefinition(ctx context.Context, tenantID uuid.UUID, id string) (*model.WorkflowDefinition, error)
	ListDefinitions(ctx context.Context, tenantID uuid.UUID, entityType string, page, limit int) ([]model.WorkflowDefinition, int64, error)
}

type workflowAdminService struct {
	defRepo  repository.WorkflowDefinitionRepository
	userRepo repository.UserRepository
}

func NewWorkflowAdminService(defRepo repository.WorkflowDefinitionRepository, userRepo repository.UserRepository) WorkflowAdminService {
	return &workflowAdminService{defRepo: defRepo, userRepo: userRepo}
}

// --- Implementation ---

func (s *workflowAdminService) CreateDefinition(ctx context.Context, tenantID, userID uuid.UUID, req SaveWorkflowDefinitionRequest) (*model.WorkflowDefinition, error) {
	def, err := s.buildDefinition(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	def.CreatedBy = &userID

	if err := s.defRepo.Create(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to create workflow definition: %w", err)
	}
	return s.defRepo.FindByID(ctx, tenantID, def.ID)
}

func (s *workflowAdminService) UpdateDefinition(ctx context.Context, tenantID uuid.UUID, id string, req SaveWorkflowDefinitionRequest) (*model.WorkflowDefinition, error) {
	defID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow definition id: %w", err)
	}
	existing, err := s.defRepo.FindByID(ctx, tenantID, defID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
		}
		return nil, err
	}

	def, err := s.buildDefinition(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	def.ID = existing.ID
	def.CreatedBy = existing.CreatedBy
	def.CreatedAt = existing.CreatedAt
	for i := range def.Steps {
		def.Steps[i].DefinitionID = existing.ID
	}
	for i := range def.Conditions {
		def.Conditions[i].DefinitionID = existing.ID
	}
	for i := range def.EscalationRules {
		def.EscalationRules[i].DefinitionID = existing.ID
	}

	if err := s.defRepo.Update(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to update workflow definition: %w", err)
	}
	return s.defRepo.FindByID(ctx, tenantID, def.ID)
}

func (s *workflowAdminService) DeleteDefinition(ctx context.Context, tenantID uuid.UUID, id string) error {
	defID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid workflow definition id: %w", err)
	}
	if _, err := s.defRepo.FindByID(ctx, tenantID, defID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
		}
		return err
	}
	return s.defRepo.Delete(ctx, tenantID, defID)
}

func (s *workflowAdminService) GetDefinition(ctx context.Context, tenantID uuid.UUID, id string) (*model.WorkflowDefinition, error) {
	defID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow definition id: %w", err)
	}
	def, err := s.defRepo.FindByID(ctx, tenantID, defID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
		}
		return nil, err
	}
	return def, nil
}

func (s *workflowAdminService) ListDefinitions(ctx context.Context, tenantID uuid.UUID, entityType string, page, limit int) ([]model.WorkflowDefinition, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.defRepo.List(ctx, tenantID, entityType, page, limit)
}

// buildDefinition validates the request and assembles the model tree.
// Selector requirements depend on the approver type: ROLE needs a role,
// USER a user id, DEPARTMENT a department, AMOUNT_BASED a role plus a
// threshold.
func (s *workflowAdminService) buildDefinition(ctx context.Context, tenantID uuid.UUID, req SaveWorkflowDefinitionRequest) (*model.WorkflowDefinition, error) {
	if len(req.Steps) == 0 && !req.AutoApproval {
		return nil, fmt.Errorf("workflow definition needs at least one step unless auto_approval is set")
	}

	policy := req.ApprovalPolicy
	if policy == "" {
		policy = model.PolicyAllRequired
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	def := &model.WorkflowDefinition{
		TenantID:       tenantID,
		Name:           req.Name,
		EntityType:     req.EntityType,
		EntitySubType:  req.EntitySubType,
		Priority:       req.Priority,
		ApprovalPolicy: policy,
		AutoApproval:   req.AutoApproval,
		IsDefault:      req.IsDefault,
		IsActive:       isActive,
	}

	for i, stepReq := range req.Steps {
		step := model.WorkflowStep{
			StepOrder:       stepReq.StepOrder,
			ApproverType:    stepReq.ApproverType,
			Role:            stepReq.Role,
			Department:      stepReq.Department,
			IsRequired:      true,
			EscalationHours: stepReq.EscalationHours,
			AutoApprove:     stepReq.AutoApprove,
		}
		if stepReq.IsRequired != nil {
			step.IsRequired = *stepReq.IsRequired
		}
		if stepReq.EscalationHours != nil && *stepReq.EscalationHours <= 0 {
			return nil, fmt.Errorf("step %d: escalation_hours must be positive", i)
		}

		switch stepReq.ApproverType {
		case model.ApproverTypeRole:
			if stepReq.Role == "" {
				return nil, fmt.Errorf("step %d: role is required for ROLE steps", i)
			}
		case model.ApproverTypeUser:
			if stepReq.UserID == "" {
				return nil, fmt.Errorf("step %d: user_id is required for USER steps", i)
			}
			userID, err := uuid.Parse(stepReq.UserID)
			if err != nil {
				return nil, fmt.Errorf("step %d: invalid user_id: %w", i, err)
			}
			user, err := s.userRepo.GetByID(ctx, userID)
			if err != nil || user.TenantID != tenantID {
				return nil, fmt.Errorf("step %d: user not found", i)
			}
			step.UserID = &userID
		case model.ApproverTypeDepartment:
			if stepReq.Department == "" {
				return nil, fmt.Errorf("step %d: department is required for DEPARTMENT steps", i)
			}
		case model.ApproverTypeAmountBased:
			if stepReq.Role == "" {
				return nil, fmt.Errorf("step %d: role is required for AMOUNT_BASED steps", i)
			}
			if stepReq.AmountThreshold == "" {
				return nil, fmt.Errorf("step %d: amount_threshold is required for AMOUNT_BASED steps", i)
			}
		}

		if stepReq.AmountThreshold != "" {
			threshold, err := decimal.NewFromString(stepReq.AmountThreshold)
			if err != nil {
				return nil, fmt.Errorf("step %d: invalid amount_threshold: %w", i, err)
			}
			if threshold.IsNegative() {
				return nil, fmt.Errorf("step %d: amount_threshold must not be negative", i)
			}
			step.AmountThreshold = &threshold
		}

		def.Steps = append(def.Steps, step)
	}

	for _, condReq := range req.Conditions {
		def.Conditions = append(def.Conditions, model.WorkflowCondition{
			Field:    condReq.Field,
			Operator: condReq.Operator,
			Value:    condReq.Value,
			Optional: condReq.Optional,
		})
	}

	for i, ruleReq := range req.EscalationRules {
		if ruleReq.EscalateToRole == "" && ruleReq.EscalateToUser == "" {
			return nil, fmt.Errorf("escalation rule %d: escalate_to_role or escalate_to_user is required", i)
		}
		rule := model.EscalationRule{
			StepOrder:      ruleReq.StepOrder,
			EscalateToRole: ruleReq.EscalateToRole,
		}
		if ruleReq.EscalateToUser != "" {
			userID, err := uuid.Parse(ruleReq.EscalateToUser)
			if err != nil {
				return nil, fmt.Errorf("escalation rule %d: invalid escalate_to_user: %w", i, err)
			}
			rule.EscalateToUser = &userID
		}
		def.EscalationRules = append(def.EscalationRules, rule)
	}

	return def, nil
}
