package service

import (
	"context"
	"errors"
	"fmt"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApproverResolver maps a workflow step to the concrete user who must act.
// Resolution is deterministic: where several users match (e.g. two CFOs),
// the earliest-created active user wins, so repeated resolution against the
// same directory state yields the same approver.
type ApproverResolver struct {
	userRepo repository.UserRepository
}

func NewApproverResolver(userRepo repository.UserRepository) *ApproverResolver {
	return &ApproverResolver{userRepo: userRepo}
}

// Resolve returns the approver for a step. groupSteps must contain all steps
// sharing the step's order; AMOUNT_BASED resolution selects the bracket
// step from that group before resolving its nominal role.
func (r *ApproverResolver) Resolve(ctx context.Context, step model.WorkflowStep, groupSteps []model.WorkflowStep, tenantID, companyID uuid.UUID, metadata model.JSONMap) (*model.User, error) {
	switch step.ApproverType {
	case model.ApproverTypeRole:
		return r.resolveRole(ctx, tenantID, companyID, step.Role)

	case model.ApproverTypeUser:
		if step.UserID == nil {
			return nil, fmt.Errorf("%w: step has no user id", ErrNoApproverFound)
		}
		user, err := r.userRepo.GetByID(ctx, *step.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: user %s", ErrNoApproverFound, *step.UserID)
			}
			return nil, err
		}
		if !user.IsActive || user.TenantID != tenantID {
			return nil, fmt.Errorf("%w: user %s is not an active tenant member", ErrNoApproverFound, *step.UserID)
		}
		return user, nil

	case model.ApproverTypeDepartment:
		user, err := r.userRepo.FindActiveDepartmentHead(ctx, tenantID, companyID, step.Department)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: no head for department %q", ErrNoApproverFound, step.Department)
			}
			return nil, err
		}
		return user, nil

	case model.ApproverTypeAmountBased:
		bracket, err := SelectAmountBracket(step, groupSteps, metadata)
		if err != nil {
			return nil, err
		}
		return r.resolveRole(ctx, tenantID, companyID, bracket.Role)

	default:
		return nil, fmt.Errorf("%w: unknown approver type %q", ErrNoApproverFound, step.ApproverType)
	}
}

// ResolveEscalation returns the escalation target for a step, preferring a
// step-specific rule over the definition-wide default (nil step order).
func (r *ApproverResolver) ResolveEscalation(ctx context.Context, def *model.WorkflowDefinition, stepOrder int, tenantID, companyID uuid.UUID) (*model.User, error) {
	var rule *model.EscalationRule
	for i := range def.EscalationRules {
		candidate := &def.EscalationRules[i]
		if candidate.StepOrder != nil && *candidate.StepOrder == stepOrder {
			rule = candidate
			break
		}
		if candidate.StepOrder == nil && rule == nil {
			rule = candidate
		}
	}
	if rule == nil {
		return nil, fmt.Errorf("%w: no escalation rule for step order %d", ErrNoApproverFound, stepOrder)
	}

	if rule.EscalateToUser != nil {
		user, err := r.userRepo.GetByID(ctx, *rule.EscalateToUser)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: escalation user %s", ErrNoApproverFound, *rule.EscalateToUser)
			}
			return nil, err
		}
		if !user.IsActive {
			return nil, fmt.Errorf("%w: escalation user %s is inactive", ErrNoApproverFound, *rule.EscalateToUser)
		}
		return user, nil
	}
	return r.resolveRole(ctx, tenantID, companyID, rule.EscalateToRole)
}

func (r *ApproverResolver) resolveRole(ctx context.Context, tenantID, companyID uuid.UUID, role string) (*model.User, error) {
	if role == "" {
		return nil, fmt.Errorf("%w: step has no role", ErrNoApproverFound)
	}
	user, err := r.userRepo.FindActiveByRole(ctx, tenantID, companyID, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active user with role %q", ErrNoApproverFound, role)
		}
		return nil, err
	}
	return user, nil
}

// SelectAmountBracket picks, among the AMOUNT_BASED steps sharing an order,
// the one whose threshold is the greatest value <= the request amount.
func SelectAmountBracket(step model.WorkflowStep, groupSteps []model.WorkflowStep, metadata model.JSONMap) (*model.WorkflowStep, error) {
	amount, ok := MetadataAmount(metadata)
	if !ok {
		return nil, fmt.Errorf("%w: request metadata has no amount", ErrNoApproverFound)
	}

	var bracket *model.WorkflowStep
	for i := range groupSteps {
		candidate := &groupSteps[i]
		if candidate.ApproverType != model.ApproverTypeAmountBased || candidate.StepOrder != step.StepOrder {
			continue
		}
		if candidate.AmountThreshold == nil || candidate.AmountThreshold.GreaterThan(amount) {
			continue
		}
		if bracket == nil || candidate.AmountThreshold.GreaterThan(*bracket.AmountThreshold) {
			bracket = candidate
		}
	}
	if bracket == nil {
		return nil, fmt.Errorf("%w: no amount bracket matches %s", ErrNoApproverFound, amount)
	}
	return bracket, nil
}
