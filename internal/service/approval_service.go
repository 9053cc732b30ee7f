package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Approval action verbs accepted by ProcessApprovalAction.
const (
	ApprovalActionApprove  = "APPROVE"
	ApprovalActionReject   = "REJECT"
	ApprovalActionEscalate = "ESCALATE"
)

// CreateApprovalRequestInput starts a workflow instance for an entity.
type CreateApprovalRequestInput struct {
	TenantID      uuid.UUID
	CompanyID     uuid.UUID
	EntityType    string
	EntityID      uuid.UUID
	EntitySubType string
	RequestedBy   uuid.UUID
	Metadata      model.JSONMap
}

// ApprovalActionInput carries one approver decision.
type ApprovalActionInput struct {
	TenantID         uuid.UUID
	ApprovalID       uuid.UUID
	ActorID          uuid.UUID
	Action           string
	Comments         string
	EscalationReason string
}

// ApprovalService orchestrates approval workflow instances: creating them,
// advancing them step group by step group, and resolving them into an
// entity status callback. All state transitions run inside a transaction;
// notifications go out after commit.
type ApprovalService interface {
	// CreateApprovalRequest starts the applicable workflow for the entity.
	// Returns (nil, nil) when no workflow definition applies; the entity
	// is unrestricted and the caller may proceed without approval.
	CreateApprovalRequest(ctx context.Context, input CreateApprovalRequestInput) (*model.ApprovalRequest, error)
	ProcessApprovalAction(ctx context.Context, input ApprovalActionInput) (*model.ApprovalRequest, error)
	ListPendingApprovals(ctx context.Context, tenantID, approverID uuid.UUID) ([]model.Approval, error)
	GetRequest(ctx context.Context, tenantID, id uuid.UUID) (*model.ApprovalRequest, error)
	ListRequests(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.ApprovalRequest, int64, error)
	ListStalledRequests(ctx context.Context, tenantID uuid.UUID) ([]model.ApprovalRequest, error)
	// EscalateExpired is the scheduler entry point. The compare-and-set on
	// the approval row guarantees a timed-out approval escalates exactly
	// once even when sweeps overlap.
	EscalateExpired(ctx context.Context, tenantID, approvalID uuid.UUID, reason string) error
}

type approvalService struct {
	requestRepo  repository.ApprovalRequestRepository
	approvalRepo repository.ApprovalRepository
	defRepo      repository.WorkflowDefinitionRepository
	store        *WorkflowDefinitionStore
	resolver     *ApproverResolver
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     NotificationDispatcher
	callbacks    *CallbackRegistry
	log          zerolog.Logger
}

func NewApprovalService(
	requestRepo repository.ApprovalRequestRepository,
	approvalRepo repository.ApprovalRepository,
	defRepo repository.WorkflowDefinitionRepository,
	store *WorkflowDefinitionStore,
	resolver *ApproverResolver,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier NotificationDispatcher,
	callbacks *CallbackRegistry,
	log zerolog.Logger,
) ApprovalService {
	return &approvalService{
		requestRepo:  requestRepo,
		approvalRepo: approvalRepo,
		defRepo:      defRepo,
		store:        store,
		resolver:     resolver,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
		callbacks:    callbacks,
		log:          log,
	}
}

func (s *approvalService) CreateApprovalRequest(ctx context.Context, input CreateApprovalRequestInput) (*model.ApprovalRequest, error) {
	var req *model.ApprovalRequest
	var created []model.Approval

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.requestRepo.FindActiveByEntity(txCtx, input.TenantID, input.EntityType, input.EntityID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: request %s", ErrDuplicateActiveRequest, existing.ID)
		}

		def, err := s.store.FindApplicable(txCtx, input.TenantID, input.EntityType, input.EntitySubType, input.Metadata)
		if err != nil {
			return err
		}
		if def == nil {
			return nil
		}

		req = &model.ApprovalRequest{
			TenantID:      input.TenantID,
			CompanyID:     input.CompanyID,
			EntityType:    input.EntityType,
			EntityID:      input.EntityID,
			EntitySubType: input.EntitySubType,
			WorkflowID:    &def.ID,
			Status:        model.RequestStatusPending,
			RequestedBy:   input.RequestedBy,
			Metadata:      input.Metadata,
		}

		if shouldAutoApprove(def, input.Metadata) {
			return s.autoApprove(txCtx, req, input.RequestedBy)
		}

		order, ok := firstStepOrder(def)
		if !ok {
			// No steps and no auto-approval flag: nothing to wait on.
			return s.autoApprove(txCtx, req, input.RequestedBy)
		}
		req.CurrentStepOrder = order
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			// The partial unique index on active requests closes the race
			// two concurrent submits open between the check above and here.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: entity %s", ErrDuplicateActiveRequest, input.EntityID)
			}
			return err
		}
		s.audit(txCtx, req.TenantID, input.RequestedBy, model.ActionCreateApprovalRequest, req.ID.String(), model.JSONMap{
			"entity_type": req.EntityType,
			"entity_id":   req.EntityID.String(),
			"workflow_id": def.ID.String(),
		})

		created, err = s.runFrom(txCtx, req, def, order, input.RequestedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	if req != nil {
		s.notifyPending(ctx, req, created)
	}
	return req, nil
}

func (s *approvalService) ProcessApprovalAction(ctx context.Context, input ApprovalActionInput) (*model.ApprovalRequest, error) {
	var req *model.ApprovalRequest
	var created []model.Approval

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		approval, err := s.approvalRepo.FindByID(txCtx, input.ApprovalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: approval %s", ErrEntityNotFound, input.ApprovalID)
			}
			return err
		}
		if approval.Request == nil || approval.Request.TenantID != input.TenantID {
			return fmt.Errorf("%w: approval %s", ErrEntityNotFound, input.ApprovalID)
		}
		req = approval.Request

		if model.IsTerminalRequestStatus(req.Status) {
			return fmt.Errorf("%w: request %s is %s", ErrInvalidTransition, req.ID, req.Status)
		}
		if input.ActorID != approval.ApproverID && input.ActorID != model.SystemApproverID {
			return fmt.Errorf("%w: user %s is not the assigned approver", ErrUnauthorized, input.ActorID)
		}

		switch input.Action {
		case ApprovalActionApprove:
			created, err = s.approve(txCtx, approval, req, input)
			return err
		case ApprovalActionReject:
			created, err = s.reject(txCtx, approval, req, input)
			return err
		case ApprovalActionEscalate:
			created, err = s.escalate(txCtx, approval, req, input)
			return err
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, input.Action)
		}
	})
	if err != nil {
		return nil, err
	}
	s.notifyPending(ctx, req, created)
	return req, nil
}

func (s *approvalService) approve(ctx context.Context, approval *model.Approval, req *model.ApprovalRequest, input ApprovalActionInput) ([]model.Approval, error) {
	now := time.Now()
	ok, err := s.approvalRepo.UpdateDecisionIfPending(ctx, approval.ID, model.DecisionApproved, input.Comments, "", now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: approval %s already decided", ErrInvalidTransition, approval.ID)
	}
	s.audit(ctx, req.TenantID, input.ActorID, model.ActionApproveStep, req.ID.String(), model.JSONMap{
		"approval_id": approval.ID.String(),
		"step_order":  approval.StepOrder,
	})

	def, err := s.loadDefinition(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.advanceIfSatisfied(ctx, req, def, approval.StepOrder, input.ActorID, now)
}

// advanceIfSatisfied applies the group policy at the given order and, once
// the group is settled, cancels its leftover pending rows before activating
// the next order. Cancelling matters under FIRST_RESPONSE: losers of the
// race must not stay actionable or escalatable at a stale order.
func (s *approvalService) advanceIfSatisfied(ctx context.Context, req *model.ApprovalRequest, def *model.WorkflowDefinition, order int, actorID uuid.UUID, now time.Time) ([]model.Approval, error) {
	advance, err := s.groupSatisfied(ctx, req, def, order)
	if err != nil || !advance {
		return nil, err
	}
	if err := s.cancelPendingAtOrder(ctx, req, order, now); err != nil {
		return nil, err
	}

	next, ok := nextStepOrder(def, order)
	if !ok {
		return nil, s.completeRequest(ctx, req, actorID, model.RequestStatusApproved)
	}
	return s.runFrom(ctx, req, def, next, actorID)
}

// cancelPendingAtOrder cancels approvals still pending at an order whose
// outcome is already settled.
func (s *approvalService) cancelPendingAtOrder(ctx context.Context, req *model.ApprovalRequest, order int, now time.Time) error {
	siblings, err := s.approvalRepo.ListByRequestAndOrder(ctx, req.ID, order)
	if err != nil {
		return err
	}
	for _, sib := range siblings {
		if sib.Decision != model.DecisionPending {
			continue
		}
		if _, err := s.approvalRepo.UpdateDecisionIfPending(ctx, sib.ID, model.DecisionCancelled, "cancelled: step already settled", "", now); err != nil {
			return err
		}
	}
	return nil
}

// groupSatisfied applies the definition's parallel policy to the decided
// state of the current step group.
func (s *approvalService) groupSatisfied(ctx context.Context, req *model.ApprovalRequest, def *model.WorkflowDefinition, stepOrder int) (bool, error) {
	siblings, err := s.approvalRepo.ListByRequestAndOrder(ctx, req.ID, stepOrder)
	if err != nil {
		return false, err
	}

	if def.ApprovalPolicy == model.PolicyFirstResponse {
		for _, sib := range siblings {
			if sib.Decision == model.DecisionApproved {
				return true, nil
			}
		}
		return false, nil
	}

	// ALL_REQUIRED: every required approval in the group must be approved.
	// Escalated rows are satisfied by their replacement row, which shares
	// the step order.
	for _, sib := range siblings {
		if !sib.IsRequired {
			continue
		}
		switch sib.Decision {
		case model.DecisionApproved, model.DecisionEscalated:
		default:
			return false, nil
		}
	}
	return true, nil
}

func (s *approvalService) reject(ctx context.Context, approval *model.Approval, req *model.ApprovalRequest, input ApprovalActionInput) ([]model.Approval, error) {
	now := time.Now()
	ok, err := s.approvalRepo.UpdateDecisionIfPending(ctx, approval.ID, model.DecisionRejected, input.Comments, "", now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: approval %s already decided", ErrInvalidTransition, approval.ID)
	}
	s.audit(ctx, req.TenantID, input.ActorID, model.ActionRejectStep, req.ID.String(), model.JSONMap{
		"approval_id": approval.ID.String(),
		"step_order":  approval.StepOrder,
		"comments":    input.Comments,
	})

	// An optional approver's rejection is advisory: the decision is
	// recorded and the workflow continues on the required approvals.
	if !approval.IsRequired {
		def, err := s.loadDefinition(ctx, req)
		if err != nil {
			return nil, err
		}
		return s.advanceIfSatisfied(ctx, req, def, approval.StepOrder, input.ActorID, now)
	}

	// A required approver's rejection is terminal for the whole request.
	// Sibling pending approvals are cancelled explicitly so no actionable
	// row survives.
	siblings, err := s.approvalRepo.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	for _, sib := range siblings {
		if sib.Decision != model.DecisionPending || sib.ID == approval.ID {
			continue
		}
		if _, err := s.approvalRepo.UpdateDecisionIfPending(ctx, sib.ID, model.DecisionCancelled, "cancelled: request rejected", "", now); err != nil {
			return nil, err
		}
	}

	req.Status = model.RequestStatusRejected
	req.CompletedAt = &now
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}
	s.audit(ctx, req.TenantID, input.ActorID, model.ActionWorkflowRejected, req.ID.String(), nil)

	return nil, s.callbacks.Dispatch(ctx, req.EntityType, req.TenantID, req.EntityID, OutcomeRejected)
}

func (s *approvalService) escalate(ctx context.Context, approval *model.Approval, req *model.ApprovalRequest, input ApprovalActionInput) ([]model.Approval, error) {
	def, err := s.loadDefinition(ctx, req)
	if err != nil {
		return nil, err
	}

	// Resolve the target before touching any state so a missing escalation
	// rule leaves the original approval actionable.
	target, err := s.resolver.ResolveEscalation(ctx, def, approval.StepOrder, req.TenantID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.approvalRepo.UpdateDecisionIfPending(ctx, approval.ID, model.DecisionEscalated, input.Comments, input.EscalationReason, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: approval %s already decided", ErrInvalidTransition, approval.ID)
	}

	replacement := &model.Approval{
		RequestID:        req.ID,
		StepID:           approval.StepID,
		StepOrder:        approval.StepOrder,
		ApproverID:       target.ID,
		Decision:         model.DecisionPending,
		IsRequired:       approval.IsRequired,
		IsEscalation:     true,
		EscalationReason: input.EscalationReason,
		EscalationHours:  approval.EscalationHours,
	}
	if err := s.approvalRepo.Create(ctx, replacement); err != nil {
		return nil, err
	}

	req.Status = model.RequestStatusEscalated
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit(ctx, req.TenantID, input.ActorID, model.ActionEscalateStep, req.ID.String(), model.JSONMap{
		"approval_id":  approval.ID.String(),
		"escalated_to": target.ID.String(),
		"step_order":   approval.StepOrder,
		"reason":       input.EscalationReason,
	})
	return []model.Approval{*replacement}, nil
}

// runFrom activates step groups starting at order until one needs human
// input, the workflow resolves, or no approver can be found. The request
// row is persisted with its final status before returning.
func (s *approvalService) runFrom(ctx context.Context, req *model.ApprovalRequest, def *model.WorkflowDefinition, order int, actorID uuid.UUID) ([]model.Approval, error) {
	var created []model.Approval
	for {
		req.CurrentStepOrder = order
		pending, satisfied, stalled, err := s.activateStepGroup(ctx, req, def, order)
		if err != nil {
			return created, err
		}
		created = append(created, pending...)

		if stalled {
			// No actionable approval could be created for a required step.
			// The request stays PENDING with no pending approvals, which is
			// exactly what ListStalled surfaces for operators.
			req.Status = model.RequestStatusPending
			return created, s.requestRepo.Update(ctx, req)
		}
		if !satisfied {
			req.Status = model.RequestStatusPending
			return created, s.requestRepo.Update(ctx, req)
		}

		next, ok := nextStepOrder(def, order)
		if !ok {
			return created, s.completeRequest(ctx, req, actorID, model.RequestStatusApproved)
		}
		order = next
	}
}

// activateStepGroup materializes approval rows for every step at the given
// order. Resolution runs for the whole group before any row is written: a
// required step with no reachable approver leaves the group empty (stalled)
// instead of half-created.
func (s *approvalService) activateStepGroup(ctx context.Context, req *model.ApprovalRequest, def *model.WorkflowDefinition, order int) (pending []model.Approval, satisfied, stalled bool, err error) {
	group := stepsAtOrder(def, order)
	now := time.Now()

	var planned []*model.Approval
	pendingCount := 0
	amountHandled := false

	for i := range group {
		step := group[i]

		if step.ApproverType == model.ApproverTypeAmountBased {
			if amountHandled {
				continue
			}
			amountHandled = true
		}

		if step.AutoApprove {
			planned = append(planned, &model.Approval{
				RequestID:   req.ID,
				StepID:      &step.ID,
				StepOrder:   order,
				ApproverID:  model.SystemApproverID,
				Decision:    model.DecisionApproved,
				IsRequired:  step.IsRequired,
				Comments:    "auto-approved by workflow step",
				ProcessedAt: &now,
			})
			continue
		}

		approver, err := s.resolver.Resolve(ctx, step, group, req.TenantID, req.CompanyID, req.Metadata)
		if err != nil {
			if errors.Is(err, ErrNoApproverFound) {
				if !step.IsRequired {
					s.log.Warn().Err(err).
						Str("request_id", req.ID.String()).
						Int("step_order", order).
						Msg("skipping optional step with no approver")
					continue
				}
				s.log.Error().Err(err).
					Str("request_id", req.ID.String()).
					Int("step_order", order).
					Msg("required step has no approver, request stalled")
				return nil, false, true, nil
			}
			return nil, false, false, err
		}

		planned = append(planned, &model.Approval{
			RequestID:       req.ID,
			StepID:          &step.ID,
			StepOrder:       order,
			ApproverID:      approver.ID,
			Decision:        model.DecisionPending,
			IsRequired:      step.IsRequired,
			EscalationHours: step.EscalationHours,
		})
		pendingCount++
	}

	for _, approval := range planned {
		if err := s.approvalRepo.Create(ctx, approval); err != nil {
			return nil, false, false, err
		}
		if approval.Decision == model.DecisionPending {
			pending = append(pending, *approval)
		}
	}

	return pending, pendingCount == 0, false, nil
}

// autoApprove records a definition-level auto-approval: the request is born
// COMPLETED with a single system decision attached.
func (s *approvalService) autoApprove(ctx context.Context, req *model.ApprovalRequest, actorID uuid.UUID) error {
	now := time.Now()
	req.Status = model.RequestStatusCompleted
	req.CompletedAt = &now
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return err
	}

	decision := &model.Approval{
		RequestID:   req.ID,
		StepOrder:   0,
		ApproverID:  model.SystemApproverID,
		Decision:    model.DecisionApproved,
		IsRequired:  false,
		Comments:    "auto-approved by workflow policy",
		ProcessedAt: &now,
	}
	if err := s.approvalRepo.Create(ctx, decision); err != nil {
		return err
	}

	s.audit(ctx, req.TenantID, actorID, model.ActionAutoApprove, req.ID.String(), model.JSONMap{
		"entity_type": req.EntityType,
		"entity_id":   req.EntityID.String(),
	})
	return s.callbacks.Dispatch(ctx, req.EntityType, req.TenantID, req.EntityID, OutcomeApproved)
}

func (s *approvalService) completeRequest(ctx context.Context, req *model.ApprovalRequest, actorID uuid.UUID, status string) error {
	now := time.Now()
	req.Status = status
	req.CompletedAt = &now
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return err
	}
	s.audit(ctx, req.TenantID, actorID, model.ActionWorkflowCompleted, req.ID.String(), model.JSONMap{
		"entity_type": req.EntityType,
		"entity_id":   req.EntityID.String(),
	})
	return s.callbacks.Dispatch(ctx, req.EntityType, req.TenantID, req.EntityID, OutcomeApproved)
}

func (s *approvalService) ListPendingApprovals(ctx context.Context, tenantID, approverID uuid.UUID) ([]model.Approval, error) {
	return s.approvalRepo.ListPendingByApprover(ctx, tenantID, approverID)
}

func (s *approvalService) GetRequest(ctx context.Context, tenantID, id uuid.UUID) (*model.ApprovalRequest, error) {
	req, err := s.requestRepo.FindByIDWithApprovals(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: request %s", ErrEntityNotFound, id)
		}
		return nil, err
	}
	return req, nil
}

func (s *approvalService) ListRequests(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.ApprovalRequest, int64, error) {
	return s.requestRepo.List(ctx, tenantID, status, page, limit)
}

func (s *approvalService) ListStalledRequests(ctx context.Context, tenantID uuid.UUID) ([]model.ApprovalRequest, error) {
	return s.requestRepo.ListStalled(ctx, tenantID)
}

func (s *approvalService) EscalateExpired(ctx context.Context, tenantID, approvalID uuid.UUID, reason string) error {
	_, err := s.ProcessApprovalAction(ctx, ApprovalActionInput{
		TenantID:         tenantID,
		ApprovalID:       approvalID,
		ActorID:          model.SystemApproverID,
		Action:           ApprovalActionEscalate,
		EscalationReason: reason,
	})
	return err
}

func (s *approvalService) loadDefinition(ctx context.Context, req *model.ApprovalRequest) (*model.WorkflowDefinition, error) {
	if req.WorkflowID == nil {
		return nil, fmt.Errorf("%w: request %s has no workflow", ErrWorkflowNotFound, req.ID)
	}
	def, err := s.defRepo.FindByID(ctx, req.TenantID, *req.WorkflowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, *req.WorkflowID)
		}
		return nil, err
	}
	return def, nil
}

// audit records the action without ever failing the surrounding transition.
func (s *approvalService) audit(ctx context.Context, tenantID, actorID uuid.UUID, action, entityID string, details model.JSONMap) {
	entry := &model.AuditLog{
		TenantID: tenantID,
		Action:   action,
		EntityID: entityID,
		Details:  details,
	}
	if actorID != model.SystemApproverID && actorID != uuid.Nil {
		actor := actorID
		entry.UserID = &actor
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}

func (s *approvalService) notifyPending(ctx context.Context, req *model.ApprovalRequest, approvals []model.Approval) {
	if req == nil {
		return
	}
	for _, approval := range approvals {
		notification := ApprovalNotification{
			TenantID:   req.TenantID,
			ApprovalID: approval.ID,
			RequestID:  req.ID,
			EntityType: req.EntityType,
			EntityID:   req.EntityID,
		}
		if approval.EscalationHours != nil {
			due := approval.CreatedAt.Add(time.Duration(*approval.EscalationHours) * time.Hour)
			notification.DueBy = &due
		}
		if err := s.notifier.Notify(ctx, approval.ApproverID, notification); err != nil {
			s.log.Warn().Err(err).
				Str("approval_id", approval.ID.String()).
				Msg("failed to dispatch approval notification")
		}
	}
}

// shouldAutoApprove reports whether the definition waives approval for the
// request: auto-approval is enabled and either the definition has no steps
// or the amount sits below every configured threshold.
func shouldAutoApprove(def *model.WorkflowDefinition, metadata model.JSONMap) bool {
	if !def.AutoApproval {
		return false
	}
	if len(def.Steps) == 0 {
		return true
	}
	amount, ok := MetadataAmount(metadata)
	if !ok {
		return false
	}
	hasThreshold := false
	for i := range def.Steps {
		threshold := def.Steps[i].AmountThreshold
		if threshold == nil {
			continue
		}
		hasThreshold = true
		if amount.GreaterThanOrEqual(*threshold) {
			return false
		}
	}
	return hasThreshold
}

func firstStepOrder(def *model.WorkflowDefinition) (int, bool) {
	found := false
	first := 0
	for i := range def.Steps {
		order := def.Steps[i].StepOrder
		if !found || order < first {
			first = order
			found = true
		}
	}
	return first, found
}

func nextStepOrder(def *model.WorkflowDefinition, current int) (int, bool) {
	found := false
	next := 0
	for i := range def.Steps {
		order := def.Steps[i].StepOrder
		if order <= current {
			continue
		}
		if !found || order < next {
			next = order
			found = true
		}
	}
	return next, found
}

func stepsAtOrder(def *model.WorkflowDefinition, order int) []model.WorkflowStep {
	var group []model.WorkflowStep
	for i := range def.Steps {
		if def.Steps[i].StepOrder == order {
			group = append(group, def.Steps[i])
		}
	}
	return group
}
