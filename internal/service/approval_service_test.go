package service

import (
	"context"
	"testing"
	"time"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type engineEnv struct {
	tenantID  uuid.UUID
	companyID uuid.UUID
	requester uuid.UUID

	requests  *memRequestRepo
	approvals *memApprovalRepo
	defs      *memDefRepo
	users     *fakeUserRepo
	audit     *memAuditRepo
	notifier  *recordingNotifier
	outcomes  *outcomeRecorder
	callbacks *CallbackRegistry

	svc ApprovalService
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()

	env := &engineEnv{
		tenantID:  uuid.New(),
		companyID: uuid.New(),
		requester: uuid.New(),
		requests:  newMemRequestRepo(),
		approvals: newMemApprovalRepo(),
		defs:      newMemDefRepo(),
		users:     &fakeUserRepo{},
		audit:     &memAuditRepo{},
		notifier:  &recordingNotifier{},
		outcomes:  &outcomeRecorder{},
	}
	env.requests.approvals = env.approvals
	env.approvals.requests = env.requests

	store := NewWorkflowDefinitionStore(env.defs, NewConditionEvaluator())
	resolver := NewApproverResolver(env.users)
	env.callbacks = NewCallbackRegistry()
	env.callbacks.Register(model.EntityTypeInvoice, EntityStatusCallbackFunc(env.outcomes.record))

	env.svc = NewApprovalService(
		env.requests, env.approvals, env.defs, store, resolver,
		env.audit, fakeTxManager{}, env.notifier, env.callbacks, zerolog.Nop(),
	)
	return env
}

func (env *engineEnv) addUser(t *testing.T, role string, createdAt time.Time) uuid.UUID {
	t.Helper()
	user := &model.User{
		ID:        uuid.New(),
		TenantID:  env.tenantID,
		CompanyID: env.companyID,
		Role:      role,
		IsActive:  true,
		CreatedAt: createdAt,
	}
	require.NoError(t, env.users.Create(context.Background(), user))
	return user.ID
}

func (env *engineEnv) addDefinition(t *testing.T, def *model.WorkflowDefinition) *model.WorkflowDefinition {
	t.Helper()
	def.TenantID = env.tenantID
	def.IsActive = true
	require.NoError(t, env.defs.Create(context.Background(), def))
	return def
}

func (env *engineEnv) createRequest(t *testing.T, entityID uuid.UUID, amount string) *model.ApprovalRequest {
	t.Helper()
	metadata := model.JSONMap{}
	if amount != "" {
		metadata["amount"] = amount
	}
	req, err := env.svc.CreateApprovalRequest(context.Background(), CreateApprovalRequestInput{
		TenantID:    env.tenantID,
		CompanyID:   env.companyID,
		EntityType:  model.EntityTypeInvoice,
		EntityID:    entityID,
		RequestedBy: env.requester,
		Metadata:    metadata,
	})
	require.NoError(t, err)
	return req
}

func (env *engineEnv) pendingFor(t *testing.T, approverID uuid.UUID) []model.Approval {
	t.Helper()
	rows, err := env.svc.ListPendingApprovals(context.Background(), env.tenantID, approverID)
	require.NoError(t, err)
	return rows
}

func (env *engineEnv) act(tenant uuid.UUID, approvalID, actorID uuid.UUID, action string) (*model.ApprovalRequest, error) {
	return env.svc.ProcessApprovalAction(context.Background(), ApprovalActionInput{
		TenantID:   tenant,
		ApprovalID: approvalID,
		ActorID:    actorID,
		Action:     action,
	})
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func TestCreateApprovalRequestNoWorkflowApplies(t *testing.T) {
	env := newEngineEnv(t)

	req, err := env.svc.CreateApprovalRequest(context.Background(), CreateApprovalRequestInput{
		TenantID:    env.tenantID,
		CompanyID:   env.companyID,
		EntityType:  model.EntityTypeInvoice,
		EntityID:    uuid.New(),
		RequestedBy: env.requester,
	})
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestCreateApprovalRequestRejectsDuplicateActive(t *testing.T) {
	env := newEngineEnv(t)
	env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "invoice approval",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
		},
	})

	entityID := uuid.New()
	first := env.createRequest(t, entityID, "100")
	require.NotNil(t, first)
	assert.Equal(t, model.RequestStatusPending, first.Status)

	_, err := env.svc.CreateApprovalRequest(context.Background(), CreateApprovalRequestInput{
		TenantID:    env.tenantID,
		CompanyID:   env.companyID,
		EntityType:  model.EntityTypeInvoice,
		EntityID:    entityID,
		RequestedBy: env.requester,
	})
	assert.ErrorIs(t, err, ErrDuplicateActiveRequest)
}

// blindRequestRepo never sees existing active requests, simulating two
// concurrent submits that both pass the duplicate check before inserting.
type blindRequestRepo struct {
	*memRequestRepo
}

func (r blindRequestRepo) FindActiveByEntity(context.Context, uuid.UUID, string, uuid.UUID) (*model.ApprovalRequest, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestConcurrentSubmitsHitUniqueActiveIndex(t *testing.T) {
	env := newEngineEnv(t)
	env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "invoice approval",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
		},
	})

	store := NewWorkflowDefinitionStore(env.defs, NewConditionEvaluator())
	resolver := NewApproverResolver(env.users)
	svc := NewApprovalService(
		blindRequestRepo{env.requests}, env.approvals, env.defs, store, resolver,
		env.audit, fakeTxManager{}, env.notifier, env.callbacks, zerolog.Nop(),
	)

	entityID := uuid.New()
	input := CreateApprovalRequestInput{
		TenantID:    env.tenantID,
		CompanyID:   env.companyID,
		EntityType:  model.EntityTypeInvoice,
		EntityID:    entityID,
		RequestedBy: env.requester,
		Metadata:    model.JSONMap{"amount": "100"},
	}

	first, err := svc.CreateApprovalRequest(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, first)

	// The second submit slips past the duplicate check but the unique
	// index on active requests still stops it.
	_, err = svc.CreateApprovalRequest(context.Background(), input)
	assert.ErrorIs(t, err, ErrDuplicateActiveRequest)
}

func TestSequentialStepsAdvanceInOrder(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "two stage",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyAllRequired,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
			{StepOrder: 2, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	entityID := uuid.New()
	req := env.createRequest(t, entityID, "100")
	require.NotNil(t, req)
	assert.Equal(t, 1, req.CurrentStepOrder)

	// Only the first step group is materialized.
	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)
	assert.Empty(t, env.pendingFor(t, cfoID))

	// The CFO cannot act on the manager's approval.
	_, err := env.act(env.tenantID, managerInbox[0].ID, cfoID, ApprovalActionApprove)
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, updated.Status)
	assert.Equal(t, 2, updated.CurrentStepOrder)

	cfoInbox := env.pendingFor(t, cfoID)
	require.Len(t, cfoInbox, 1)

	final, err := env.act(env.tenantID, cfoInbox[0].ID, cfoID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, final.Status)
	require.NotNil(t, final.CompletedAt)

	env.outcomes.mu.Lock()
	defer env.outcomes.mu.Unlock()
	require.Len(t, env.outcomes.outcomes, 1)
	assert.Equal(t, OutcomeApproved, env.outcomes.outcomes[0])
	assert.Equal(t, entityID, env.outcomes.entities[0])
}

func TestApprovalCannotBeDecidedTwice(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "two stage",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyAllRequired,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
			{StepOrder: 2, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	env.createRequest(t, uuid.New(), "100")
	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)

	_, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)

	_, err = env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, env.pendingFor(t, managerID))
	assert.Len(t, env.pendingFor(t, cfoID), 1)
}

func TestRejectionIsTerminalForRequest(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "parallel review",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyAllRequired,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	entityID := uuid.New()
	env.createRequest(t, entityID, "100")
	managerInbox := env.pendingFor(t, managerID)
	cfoInbox := env.pendingFor(t, cfoID)
	require.Len(t, managerInbox, 1)
	require.Len(t, cfoInbox, 1)

	rejected, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionReject)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, rejected.Status)

	// The sibling approval is cancelled, not left pending.
	assert.Empty(t, env.pendingFor(t, cfoID))
	sibling, err := env.approvals.FindByID(context.Background(), cfoInbox[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionCancelled, sibling.Decision)

	_, err = env.act(env.tenantID, cfoInbox[0].ID, cfoID, ApprovalActionApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	env.outcomes.mu.Lock()
	defer env.outcomes.mu.Unlock()
	require.Len(t, env.outcomes.outcomes, 1)
	assert.Equal(t, OutcomeRejected, env.outcomes.outcomes[0])
	assert.Equal(t, entityID, env.outcomes.entities[0])
}

func TestOptionalApproverRejectionIsAdvisory(t *testing.T) {
	env := newEngineEnv(t)
	advisorID := env.addUser(t, "advisor", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "advisory review",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyAllRequired,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "advisor", IsRequired: false},
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	env.createRequest(t, uuid.New(), "100")
	advisorInbox := env.pendingFor(t, advisorID)
	cfoInbox := env.pendingFor(t, cfoID)
	require.Len(t, advisorInbox, 1)
	require.Len(t, cfoInbox, 1)

	// A non-required approver's rejection is recorded but does not
	// terminate the request.
	after, err := env.act(env.tenantID, advisorInbox[0].ID, advisorID, ApprovalActionReject)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, after.Status)

	rejected, err := env.approvals.FindByID(context.Background(), advisorInbox[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionRejected, rejected.Decision)

	require.Len(t, env.pendingFor(t, cfoID), 1)
	final, err := env.act(env.tenantID, cfoInbox[0].ID, cfoID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, final.Status)

	env.outcomes.mu.Lock()
	defer env.outcomes.mu.Unlock()
	require.Len(t, env.outcomes.outcomes, 1)
	assert.Equal(t, OutcomeApproved, env.outcomes.outcomes[0])
}

func TestParallelAllRequiredWaitsForEveryApprover(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "parallel review",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyAllRequired,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	env.createRequest(t, uuid.New(), "100")
	managerInbox := env.pendingFor(t, managerID)
	cfoInbox := env.pendingFor(t, cfoID)
	require.Len(t, managerInbox, 1)
	require.Len(t, cfoInbox, 1)

	partial, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, partial.Status)

	final, err := env.act(env.tenantID, cfoInbox[0].ID, cfoID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, final.Status)
}

func TestParallelFirstResponseCompletesOnOneApproval(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "either reviewer",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyFirstResponse,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	env.createRequest(t, uuid.New(), "100")
	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)
	require.Len(t, env.pendingFor(t, cfoID), 1)

	final, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, final.Status)
}

func TestFirstResponseCancelsLosingSiblings(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	supervisorID := env.addUser(t, "supervisor", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "race then cfo",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyFirstResponse,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "supervisor", IsRequired: true},
			{StepOrder: 2, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	req := env.createRequest(t, uuid.New(), "100")
	require.NotNil(t, req)
	managerInbox := env.pendingFor(t, managerID)
	supervisorInbox := env.pendingFor(t, supervisorID)
	require.Len(t, managerInbox, 1)
	require.Len(t, supervisorInbox, 1)

	advanced, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, advanced.Status)
	assert.Equal(t, 2, advanced.CurrentStepOrder)

	// The losing sibling is cancelled, not left actionable at a stale order.
	assert.Empty(t, env.pendingFor(t, supervisorID))
	loser, err := env.approvals.FindByID(context.Background(), supervisorInbox[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionCancelled, loser.Decision)

	_, err = env.act(env.tenantID, supervisorInbox[0].ID, supervisorID, ApprovalActionApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// The second order was activated exactly once.
	cfoInbox := env.pendingFor(t, cfoID)
	require.Len(t, cfoInbox, 1)
	rows, err := env.approvals.ListByRequestAndOrder(context.Background(), req.ID, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAutoApprovalBelowEveryThreshold(t *testing.T) {
	env := newEngineEnv(t)
	env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:         "small amounts skip review",
		EntityType:   model.EntityTypeInvoice,
		AutoApproval: true,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true, AmountThreshold: decPtr("1000")},
		},
	})

	entityID := uuid.New()
	req := env.createRequest(t, entityID, "500")
	require.NotNil(t, req)
	assert.Equal(t, model.RequestStatusCompleted, req.Status)
	require.NotNil(t, req.CompletedAt)

	rows, err := env.approvals.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.SystemApproverID, rows[0].ApproverID)
	assert.Equal(t, model.DecisionApproved, rows[0].Decision)

	env.outcomes.mu.Lock()
	defer env.outcomes.mu.Unlock()
	require.Len(t, env.outcomes.outcomes, 1)
	assert.Equal(t, OutcomeApproved, env.outcomes.outcomes[0])

	// At or above the threshold the workflow runs normally.
	above := env.createRequest(t, uuid.New(), "1000")
	require.NotNil(t, above)
	assert.Equal(t, model.RequestStatusPending, above.Status)
}

func TestEscalationReplacesApprovalExactlyOnce(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	directorID := env.addUser(t, "director", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "escalating review",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyAllRequired,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true, EscalationHours: intPtr(24)},
		},
		EscalationRules: []model.EscalationRule{
			{EscalateToRole: "director"},
		},
	})

	env.createRequest(t, uuid.New(), "100")
	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)

	escalated, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionEscalate)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusEscalated, escalated.Status)

	directorInbox := env.pendingFor(t, directorID)
	require.Len(t, directorInbox, 1)
	assert.True(t, directorInbox[0].IsEscalation)
	assert.Equal(t, managerInbox[0].StepOrder, directorInbox[0].StepOrder)
	assert.Equal(t, managerInbox[0].IsRequired, directorInbox[0].IsRequired)
	require.NotNil(t, directorInbox[0].EscalationHours)
	assert.Equal(t, 24, *directorInbox[0].EscalationHours)

	// The original row is decided; escalating it again is rejected.
	_, err = env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionEscalate)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	final, err := env.act(env.tenantID, directorInbox[0].ID, directorID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, final.Status)
}

func TestEscalationWithoutRuleLeavesApprovalActionable(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "no escalation path",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
		},
	})

	env.createRequest(t, uuid.New(), "100")
	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)

	_, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionEscalate)
	assert.ErrorIs(t, err, ErrNoApproverFound)

	// Resolution runs before the decision flips, so the approval survives
	// the failed escalation and can still be approved.
	require.Len(t, env.pendingFor(t, managerID), 1)
	final, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, final.Status)
}

func TestRequiredStepWithoutApproverStallsRequest(t *testing.T) {
	env := newEngineEnv(t)
	// No user carries the "manager" role.
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "unstaffed review",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
		},
	})

	req := env.createRequest(t, uuid.New(), "100")
	require.NotNil(t, req)
	assert.Equal(t, model.RequestStatusPending, req.Status)

	rows, err := env.approvals.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	stalled, err := env.svc.ListStalledRequests(context.Background(), env.tenantID)
	require.NoError(t, err)
	require.Len(t, stalled, 1)
	assert.Equal(t, req.ID, stalled[0].ID)
}

func TestOptionalStepWithoutApproverIsSkipped(t *testing.T) {
	env := newEngineEnv(t)
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "optional reviewer",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyAllRequired,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "advisor", IsRequired: false},
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	req := env.createRequest(t, uuid.New(), "100")
	require.NotNil(t, req)
	assert.Equal(t, model.RequestStatusPending, req.Status)

	cfoInbox := env.pendingFor(t, cfoID)
	require.Len(t, cfoInbox, 1)

	final, err := env.act(env.tenantID, cfoInbox[0].ID, cfoID, ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, final.Status)
}

func TestAmountBasedGroupCollapsesToOneBracket(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "amount brackets",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeAmountBased, Role: "manager", IsRequired: true, AmountThreshold: decPtr("0")},
			{StepOrder: 1, ApproverType: model.ApproverTypeAmountBased, Role: "cfo", IsRequired: true, AmountThreshold: decPtr("1000")},
		},
	})

	req := env.createRequest(t, uuid.New(), "5000")
	require.NotNil(t, req)

	// The 1000 bracket is the greatest threshold at or below 5000, so only
	// the CFO gets an approval row.
	assert.Empty(t, env.pendingFor(t, managerID))
	cfoInbox := env.pendingFor(t, cfoID)
	require.Len(t, cfoInbox, 1)

	rows, err := env.approvals.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAutoApproveStepIsDecidedBySystem(t *testing.T) {
	env := newEngineEnv(t)
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "pre-check then review",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "bot", IsRequired: true, AutoApprove: true},
			{StepOrder: 2, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	req := env.createRequest(t, uuid.New(), "100")
	require.NotNil(t, req)
	assert.Equal(t, model.RequestStatusPending, req.Status)
	assert.Equal(t, 2, req.CurrentStepOrder)

	rows, err := env.approvals.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.SystemApproverID, rows[0].ApproverID)
	assert.Equal(t, model.DecisionApproved, rows[0].Decision)

	cfoInbox := env.pendingFor(t, cfoID)
	require.Len(t, cfoInbox, 1)
}

func TestPendingApprovalNotificationsGoOut(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	cfoID := env.addUser(t, "cfo", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:           "two stage",
		EntityType:     model.EntityTypeInvoice,
		ApprovalPolicy: model.PolicyAllRequired,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true, EscalationHours: intPtr(8)},
			{StepOrder: 2, ApproverType: model.ApproverTypeRole, Role: "cfo", IsRequired: true},
		},
	})

	env.createRequest(t, uuid.New(), "100")

	env.notifier.mu.Lock()
	require.Len(t, env.notifier.approvers, 1)
	assert.Equal(t, managerID, env.notifier.approvers[0])
	require.NotNil(t, env.notifier.notifications[0].DueBy)
	env.notifier.mu.Unlock()

	managerInbox := env.pendingFor(t, managerID)
	_, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)

	env.notifier.mu.Lock()
	defer env.notifier.mu.Unlock()
	require.Len(t, env.notifier.approvers, 2)
	assert.Equal(t, cfoID, env.notifier.approvers[1])
}

func TestRequestScopedToTenant(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "invoice approval",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
		},
	})

	env.createRequest(t, uuid.New(), "100")
	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)

	// A different tenant cannot see or act on the approval.
	_, err := env.act(uuid.New(), managerInbox[0].ID, managerID, ApprovalActionApprove)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}
