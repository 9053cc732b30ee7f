package service

import (
	"context"
	"testing"
	"time"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerEscalatesOverdueApproval(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	directorID := env.addUser(t, "director", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "timed review",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true, EscalationHours: intPtr(1)},
		},
		EscalationRules: []model.EscalationRule{
			{EscalateToRole: "director"},
		},
	})

	req := env.createRequest(t, uuid.New(), "100")
	require.NotNil(t, req)
	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)

	scheduler := NewEscalationScheduler(env.approvals, env.svc, zerolog.Nop())

	// Not yet overdue: the sweep leaves everything untouched.
	scheduler.Tick(context.Background(), time.Now())
	require.Len(t, env.pendingFor(t, managerID), 1)
	assert.Empty(t, env.pendingFor(t, directorID))

	// Push the approval past its time budget.
	env.approvals.backdate(managerInbox[0].ID, 2*time.Hour)
	scheduler.Tick(context.Background(), time.Now())

	assert.Empty(t, env.pendingFor(t, managerID))
	directorInbox := env.pendingFor(t, directorID)
	require.Len(t, directorInbox, 1)
	assert.True(t, directorInbox[0].IsEscalation)

	escalated, err := env.svc.GetRequest(context.Background(), env.tenantID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusEscalated, escalated.Status)

	// The replacement row's clock starts fresh, so an immediate second sweep
	// is a no-op.
	scheduler.Tick(context.Background(), time.Now())
	rows, err := env.approvals.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	require.Len(t, env.pendingFor(t, directorID), 1)
}

func TestSchedulerSkipsApprovalWithoutEscalationTarget(t *testing.T) {
	env := newEngineEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "timed review without fallback",
		EntityType: model.EntityTypeInvoice,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true, EscalationHours: intPtr(1)},
		},
	})

	env.createRequest(t, uuid.New(), "100")
	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)

	env.approvals.backdate(managerInbox[0].ID, 2*time.Hour)
	scheduler := NewEscalationScheduler(env.approvals, env.svc, zerolog.Nop())
	scheduler.Tick(context.Background(), time.Now())

	// No escalation rule: the approval stays pending and actionable.
	require.Len(t, env.pendingFor(t, managerID), 1)
	_, err := env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)
}
