package service

import (
	"context"
	"testing"
	"time"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *fakeUserRepo, user model.User) uuid.UUID {
	t.Helper()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	require.NoError(t, repo.Create(context.Background(), &user))
	return user.ID
}

func TestResolveRolePicksEarliestCreatedActiveUser(t *testing.T) {
	tenantID, companyID := uuid.New(), uuid.New()
	users := &fakeUserRepo{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, Role: "cfo", IsActive: true, CreatedAt: base.Add(time.Hour)})
	oldest := seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, Role: "cfo", IsActive: true, CreatedAt: base})
	// Inactive users and other tenants never win, regardless of age.
	seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, Role: "cfo", IsActive: false, CreatedAt: base.Add(-time.Hour)})
	seedUser(t, users, model.User{TenantID: uuid.New(), CompanyID: companyID, Role: "cfo", IsActive: true, CreatedAt: base.Add(-time.Hour)})

	resolver := NewApproverResolver(users)
	step := model.WorkflowStep{ApproverType: model.ApproverTypeRole, Role: "cfo"}

	got, err := resolver.Resolve(context.Background(), step, []model.WorkflowStep{step}, tenantID, companyID, nil)
	require.NoError(t, err)
	assert.Equal(t, oldest, got.ID)
}

func TestResolveRoleNoActiveUser(t *testing.T) {
	resolver := NewApproverResolver(&fakeUserRepo{})
	step := model.WorkflowStep{ApproverType: model.ApproverTypeRole, Role: "cfo"}

	_, err := resolver.Resolve(context.Background(), step, []model.WorkflowStep{step}, uuid.New(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNoApproverFound)
}

func TestResolveDirectUser(t *testing.T) {
	tenantID, companyID := uuid.New(), uuid.New()
	users := &fakeUserRepo{}
	activeID := seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, IsActive: true})
	inactiveID := seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, IsActive: false})
	foreignID := seedUser(t, users, model.User{TenantID: uuid.New(), IsActive: true})

	resolver := NewApproverResolver(users)

	step := model.WorkflowStep{ApproverType: model.ApproverTypeUser, UserID: &activeID}
	got, err := resolver.Resolve(context.Background(), step, []model.WorkflowStep{step}, tenantID, companyID, nil)
	require.NoError(t, err)
	assert.Equal(t, activeID, got.ID)

	for _, id := range []uuid.UUID{inactiveID, foreignID} {
		badID := id
		step := model.WorkflowStep{ApproverType: model.ApproverTypeUser, UserID: &badID}
		_, err := resolver.Resolve(context.Background(), step, []model.WorkflowStep{step}, tenantID, companyID, nil)
		assert.ErrorIs(t, err, ErrNoApproverFound)
	}

	step = model.WorkflowStep{ApproverType: model.ApproverTypeUser}
	_, err = resolver.Resolve(context.Background(), step, []model.WorkflowStep{step}, tenantID, companyID, nil)
	assert.ErrorIs(t, err, ErrNoApproverFound)
}

func TestResolveDepartmentHead(t *testing.T) {
	tenantID, companyID := uuid.New(), uuid.New()
	users := &fakeUserRepo{}
	seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, Department: "finance", IsActive: true})
	headID := seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, Department: "finance", IsDepartmentHead: true, IsActive: true})

	resolver := NewApproverResolver(users)
	step := model.WorkflowStep{ApproverType: model.ApproverTypeDepartment, Department: "finance"}

	got, err := resolver.Resolve(context.Background(), step, []model.WorkflowStep{step}, tenantID, companyID, nil)
	require.NoError(t, err)
	assert.Equal(t, headID, got.ID)

	step.Department = "engineering"
	_, err = resolver.Resolve(context.Background(), step, []model.WorkflowStep{step}, tenantID, companyID, nil)
	assert.ErrorIs(t, err, ErrNoApproverFound)
}

func TestSelectAmountBracket(t *testing.T) {
	group := []model.WorkflowStep{
		{StepOrder: 1, ApproverType: model.ApproverTypeAmountBased, Role: "manager", AmountThreshold: decPtr("0")},
		{StepOrder: 1, ApproverType: model.ApproverTypeAmountBased, Role: "cfo", AmountThreshold: decPtr("1000")},
		{StepOrder: 1, ApproverType: model.ApproverTypeAmountBased, Role: "board", AmountThreshold: decPtr("100000")},
	}

	cases := []struct {
		amount string
		role   string
	}{
		{"500", "manager"},
		{"1000", "cfo"},
		{"99999.99", "cfo"},
		{"250000", "board"},
	}
	for _, tc := range cases {
		bracket, err := SelectAmountBracket(group[0], group, model.JSONMap{"amount": tc.amount})
		require.NoError(t, err, "amount %s", tc.amount)
		assert.Equal(t, tc.role, bracket.Role, "amount %s", tc.amount)
	}

	// No amount in the metadata, or no bracket at or below the amount.
	_, err := SelectAmountBracket(group[0], group, model.JSONMap{})
	assert.ErrorIs(t, err, ErrNoApproverFound)

	high := []model.WorkflowStep{
		{StepOrder: 1, ApproverType: model.ApproverTypeAmountBased, Role: "board", AmountThreshold: decPtr("100000")},
	}
	_, err = SelectAmountBracket(high[0], high, model.JSONMap{"amount": "50"})
	assert.ErrorIs(t, err, ErrNoApproverFound)
}

func TestResolveEscalationPrefersStepSpecificRule(t *testing.T) {
	tenantID, companyID := uuid.New(), uuid.New()
	users := &fakeUserRepo{}
	directorID := seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, Role: "director", IsActive: true})
	ceoID := seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, Role: "ceo", IsActive: true})

	resolver := NewApproverResolver(users)
	def := &model.WorkflowDefinition{
		EscalationRules: []model.EscalationRule{
			{EscalateToRole: "ceo"},
			{StepOrder: intPtr(2), EscalateToRole: "director"},
		},
	}

	got, err := resolver.ResolveEscalation(context.Background(), def, 2, tenantID, companyID)
	require.NoError(t, err)
	assert.Equal(t, directorID, got.ID)

	// Steps without a specific rule fall back to the definition default.
	got, err = resolver.ResolveEscalation(context.Background(), def, 1, tenantID, companyID)
	require.NoError(t, err)
	assert.Equal(t, ceoID, got.ID)
}

func TestResolveEscalationDirectUserMustBeActive(t *testing.T) {
	tenantID, companyID := uuid.New(), uuid.New()
	users := &fakeUserRepo{}
	inactiveID := seedUser(t, users, model.User{TenantID: tenantID, CompanyID: companyID, IsActive: false})

	resolver := NewApproverResolver(users)
	def := &model.WorkflowDefinition{
		EscalationRules: []model.EscalationRule{{EscalateToUser: &inactiveID}},
	}

	_, err := resolver.ResolveEscalation(context.Background(), def, 1, tenantID, companyID)
	assert.ErrorIs(t, err, ErrNoApproverFound)
}

func TestResolveEscalationNoRule(t *testing.T) {
	resolver := NewApproverResolver(&fakeUserRepo{})
	_, err := resolver.ResolveEscalation(context.Background(), &model.WorkflowDefinition{}, 1, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNoApproverFound)
}
