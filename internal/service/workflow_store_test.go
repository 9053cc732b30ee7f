package service

import (
	"context"
	"testing"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreEnv(t *testing.T) (uuid.UUID, *memDefRepo, *WorkflowDefinitionStore) {
	t.Helper()
	defs := newMemDefRepo()
	return uuid.New(), defs, NewWorkflowDefinitionStore(defs, NewConditionEvaluator())
}

func seedDef(t *testing.T, defs *memDefRepo, def *model.WorkflowDefinition) *model.WorkflowDefinition {
	t.Helper()
	require.NoError(t, defs.Create(context.Background(), def))
	return def
}

func TestFindApplicableNothingConfigured(t *testing.T) {
	tenantID, _, store := newStoreEnv(t)

	def, err := store.FindApplicable(context.Background(), tenantID, model.EntityTypeInvoice, "", nil)
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestFindApplicableHighestPriorityWins(t *testing.T) {
	tenantID, defs, store := newStoreEnv(t)
	seedDef(t, defs, &model.WorkflowDefinition{
		TenantID: tenantID, Name: "low", EntityType: model.EntityTypeInvoice, Priority: 1, IsActive: true,
	})
	high := seedDef(t, defs, &model.WorkflowDefinition{
		TenantID: tenantID, Name: "high", EntityType: model.EntityTypeInvoice, Priority: 10, IsActive: true,
	})

	def, err := store.FindApplicable(context.Background(), tenantID, model.EntityTypeInvoice, "", nil)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, high.ID, def.ID)
}

func TestFindApplicableConditionGates(t *testing.T) {
	tenantID, defs, store := newStoreEnv(t)
	conditioned := seedDef(t, defs, &model.WorkflowDefinition{
		TenantID: tenantID, Name: "large invoices", EntityType: model.EntityTypeInvoice, Priority: 10, IsActive: true,
		Conditions: []model.WorkflowCondition{
			{Field: "amount", Operator: model.OpGreaterThan, Value: "1000"},
		},
	})
	fallback := seedDef(t, defs, &model.WorkflowDefinition{
		TenantID: tenantID, Name: "default", EntityType: model.EntityTypeInvoice, Priority: 0, IsDefault: true, IsActive: true,
	})

	def, err := store.FindApplicable(context.Background(), tenantID, model.EntityTypeInvoice, "", model.JSONMap{"amount": "5000"})
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, conditioned.ID, def.ID)

	// Condition fails: the default definition catches the request.
	def, err = store.FindApplicable(context.Background(), tenantID, model.EntityTypeInvoice, "", model.JSONMap{"amount": "500"})
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, fallback.ID, def.ID)
}

func TestFindApplicableNoMatchAndNoDefault(t *testing.T) {
	tenantID, defs, store := newStoreEnv(t)
	seedDef(t, defs, &model.WorkflowDefinition{
		TenantID: tenantID, Name: "large invoices", EntityType: model.EntityTypeInvoice, Priority: 10, IsActive: true,
		Conditions: []model.WorkflowCondition{
			{Field: "amount", Operator: model.OpGreaterThan, Value: "1000"},
		},
	})

	def, err := store.FindApplicable(context.Background(), tenantID, model.EntityTypeInvoice, "", model.JSONMap{"amount": "500"})
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestFindApplicableFiltersSubType(t *testing.T) {
	tenantID, defs, store := newStoreEnv(t)
	scoped := seedDef(t, defs, &model.WorkflowDefinition{
		TenantID: tenantID, Name: "credit notes", EntityType: model.EntityTypeInvoice, EntitySubType: "CREDIT_NOTE", Priority: 10, IsActive: true,
	})

	def, err := store.FindApplicable(context.Background(), tenantID, model.EntityTypeInvoice, "CREDIT_NOTE", nil)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, scoped.ID, def.ID)

	def, err = store.FindApplicable(context.Background(), tenantID, model.EntityTypeInvoice, "STANDARD", nil)
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestFindApplicableIgnoresInactiveAndOtherTenants(t *testing.T) {
	tenantID, defs, store := newStoreEnv(t)
	seedDef(t, defs, &model.WorkflowDefinition{
		TenantID: tenantID, Name: "disabled", EntityType: model.EntityTypeInvoice, Priority: 10, IsActive: false,
	})
	seedDef(t, defs, &model.WorkflowDefinition{
		TenantID: uuid.New(), Name: "other tenant", EntityType: model.EntityTypeInvoice, Priority: 10, IsActive: true,
	})

	def, err := store.FindApplicable(context.Background(), tenantID, model.EntityTypeInvoice, "", nil)
	require.NoError(t, err)
	assert.Nil(t, def)
}
