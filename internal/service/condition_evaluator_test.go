package service

import (
	"testing"

	"erpapi/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateNumericOperators(t *testing.T) {
	e := NewConditionEvaluator()
	metadata := model.JSONMap{"amount": "1500.50"}

	cases := []struct {
		name     string
		operator string
		value    string
		want     bool
	}{
		{"greater than below", model.OpGreaterThan, "1000", true},
		{"greater than above", model.OpGreaterThan, "2000", false},
		{"less than", model.OpLessThan, "2000", true},
		{"greater or equal exact", model.OpGreaterOrEqual, "1500.50", true},
		{"less or equal exact", model.OpLessOrEqual, "1500.50", true},
		{"equals", model.OpEquals, "1500.5", true},
		{"not equals", model.OpNotEquals, "1500.5", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conds := []model.WorkflowCondition{{Field: "amount", Operator: tc.operator, Value: tc.value}}
			assert.Equal(t, tc.want, e.Evaluate(conds, metadata))
		})
	}
}

func TestEvaluateNumericComparisonIgnoresFormatting(t *testing.T) {
	e := NewConditionEvaluator()

	// "1500.00" and "1500" are the same number, not the same string.
	conds := []model.WorkflowCondition{{Field: "amount", Operator: model.OpEquals, Value: "1500"}}
	assert.True(t, e.Evaluate(conds, model.JSONMap{"amount": "1500.00"}))
	assert.True(t, e.Evaluate(conds, model.JSONMap{"amount": float64(1500)}))
}

func TestEvaluateStringOperators(t *testing.T) {
	e := NewConditionEvaluator()
	metadata := model.JSONMap{"category": "TRAVEL_INTL"}

	assert.True(t, e.Evaluate([]model.WorkflowCondition{
		{Field: "category", Operator: model.OpEquals, Value: "TRAVEL_INTL"},
	}, metadata))
	assert.True(t, e.Evaluate([]model.WorkflowCondition{
		{Field: "category", Operator: model.OpContains, Value: "TRAVEL"},
	}, metadata))
	assert.False(t, e.Evaluate([]model.WorkflowCondition{
		{Field: "category", Operator: model.OpContains, Value: "MEALS"},
	}, metadata))

	// Relational operators on non-numeric values fail rather than guessing.
	assert.False(t, e.Evaluate([]model.WorkflowCondition{
		{Field: "category", Operator: model.OpGreaterThan, Value: "100"},
	}, metadata))
}

func TestEvaluateAllConditionsMustHold(t *testing.T) {
	e := NewConditionEvaluator()
	metadata := model.JSONMap{"amount": "5000", "currency": "USD"}

	conds := []model.WorkflowCondition{
		{Field: "amount", Operator: model.OpGreaterThan, Value: "1000"},
		{Field: "currency", Operator: model.OpEquals, Value: "USD"},
	}
	assert.True(t, e.Evaluate(conds, metadata))

	conds[1].Value = "EUR"
	assert.False(t, e.Evaluate(conds, metadata))
}

func TestEvaluateMissingFieldFailsClosed(t *testing.T) {
	e := NewConditionEvaluator()
	metadata := model.JSONMap{"amount": "5000"}

	required := []model.WorkflowCondition{{Field: "vendor.country", Operator: model.OpEquals, Value: "US"}}
	assert.False(t, e.Evaluate(required, metadata))

	optional := []model.WorkflowCondition{{Field: "vendor.country", Operator: model.OpEquals, Value: "US", Optional: true}}
	assert.True(t, e.Evaluate(optional, metadata))
}

func TestEvaluateNestedPath(t *testing.T) {
	e := NewConditionEvaluator()
	metadata := model.JSONMap{
		"vendor": map[string]interface{}{
			"country": "DE",
			"rating":  float64(4),
		},
	}

	assert.True(t, e.Evaluate([]model.WorkflowCondition{
		{Field: "vendor.country", Operator: model.OpEquals, Value: "DE"},
	}, metadata))
	assert.True(t, e.Evaluate([]model.WorkflowCondition{
		{Field: "vendor.rating", Operator: model.OpGreaterOrEqual, Value: "4"},
	}, metadata))
	// Path through a scalar is a missing field.
	assert.False(t, e.Evaluate([]model.WorkflowCondition{
		{Field: "vendor.country.code", Operator: model.OpEquals, Value: "DE"},
	}, metadata))
}

func TestEvaluateEmptyConditionsIsTrue(t *testing.T) {
	e := NewConditionEvaluator()
	assert.True(t, e.Evaluate(nil, model.JSONMap{}))
}

func TestMetadataAmount(t *testing.T) {
	amount, ok := MetadataAmount(model.JSONMap{"amount": "1234.56"})
	require.True(t, ok)
	assert.Equal(t, "1234.56", amount.String())

	amount, ok = MetadataAmount(model.JSONMap{"amount": float64(99)})
	require.True(t, ok)
	assert.Equal(t, "99", amount.String())

	_, ok = MetadataAmount(model.JSONMap{})
	assert.False(t, ok)

	_, ok = MetadataAmount(model.JSONMap{"amount": "not-a-number"})
	assert.False(t, ok)
}
