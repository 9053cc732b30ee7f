package service

import (
	"fmt"
	"strings"

	"erpapi/internal/model"

	"github.com/shopspring/decimal"
)

// ConditionEvaluator decides whether a workflow definition applies to a
// request by checking its conditions against the request metadata.
// All conditions must hold (AND semantics); an empty list is vacuously true.
type ConditionEvaluator struct{}

func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{}
}

// Evaluate returns true when every condition holds against the metadata.
// A missing field fails its condition (fail-closed) unless the condition is
// marked optional.
func (e *ConditionEvaluator) Evaluate(conditions []model.WorkflowCondition, metadata model.JSONMap) bool {
	for _, cond := range conditions {
		value, ok := lookupPath(metadata, cond.Field)
		if !ok {
			if cond.Optional {
				continue
			}
			return false
		}
		if !compare(value, cond.Operator, cond.Value) {
			return false
		}
	}
	return true
}

// lookupPath walks a dotted path ("vendor.country") through nested maps.
func lookupPath(metadata model.JSONMap, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = map[string]interface{}(metadata)

	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// compare applies the operator. Both sides are compared numerically when
// they parse as decimals; otherwise equality operators fall back to string
// comparison and the relational operators fail.
func compare(value interface{}, operator, expected string) bool {
	actual := toString(value)

	actualNum, actualErr := toDecimal(value)
	expectedNum, expectedErr := decimal.NewFromString(expected)
	numeric := actualErr == nil && expectedErr == nil

	switch operator {
	case model.OpEquals:
		if numeric {
			return actualNum.Equal(expectedNum)
		}
		return actual == expected
	case model.OpNotEquals:
		if numeric {
			return !actualNum.Equal(expectedNum)
		}
		return actual != expected
	case model.OpGreaterThan:
		return numeric && actualNum.GreaterThan(expectedNum)
	case model.OpLessThan:
		return numeric && actualNum.LessThan(expectedNum)
	case model.OpGreaterOrEqual:
		return numeric && actualNum.GreaterThanOrEqual(expectedNum)
	case model.OpLessOrEqual:
		return numeric && actualNum.LessThanOrEqual(expectedNum)
	case model.OpContains:
		return strings.Contains(actual, expected)
	default:
		return false
	}
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Zero, fmt.Errorf("not a number: %T", value)
	}
}

// MetadataAmount extracts the conventional "amount" metadata field.
func MetadataAmount(metadata model.JSONMap) (decimal.Decimal, bool) {
	value, ok := lookupPath(metadata, "amount")
	if !ok {
		return decimal.Zero, false
	}
	amount, err := toDecimal(value)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
