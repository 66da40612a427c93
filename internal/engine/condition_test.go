package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierpulse/pkg/cel"
	"courierpulse/pkg/models"
)

func newTestParser(t *testing.T) *ConditionParser {
	t.Helper()
	evaluator, err := cel.NewEvaluator()
	require.NoError(t, err)
	return NewConditionParser(evaluator)
}

func parseCondition(t *testing.T, raw string) *Condition {
	t.Helper()
	cond, err := newTestParser(t).Parse([]byte(raw))
	require.NoError(t, err)
	return cond
}

func testEvent(attrs map[string]interface{}) models.EventEnvelope {
	return models.EventEnvelope{
		ID:         "evt-1",
		Source:     "orders",
		Type:       "order_status_changed",
		Timestamp:  time.Now(),
		Attributes: attrs,
	}
}

func evaluate(t *testing.T, cond *Condition, attrs map[string]interface{}) (bool, Diagnostics) {
	t.Helper()
	var diags Diagnostics
	result := cond.Evaluate(context.Background(), testEvent(attrs), &diags)
	return result, diags
}

func TestCondition_AtomicEquals(t *testing.T) {
	cond := parseCondition(t, `{"type":"atomic","field":"order_status","operator":"equals","value":"delayed"}`)

	result, diags := evaluate(t, cond, map[string]interface{}{"order_status": "delayed"})
	assert.True(t, result)
	assert.Empty(t, diags)

	result, _ = evaluate(t, cond, map[string]interface{}{"order_status": "delivered"})
	assert.False(t, result)
}

func TestCondition_EqualsIsCaseInsensitive(t *testing.T) {
	cond := parseCondition(t, `{"type":"atomic","field":"order_status","operator":"equals","value":"Delayed"}`)

	result, _ := evaluate(t, cond, map[string]interface{}{"order_status": "DELAYED"})
	assert.True(t, result)
}

func TestCondition_MissingFieldIsFalseNotError(t *testing.T) {
	cond := parseCondition(t, `{"type":"atomic","field":"postal_code","operator":"equals","value":"1011"}`)

	result, diags := evaluate(t, cond, map[string]interface{}{"order_status": "delayed"})
	assert.False(t, result)
	require.Len(t, diags, 1)
	assert.Equal(t, "postal_code", diags[0].Field)
}

func TestCondition_MissingFieldInsideOrStillMatchesOtherBranch(t *testing.T) {
	cond := parseCondition(t, `{
		"type": "or",
		"children": [
			{"type":"atomic","field":"missing_field","operator":"equals","value":"x"},
			{"type":"atomic","field":"order_status","operator":"equals","value":"delayed"}
		]
	}`)

	result, _ := evaluate(t, cond, map[string]interface{}{"order_status": "delayed"})
	assert.True(t, result)
}

func TestCondition_TypeMismatchIsFalseWithDiagnostic(t *testing.T) {
	cond := parseCondition(t, `{"type":"atomic","field":"order_value","operator":"greater_than","value":100}`)

	result, diags := evaluate(t, cond, map[string]interface{}{"order_value": map[string]interface{}{"amount": 10}})
	assert.False(t, result)
	assert.NotEmpty(t, diags)
}

func TestCondition_UncomparableOperandsAreFalseNotPanic(t *testing.T) {
	equals := parseCondition(t, `{"type":"atomic","field":"tags","operator":"equals","value":["a","b"]}`)

	result, diags := evaluate(t, equals, map[string]interface{}{"tags": []interface{}{"a", "b"}})
	assert.False(t, result)
	require.Len(t, diags, 1)
	assert.Equal(t, "tags", diags[0].Field)

	notEquals := parseCondition(t, `{"type":"atomic","field":"tags","operator":"not_equals","value":["a","b"]}`)
	result, diags = evaluate(t, notEquals, map[string]interface{}{"tags": []interface{}{"a", "b"}})
	assert.False(t, result)
	assert.NotEmpty(t, diags)

	in := parseCondition(t, `{"type":"atomic","field":"tags","operator":"in","value":[["a"],["b"]]}`)
	result, _ = evaluate(t, in, map[string]interface{}{"tags": []interface{}{"a"}})
	assert.False(t, result)
}

func TestCondition_NumericComparisons(t *testing.T) {
	gt := parseCondition(t, `{"type":"atomic","field":"order_value","operator":"greater_than","value":100}`)
	lt := parseCondition(t, `{"type":"atomic","field":"order_value","operator":"less_than","value":100}`)

	result, _ := evaluate(t, gt, map[string]interface{}{"order_value": 120.0})
	assert.True(t, result)
	result, _ = evaluate(t, gt, map[string]interface{}{"order_value": 100.0})
	assert.False(t, result)
	result, _ = evaluate(t, lt, map[string]interface{}{"order_value": 99.5})
	assert.True(t, result)
}

func TestCondition_DateComparison(t *testing.T) {
	cond := parseCondition(t, `{"type":"atomic","field":"promised_at","operator":"less_than","value":"2026-01-15T00:00:00Z"}`)

	result, _ := evaluate(t, cond, map[string]interface{}{"promised_at": "2026-01-10T12:00:00Z"})
	assert.True(t, result)
	result, _ = evaluate(t, cond, map[string]interface{}{"promised_at": "2026-02-01T12:00:00Z"})
	assert.False(t, result)
}

func TestCondition_InAndNotIn(t *testing.T) {
	in := parseCondition(t, `{"type":"atomic","field":"order_status","operator":"in","value":["delayed","lost"]}`)
	notIn := parseCondition(t, `{"type":"atomic","field":"order_status","operator":"not_in","value":["delayed","lost"]}`)

	result, _ := evaluate(t, in, map[string]interface{}{"order_status": "lost"})
	assert.True(t, result)
	result, _ = evaluate(t, in, map[string]interface{}{"order_status": "delivered"})
	assert.False(t, result)
	result, _ = evaluate(t, notIn, map[string]interface{}{"order_status": "delivered"})
	assert.True(t, result)
}

func TestCondition_Contains(t *testing.T) {
	onString := parseCondition(t, `{"type":"atomic","field":"remark","operator":"contains","value":"fragile"}`)
	onList := parseCondition(t, `{"type":"atomic","field":"tags","operator":"contains","value":"express"}`)

	result, _ := evaluate(t, onString, map[string]interface{}{"remark": "Handle with care, FRAGILE goods"})
	assert.True(t, result)
	result, _ = evaluate(t, onList, map[string]interface{}{"tags": []interface{}{"express", "insured"}})
	assert.True(t, result)
	result, _ = evaluate(t, onList, map[string]interface{}{"tags": []interface{}{"standard"}})
	assert.False(t, result)
}

func TestCondition_Between(t *testing.T) {
	cond := parseCondition(t, `{"type":"atomic","field":"order_value","operator":"between","value":[50,150]}`)

	for value, expected := range map[float64]bool{49.9: false, 50: true, 100: true, 150: true, 150.1: false} {
		result, _ := evaluate(t, cond, map[string]interface{}{"order_value": value})
		assert.Equal(t, expected, result, "order_value=%v", value)
	}
}

func TestCondition_EmptyAndIsTrue_EmptyOrIsFalse(t *testing.T) {
	and := parseCondition(t, `{"type":"and","children":[]}`)
	or := parseCondition(t, `{"type":"or","children":[]}`)

	result, _ := evaluate(t, and, map[string]interface{}{})
	assert.True(t, result)
	result, _ = evaluate(t, or, map[string]interface{}{})
	assert.False(t, result)
}

func TestCondition_DoubleNegationIsIdentity(t *testing.T) {
	inner := `{"type":"atomic","field":"order_status","operator":"equals","value":"delayed"}`
	plain := parseCondition(t, inner)
	doubled := parseCondition(t, `{"type":"not","child":{"type":"not","child":`+inner+`}}`)

	for _, attrs := range []map[string]interface{}{
		{"order_status": "delayed"},
		{"order_status": "delivered"},
		{},
	} {
		plainResult, _ := evaluate(t, plain, attrs)
		doubledResult, _ := evaluate(t, doubled, attrs)
		assert.Equal(t, plainResult, doubledResult, "attrs=%v", attrs)
	}
}

func TestCondition_AndOrNesting(t *testing.T) {
	cond := parseCondition(t, `{
		"type": "and",
		"children": [
			{"type":"atomic","field":"order_status","operator":"equals","value":"delayed"},
			{"type":"atomic","field":"order_value","operator":"greater_than","value":100}
		]
	}`)

	result, _ := evaluate(t, cond, map[string]interface{}{"order_status": "delayed", "order_value": 120.0})
	assert.True(t, result)
	result, _ = evaluate(t, cond, map[string]interface{}{"order_status": "delayed", "order_value": 80.0})
	assert.False(t, result)
}

func TestCondition_ExprNode(t *testing.T) {
	cond := parseCondition(t, `{"type":"expr","expression":"double(attributes.order_value) > 100.0 && attributes.order_status == 'delayed'"}`)

	result, diags := evaluate(t, cond, map[string]interface{}{"order_status": "delayed", "order_value": 120.0})
	assert.True(t, result)
	assert.Empty(t, diags)

	result, _ = evaluate(t, cond, map[string]interface{}{"order_status": "delivered", "order_value": 120.0})
	assert.False(t, result)
}

func TestCondition_ExprSeesEnvelopeFields(t *testing.T) {
	cond := parseCondition(t, `{"type":"expr","expression":"event_type == 'order_status_changed' && source == 'orders' && id != ''"}`)

	result, diags := evaluate(t, cond, map[string]interface{}{})
	assert.True(t, result)
	assert.Empty(t, diags)
}

func TestCondition_ExprRuntimeErrorIsFalseWithDiagnostic(t *testing.T) {
	cond := parseCondition(t, `{"type":"expr","expression":"double(attributes.order_value) > 100.0"}`)

	result, diags := evaluate(t, cond, map[string]interface{}{})
	assert.False(t, result)
	assert.NotEmpty(t, diags)
}

func TestConditionParser_RejectsUnknownOperator(t *testing.T) {
	_, err := newTestParser(t).Parse([]byte(`{"type":"atomic","field":"x","operator":"matches_regex","value":".*"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operator")
}

func TestConditionParser_RejectsUnknownNodeType(t *testing.T) {
	_, err := newTestParser(t).Parse([]byte(`{"type":"xor","children":[]}`))
	require.Error(t, err)
}

func TestConditionParser_RejectsBadBetweenOperand(t *testing.T) {
	_, err := newTestParser(t).Parse([]byte(`{"type":"atomic","field":"x","operator":"between","value":[1]}`))
	require.Error(t, err)
}

func TestConditionParser_RejectsInvalidExpression(t *testing.T) {
	_, err := newTestParser(t).Parse([]byte(`{"type":"expr","expression":"attributes.order_value +"}`))
	require.Error(t, err)
}

func TestCondition_DeterministicEvaluation(t *testing.T) {
	cond := parseCondition(t, `{
		"type": "or",
		"children": [
			{"type":"atomic","field":"order_status","operator":"in","value":["delayed","lost"]},
			{"type":"not","child":{"type":"atomic","field":"courier_id","operator":"equals","value":"courier-a"}}
		]
	}`)
	attrs := map[string]interface{}{"order_status": "delivered", "courier_id": "courier-a"}

	first, _ := evaluate(t, cond, attrs)
	for i := 0; i < 10; i++ {
		again, _ := evaluate(t, cond, attrs)
		assert.Equal(t, first, again)
	}
}
