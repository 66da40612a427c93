package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"courierpulse/internal/logger"
)

func delayedRule(t *testing.T, id string, priority int) Rule {
	t.Helper()
	return Rule{
		ID:       id,
		Name:     "rule " + id,
		IsActive: true,
		Priority: priority,
		Conditions: parseCondition(t,
			`{"type":"atomic","field":"order_status","operator":"equals","value":"delayed"}`),
		Actions: []Action{{Type: "email", Recipient: "ops@example.com", Message: "order delayed"}},
	}
}

func TestSelector_AllMatchingRulesFire(t *testing.T) {
	selector := NewSelector(logger.NopLogger())
	rules := []Rule{
		delayedRule(t, "rule-b", 5),
		delayedRule(t, "rule-a", 10),
	}
	event := testEvent(map[string]interface{}{"order_status": "delayed"})

	candidates := selector.Select(context.Background(), rules, event, time.Now())

	assert.Len(t, candidates, 2)
}

func TestSelector_OrderedByPriorityThenID(t *testing.T) {
	selector := NewSelector(logger.NopLogger())
	rules := []Rule{
		delayedRule(t, "rule-c", 5),
		delayedRule(t, "rule-a", 5),
		delayedRule(t, "rule-b", 10),
	}
	event := testEvent(map[string]interface{}{"order_status": "delayed"})

	candidates := selector.Select(context.Background(), rules, event, time.Now())

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Rule.ID)
	}
	assert.Equal(t, []string{"rule-b", "rule-a", "rule-c"}, ids)
}

func TestSelector_NoMatchNoElseActionsSkipsRule(t *testing.T) {
	selector := NewSelector(logger.NopLogger())
	rules := []Rule{delayedRule(t, "rule-a", 5)}
	event := testEvent(map[string]interface{}{"order_status": "delivered"})

	candidates := selector.Select(context.Background(), rules, event, time.Now())

	assert.Empty(t, candidates)
}

func TestSelector_ElseActionsFireOnConditionMiss(t *testing.T) {
	rule := delayedRule(t, "rule-a", 5)
	rule.ElseActions = []Action{{Type: "inapp", Recipient: "merchant-1", Message: "no delay"}}

	selector := NewSelector(logger.NopLogger())
	event := testEvent(map[string]interface{}{"order_status": "delivered"})

	candidates := selector.Select(context.Background(), []Rule{rule}, event, time.Now())

	assert.Len(t, candidates, 1)
	assert.Equal(t, MatchElse, candidates[0].Match)
	assert.Equal(t, rule.ElseActions, candidates[0].Actions)
}

func TestSelector_ElseActionsRequireStructuralMatch(t *testing.T) {
	rule := delayedRule(t, "rule-a", 5)
	rule.CourierIDs = []string{"courier-a"}
	rule.ElseActions = []Action{{Type: "inapp", Recipient: "merchant-1", Message: "no delay"}}

	selector := NewSelector(logger.NopLogger())
	event := testEvent(map[string]interface{}{"order_status": "delivered", "courier_id": "courier-z"})

	candidates := selector.Select(context.Background(), []Rule{rule}, event, time.Now())

	assert.Empty(t, candidates)
}

func TestSelector_GuardRejectsCooldown(t *testing.T) {
	now := time.Now().UTC()
	fired := now.Add(-10 * time.Minute)
	rule := delayedRule(t, "rule-a", 5)
	rule.CooldownHours = 24
	rule.LastExecutedAt = &fired

	selector := NewSelector(logger.NopLogger())
	event := testEvent(map[string]interface{}{"order_status": "delayed"})

	candidates := selector.Select(context.Background(), []Rule{rule}, event, now)

	assert.Empty(t, candidates)
}

func TestSelector_ElseMatchStillSubjectToCooldown(t *testing.T) {
	now := time.Now().UTC()
	fired := now.Add(-time.Hour)
	rule := delayedRule(t, "rule-a", 5)
	rule.CooldownHours = 24
	rule.LastExecutedAt = &fired
	rule.ElseActions = []Action{{Type: "inapp", Recipient: "merchant-1", Message: "no delay"}}

	selector := NewSelector(logger.NopLogger())
	event := testEvent(map[string]interface{}{"order_status": "delivered"})

	candidates := selector.Select(context.Background(), []Rule{rule}, event, now)

	assert.Empty(t, candidates)
}

func TestSelector_StructuralFilterShortCircuitsEvaluation(t *testing.T) {
	rule := delayedRule(t, "rule-a", 5)
	rule.OrderStatuses = []string{"delayed"}

	selector := NewSelector(logger.NopLogger())
	event := testEvent(map[string]interface{}{"order_status": "delivered"})

	candidates := selector.Select(context.Background(), []Rule{rule}, event, time.Now())

	assert.Empty(t, candidates)
}
