package management

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() CreateRuleRequest {
	return CreateRuleRequest{
		Name:       "delayed-order-alert",
		Conditions: json.RawMessage(`{"type": "atomic", "field": "order_status", "operator": "equals", "value": "delayed"}`),
		Actions:    json.RawMessage(`[{"type": "email", "recipient": "ops@example.com", "message": "Order {{order_id}} is delayed"}]`),
	}
}

func TestValidateCreateRule_Valid(t *testing.T) {
	require.NoError(t, ValidateCreateRule(validCreateRequest()))
}

func TestValidateCreateRule_MissingName(t *testing.T) {
	req := validCreateRequest()
	req.Name = ""
	assert.ErrorContains(t, ValidateCreateRule(req), "name is required")
}

func TestValidateCreateRule_MissingConditions(t *testing.T) {
	req := validCreateRequest()
	req.Conditions = nil
	assert.ErrorContains(t, ValidateCreateRule(req), "conditions are required")
}

func TestValidateCreateRule_InvalidConditionOperator(t *testing.T) {
	req := validCreateRequest()
	req.Conditions = json.RawMessage(`{"type": "atomic", "field": "x", "operator": "matches", "value": "y"}`)
	assert.ErrorContains(t, ValidateCreateRule(req), "invalid conditions")
}

func TestValidateCreateRule_InvalidAction(t *testing.T) {
	req := validCreateRequest()
	req.Actions = json.RawMessage(`[{"type": "webhook"}]`)
	assert.ErrorContains(t, ValidateCreateRule(req), "invalid actions")
}

func TestValidateCreateRule_EmptyActionList(t *testing.T) {
	req := validCreateRequest()
	req.Actions = json.RawMessage(`[]`)
	assert.ErrorContains(t, ValidateCreateRule(req), "actions cannot be empty")
}

func TestValidateCreateRule_InvalidElseActions(t *testing.T) {
	req := validCreateRequest()
	req.ElseActions = json.RawMessage(`[{"type": "carrier_pigeon"}]`)
	assert.ErrorContains(t, ValidateCreateRule(req), "invalid else_actions")
}

func TestValidateCreateRule_NegativeCooldown(t *testing.T) {
	req := validCreateRequest()
	req.CooldownHours = -1
	assert.ErrorContains(t, ValidateCreateRule(req), "cooldown_hours")
}

func TestValidateCreateRule_ZeroMaxExecutions(t *testing.T) {
	req := validCreateRequest()
	zero := 0
	req.MaxExecutions = &zero
	assert.ErrorContains(t, ValidateCreateRule(req), "max_executions")
}

func TestValidateCreateRule_WindowHalfSet(t *testing.T) {
	req := validCreateRequest()
	req.WindowStart = "09:00"
	assert.ErrorContains(t, ValidateCreateRule(req), "window_start and window_end")
}

func TestValidateCreateRule_WindowBadFormat(t *testing.T) {
	req := validCreateRequest()
	req.WindowStart = "9am"
	req.WindowEnd = "5pm"
	assert.ErrorContains(t, ValidateCreateRule(req), "invalid execution window")
}

func TestValidateUpdateRule_EmptyRequestIsValid(t *testing.T) {
	require.NoError(t, ValidateUpdateRule(UpdateRuleRequest{}))
}

func TestValidateUpdateRule_EmptyName(t *testing.T) {
	name := ""
	assert.ErrorContains(t, ValidateUpdateRule(UpdateRuleRequest{Name: &name}), "name cannot be empty")
}

func TestValidateUpdateRule_InvalidConditions(t *testing.T) {
	conditions := json.RawMessage(`{"type": "quantum"}`)
	err := ValidateUpdateRule(UpdateRuleRequest{Conditions: &conditions})
	assert.ErrorContains(t, err, "invalid conditions")
}

func TestValidateUpdateRule_EmptyActionList(t *testing.T) {
	actions := json.RawMessage(`[]`)
	err := ValidateUpdateRule(UpdateRuleRequest{Actions: &actions})
	assert.ErrorContains(t, err, "actions cannot be empty")
}

func TestValidateInstantiateTemplate(t *testing.T) {
	require.NoError(t, ValidateInstantiateTemplate(InstantiateTemplateRequest{Name: "vip-rule"}))
	assert.ErrorContains(t, ValidateInstantiateTemplate(InstantiateTemplateRequest{}), "name is required")
	assert.ErrorContains(t, ValidateInstantiateTemplate(InstantiateTemplateRequest{Name: "x", CooldownHours: -2}), "cooldown_hours")
}
