package management

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierpulse/internal/engine"
	pkgerrors "courierpulse/pkg/errors"
	"courierpulse/pkg/models"
)

type fakeRepo struct {
	rules      map[string]*NotificationRule
	executions []RuleExecution
	createErr  error
	deleteErr  error
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rules: make(map[string]*NotificationRule)}
}

func (r *fakeRepo) CreateRule(ctx context.Context, rule *NotificationRule) error {
	if r.createErr != nil {
		return r.createErr
	}
	if rule.ID == "" {
		rule.ID = fmt.Sprintf("rule-%d", len(r.rules)+1)
	}
	copied := *rule
	r.rules[rule.ID] = &copied
	return nil
}

func (r *fakeRepo) ListRules(ctx context.Context) ([]NotificationRule, error) {
	var out []NotificationRule
	for _, rule := range r.rules {
		out = append(out, *rule)
	}
	return out, nil
}

func (r *fakeRepo) GetRule(ctx context.Context, id string) (*NotificationRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, nil
	}
	copied := *rule
	return &copied, nil
}

func (r *fakeRepo) UpdateRule(ctx context.Context, rule *NotificationRule) error {
	if _, ok := r.rules[rule.ID]; !ok {
		return pkgerrors.ErrNotFound
	}
	copied := *rule
	r.rules[rule.ID] = &copied
	return nil
}

func (r *fakeRepo) DeleteRule(ctx context.Context, id string) error {
	if _, ok := r.rules[id]; !ok {
		return pkgerrors.ErrNotFound
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.rules, id)
	return nil
}

func (r *fakeRepo) SetRuleActive(ctx context.Context, id string, active bool) error {
	rule, ok := r.rules[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	rule.IsActive = active
	return nil
}

func (r *fakeRepo) ListExecutions(ctx context.Context, ruleID string, limit int) ([]RuleExecution, error) {
	var out []RuleExecution
	for _, exec := range r.executions {
		if exec.RuleID == ruleID && len(out) < limit {
			out = append(out, exec)
		}
	}
	return out, nil
}

type fakeTemplateRepo struct {
	templates map[string]*Template
}

var _ TemplateRepository = (*fakeTemplateRepo)(nil)

func (r *fakeTemplateRepo) ListTemplates(ctx context.Context) ([]Template, error) {
	var out []Template
	for _, tmpl := range r.templates {
		out = append(out, *tmpl)
	}
	return out, nil
}

func (r *fakeTemplateRepo) GetTemplate(ctx context.Context, id string) (*Template, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, nil
	}
	copied := *tmpl
	return &copied, nil
}

type capturingProducer struct {
	published []models.EventEnvelope
	topics    []string
}

func (p *capturingProducer) Publish(ctx context.Context, topic string, event models.EventEnvelope) error {
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *capturingProducer) Close() error { return nil }

func newTestService(t *testing.T) (Service, *fakeRepo, *capturingProducer) {
	t.Helper()
	repo := newFakeRepo()
	producer := &capturingProducer{}
	svc := NewService(repo,
		WithConfigEvents(NewConfigEventProducer(producer, "rule_config_updates")),
		WithTemplates(&fakeTemplateRepo{templates: map[string]*Template{
			"tmpl-delayed": {
				ID:          "tmpl-delayed",
				Name:        "Delayed order alert",
				Description: "Notify when an order sits in delayed state",
				Priority:    50,
				Conditions:  json.RawMessage(`{"type": "atomic", "field": "order_status", "operator": "equals", "value": "delayed"}`),
				Actions:     json.RawMessage(`[{"type": "email", "recipient": "ops@example.com", "message": "Order {{order_id}} delayed"}]`),
			},
		}}),
	)
	return svc, repo, producer
}

func TestService_CreateRule(t *testing.T) {
	svc, repo, producer := newTestService(t)

	rule, err := svc.CreateRule(context.Background(), validCreateRequest())
	require.NoError(t, err)
	require.NotEmpty(t, rule.ID)
	assert.Equal(t, engine.OriginCustom, rule.Origin)
	assert.True(t, rule.IsActive)

	stored, err := repo.GetRule(context.Background(), rule.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.Len(t, producer.published, 1)
	assert.Equal(t, models.EventTypeRuleUpdated, producer.published[0].Type)
	assert.Equal(t, models.ActionCreate, producer.published[0].Attributes["action"])
	assert.Equal(t, "rule_config_updates", producer.topics[0])
}

func TestService_CreateRule_InvalidRequest(t *testing.T) {
	svc, repo, producer := newTestService(t)

	req := validCreateRequest()
	req.Conditions = json.RawMessage(`{"type": "atomic"}`)

	_, err := svc.CreateRule(context.Background(), req)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Empty(t, repo.rules)
	assert.Empty(t, producer.published)
}

func TestService_CreateRule_Conflict(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.createErr = pkgerrors.ErrConflict.WithDetail("message", "rule with name 'delayed-order-alert' already exists")

	_, err := svc.CreateRule(context.Background(), validCreateRequest())
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestService_GetRule_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetRule(context.Background(), "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestService_UpdateRule(t *testing.T) {
	svc, _, producer := newTestService(t)

	created, err := svc.CreateRule(context.Background(), validCreateRequest())
	require.NoError(t, err)

	priority := 90
	active := false
	updated, err := svc.UpdateRule(context.Background(), created.ID, UpdateRuleRequest{
		Priority: &priority,
		IsActive: &active,
	})
	require.NoError(t, err)
	assert.Equal(t, 90, updated.Priority)
	assert.False(t, updated.IsActive)
	assert.Equal(t, created.Conditions, updated.Conditions)

	require.Len(t, producer.published, 2)
	assert.Equal(t, models.ActionUpdate, producer.published[1].Attributes["action"])
}

func TestService_UpdateRule_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	name := "renamed"
	_, err := svc.UpdateRule(context.Background(), "missing", UpdateRuleRequest{Name: &name})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestService_DeleteRule(t *testing.T) {
	svc, repo, producer := newTestService(t)

	created, err := svc.CreateRule(context.Background(), validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRule(context.Background(), created.ID))
	assert.Empty(t, repo.rules)

	require.Len(t, producer.published, 2)
	assert.Equal(t, models.ActionDelete, producer.published[1].Attributes["action"])
}

func TestService_DeleteRule_ConflictWhenHistoryExists(t *testing.T) {
	svc, repo, producer := newTestService(t)

	created, err := svc.CreateRule(context.Background(), validCreateRequest())
	require.NoError(t, err)

	repo.deleteErr = pkgerrors.ErrConflict.WithDetail("message", "rule has execution history and can only be deactivated")

	err = svc.DeleteRule(context.Background(), created.ID)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Contains(t, repo.rules, created.ID)

	// Only the create event was published.
	require.Len(t, producer.published, 1)
	assert.Equal(t, models.ActionCreate, producer.published[0].Attributes["action"])
}

func TestService_ToggleRule(t *testing.T) {
	svc, _, producer := newTestService(t)

	created, err := svc.CreateRule(context.Background(), validCreateRequest())
	require.NoError(t, err)
	require.True(t, created.IsActive)

	toggled, err := svc.ToggleRule(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	require.Len(t, producer.published, 2)
	assert.Equal(t, models.ActionToggle, producer.published[1].Attributes["action"])
}

func TestService_ToggleRule_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ToggleRule(context.Background(), "missing", true)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestService_ListExecutions_ClampsLimit(t *testing.T) {
	svc, repo, _ := newTestService(t)

	for i := 0; i < 150; i++ {
		repo.executions = append(repo.executions, RuleExecution{
			ID:     fmt.Sprintf("exec-%d", i),
			RuleID: "rule-1",
		})
	}

	executions, err := svc.ListExecutions(context.Background(), "rule-1", -5)
	require.NoError(t, err)
	assert.Len(t, executions, 100)
}

func TestService_InstantiateTemplate(t *testing.T) {
	svc, repo, producer := newTestService(t)

	rule, err := svc.InstantiateTemplate(context.Background(), "tmpl-delayed", InstantiateTemplateRequest{
		Name:          "dhl-delayed-alert",
		CourierIDs:    []string{"dhl"},
		CooldownHours: 6,
	})
	require.NoError(t, err)

	assert.Equal(t, engine.OriginFromTemplate, rule.Origin)
	assert.Equal(t, "dhl-delayed-alert", rule.Name)
	assert.Equal(t, 50, rule.Priority)
	assert.Equal(t, []string{"dhl"}, rule.CourierIDs)
	assert.Equal(t, 6, rule.CooldownHours)
	assert.JSONEq(t, `{"type": "atomic", "field": "order_status", "operator": "equals", "value": "delayed"}`, string(rule.Conditions))

	stored, err := repo.GetRule(context.Background(), rule.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.Len(t, producer.published, 1)
	assert.Equal(t, models.ActionCreate, producer.published[0].Attributes["action"])
}

func TestService_InstantiateTemplate_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.InstantiateTemplate(context.Background(), "tmpl-missing", InstantiateTemplateRequest{Name: "x"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestService_Templates(t *testing.T) {
	svc, _, _ := newTestService(t)

	templates, err := svc.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 1)

	tmpl, err := svc.GetTemplate(context.Background(), "tmpl-delayed")
	require.NoError(t, err)
	assert.Equal(t, "Delayed order alert", tmpl.Name)
}
