package management

import (
	"context"
	"encoding/json"

	"courierpulse/internal/constants"
	"courierpulse/internal/engine"
	pkgerrors "courierpulse/pkg/errors"
	"courierpulse/pkg/models"
)

// Service is the rule administration API used by the HTTP handlers.
type Service interface {
	CreateRule(ctx context.Context, req CreateRuleRequest) (*NotificationRule, error)
	ListRules(ctx context.Context) ([]NotificationRule, error)
	GetRule(ctx context.Context, id string) (*NotificationRule, error)
	UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (*NotificationRule, error)
	DeleteRule(ctx context.Context, id string) error
	ToggleRule(ctx context.Context, id string, active bool) (*NotificationRule, error)
	ListExecutions(ctx context.Context, ruleID string, limit int) ([]RuleExecution, error)

	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, id string) (*Template, error)
	InstantiateTemplate(ctx context.Context, templateID string, req InstantiateTemplateRequest) (*NotificationRule, error)
}

type service struct {
	repo                Repository
	templateRepo        TemplateRepository
	configEventProducer *ConfigEventProducer
}

type ServiceOption func(*service)

func WithConfigEvents(configEventProducer *ConfigEventProducer) ServiceOption {
	return func(s *service) {
		s.configEventProducer = configEventProducer
	}
}

func WithTemplates(templateRepo TemplateRepository) ServiceOption {
	return func(s *service) {
		s.templateRepo = templateRepo
	}
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateRule(ctx context.Context, req CreateRuleRequest) (*NotificationRule, error) {
	if err := ValidateCreateRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule := &NotificationRule{
		Name:          req.Name,
		Description:   req.Description,
		Origin:        engine.OriginCustom,
		IsActive:      getActiveValue(req.IsActive),
		Priority:      req.Priority,
		Conditions:    req.Conditions,
		Actions:       req.Actions,
		ElseActions:   req.ElseActions,
		CourierIDs:    req.CourierIDs,
		OrderStatuses: req.OrderStatuses,
		MinOrderValue: req.MinOrderValue,
		CooldownHours: req.CooldownHours,
		MaxExecutions: req.MaxExecutions,
		WindowStart:   req.WindowStart,
		WindowEnd:     req.WindowEnd,
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		if pkgerrors.IsConflict(err) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.publishConfigEvent(ctx, models.ActionCreate, rule.ID)
	return rule, nil
}

func (s *service) ListRules(ctx context.Context) ([]NotificationRule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return rules, nil
}

func (s *service) GetRule(ctx context.Context, id string) (*NotificationRule, error) {
	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return rule, nil
}

func (s *service) UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (*NotificationRule, error) {
	if err := ValidateUpdateRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	s.applyRuleUpdates(rule, req)

	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.publishConfigEvent(ctx, models.ActionUpdate, rule.ID)
	return rule, nil
}

func (s *service) DeleteRule(ctx context.Context, id string) error {
	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if rule == nil {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	if err := s.repo.DeleteRule(ctx, id); err != nil {
		if pkgerrors.IsConflict(err) {
			return err
		}
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.publishConfigEvent(ctx, models.ActionDelete, id)
	return nil
}

func (s *service) ToggleRule(ctx context.Context, id string, active bool) (*NotificationRule, error) {
	if err := s.repo.SetRuleActive(ctx, id, active); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	s.publishConfigEvent(ctx, models.ActionToggle, id)
	return rule, nil
}

func (s *service) ListExecutions(ctx context.Context, ruleID string, limit int) ([]RuleExecution, error) {
	if limit <= 0 || limit > constants.MaxLimit {
		limit = constants.DefaultLimit
	}
	executions, err := s.repo.ListExecutions(ctx, ruleID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return executions, nil
}

func (s *service) ListTemplates(ctx context.Context) ([]Template, error) {
	if s.templateRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "template repository not configured")
	}

	templates, err := s.templateRepo.ListTemplates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return templates, nil
}

func (s *service) GetTemplate(ctx context.Context, id string) (*Template, error) {
	if s.templateRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "template repository not configured")
	}

	template, err := s.templateRepo.GetTemplate(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if template == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return template, nil
}

// InstantiateTemplate copies a template into a new custom rule. The
// template stays untouched; the caller narrows scope through courier
// and status sets.
func (s *service) InstantiateTemplate(ctx context.Context, templateID string, req InstantiateTemplateRequest) (*NotificationRule, error) {
	if err := ValidateInstantiateTemplate(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	template, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	rule := &NotificationRule{
		Name:          req.Name,
		Description:   template.Description,
		Origin:        engine.OriginFromTemplate,
		IsActive:      getActiveValue(req.IsActive),
		Priority:      template.Priority,
		Conditions:    cloneRaw(template.Conditions),
		Actions:       cloneRaw(template.Actions),
		CourierIDs:    req.CourierIDs,
		OrderStatuses: req.OrderStatuses,
		CooldownHours: req.CooldownHours,
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		if pkgerrors.IsConflict(err) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.publishConfigEvent(ctx, models.ActionCreate, rule.ID)
	return rule, nil
}

func (s *service) applyRuleUpdates(rule *NotificationRule, req UpdateRuleRequest) {
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Conditions != nil {
		rule.Conditions = *req.Conditions
	}
	if req.Actions != nil {
		rule.Actions = *req.Actions
	}
	if req.ElseActions != nil {
		rule.ElseActions = *req.ElseActions
	}
	if req.CourierIDs != nil {
		rule.CourierIDs = *req.CourierIDs
	}
	if req.OrderStatuses != nil {
		rule.OrderStatuses = *req.OrderStatuses
	}
	if req.MinOrderValue != nil {
		rule.MinOrderValue = req.MinOrderValue
	}
	if req.CooldownHours != nil {
		rule.CooldownHours = *req.CooldownHours
	}
	if req.MaxExecutions != nil {
		rule.MaxExecutions = req.MaxExecutions
	}
	if req.WindowStart != nil {
		rule.WindowStart = *req.WindowStart
	}
	if req.WindowEnd != nil {
		rule.WindowEnd = *req.WindowEnd
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
}

func (s *service) publishConfigEvent(ctx context.Context, action, ruleID string) {
	if s.configEventProducer != nil {
		_ = s.configEventProducer.PublishRuleEvent(ctx, action, ruleID, getChangedBy(ctx))
	}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func getActiveValue(reqActive *bool) bool {
	if reqActive == nil {
		return true
	}
	return *reqActive
}

func getChangedBy(ctx context.Context) string {
	if userID := ctx.Value("user_id"); userID != nil {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return "system"
}
