package engine

import (
	"context"
	"sort"
	"time"

	"courierpulse/internal/logger"
	"courierpulse/pkg/metrics"
	"courierpulse/pkg/models"
	"courierpulse/pkg/tracing"
)

// Selector runs the per-rule pipeline (structural filter, condition
// evaluation, eligibility guard) across a rule snapshot for one event
// and returns every surviving candidate. All candidates fire: rules are
// independent automations, there is no first-match-wins cutoff.
type Selector struct {
	logger logger.Logger
}

func NewSelector(log logger.Logger) *Selector {
	return &Selector{logger: log}
}

func (s *Selector) Select(ctx context.Context, rules []Rule, event models.EventEnvelope, now time.Time) []Candidate {
	ctx, span := tracing.GetTracer("engine-service").Start(ctx, "engine.select")
	defer span.End()

	candidates := make([]Candidate, 0)
	for _, rule := range rules {
		if ctx.Err() != nil {
			break
		}

		candidate, ok := s.inspectRule(ctx, rule, event, now)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	// Priority descending, rule id ascending for a deterministic order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Rule.Priority != candidates[j].Rule.Priority {
			return candidates[i].Rule.Priority > candidates[j].Rule.Priority
		}
		return candidates[i].Rule.ID < candidates[j].Rule.ID
	})

	return candidates
}

func (s *Selector) inspectRule(ctx context.Context, rule Rule, event models.EventEnvelope, now time.Time) (Candidate, bool) {
	if !PassesStructuralFilter(rule, event) {
		return Candidate{}, false
	}

	var diags Diagnostics
	matched := rule.Conditions.Evaluate(ctx, event, &diags)
	for _, d := range diags {
		s.logger.DebugwCtx(ctx, "Condition diagnostic",
			"rule_id", rule.ID,
			"field", d.Field,
			"operator", d.Operator,
			"reason", d.Reason,
		)
	}

	var actions []Action
	var match MatchKind
	switch {
	case matched:
		metrics.IncRuleEvaluation(rule.ID, "matched")
		actions = rule.Actions
		match = MatchConditions
	case len(rule.ElseActions) > 0:
		metrics.IncRuleEvaluation(rule.ID, "else_matched")
		actions = rule.ElseActions
		match = MatchElse
	default:
		metrics.IncRuleEvaluation(rule.ID, "no_match")
		return Candidate{}, false
	}

	if eligible, reason := IsEligible(rule, now); !eligible {
		metrics.CooldownSkipsTotal.WithLabelValues(reason).Inc()
		s.logger.DebugwCtx(ctx, "Rule ineligible to fire",
			"rule_id", rule.ID,
			"reason", reason,
		)
		return Candidate{}, false
	}

	return Candidate{Rule: rule, Actions: actions, Match: match}, true
}
