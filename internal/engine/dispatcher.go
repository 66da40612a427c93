package engine

import (
	"context"
	"fmt"
	"time"

	"courierpulse/internal/logger"
	"courierpulse/pkg/metrics"
	"courierpulse/pkg/models"
	"courierpulse/pkg/tracing"
)

// ChannelSender delivers one action through its channel. Implementations
// live in internal/channel; the dispatcher only knows the interface.
type ChannelSender interface {
	Send(ctx context.Context, action Action, event models.EventEnvelope) error
}

// Dispatcher executes a candidate's action list sequentially and
// best-effort: a failing action is recorded and the remaining actions
// still run. Each call into an adapter is bounded by actionTimeout.
type Dispatcher struct {
	senders       map[string]ChannelSender
	actionTimeout time.Duration
	logger        logger.Logger
}

func NewDispatcher(senders map[string]ChannelSender, actionTimeout time.Duration, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		senders:       senders,
		actionTimeout: actionTimeout,
		logger:        log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, candidate Candidate, event models.EventEnvelope) Outcome {
	ctx, span := tracing.GetTracer("engine-service").Start(ctx, "engine.dispatch")
	defer span.End()

	outcome := Outcome{
		RuleID:     candidate.Rule.ID,
		EventID:    event.ID,
		Match:      candidate.Match,
		Results:    make([]ActionResult, 0, len(candidate.Actions)),
		Success:    true,
		ExecutedAt: time.Now().UTC(),
	}

	for i, action := range candidate.Actions {
		result := d.dispatchAction(ctx, i, action, event)
		if !result.Success {
			outcome.Success = false
			d.logger.WarnwCtx(ctx, "Action dispatch failed",
				"rule_id", candidate.Rule.ID,
				"action_index", i,
				"action_type", action.Type,
				"error", result.Error,
			)
		}
		outcome.Results = append(outcome.Results, result)
	}

	metrics.IncRuleFired(candidate.Rule.ID, string(candidate.Match))
	return outcome
}

func (d *Dispatcher) dispatchAction(ctx context.Context, index int, action Action, event models.EventEnvelope) ActionResult {
	result := ActionResult{Index: index, ActionType: action.Type}

	sender, ok := d.senders[action.Type]
	if !ok {
		result.Error = fmt.Sprintf("no channel adapter registered for action type %q", action.Type)
		metrics.ObserveActionDispatch(action.Type, "unknown_channel", 0)
		return result
	}

	// The cooldown slot was already claimed for this candidate, so an
	// in-flight action must run to completion or its own timeout.
	// Consumer shutdown cancelling it here would burn the slot without
	// sending anything.
	actionCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.actionTimeout)
	defer cancel()

	start := time.Now()
	err := sender.Send(actionCtx, action, event)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		metrics.ObserveActionDispatch(action.Type, "failure", result.Duration)
		return result
	}

	result.Success = true
	metrics.ObserveActionDispatch(action.Type, "success", result.Duration)
	return result
}
