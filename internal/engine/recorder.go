package engine

import (
	"context"
	"time"

	"courierpulse/internal/logger"
	"courierpulse/pkg/metrics"
)

// Recorder owns the durable side of a rule firing. The firing is split
// in two storage calls: Claim reserves the cooldown slot with an atomic
// conditional write before any action runs, Complete books the outcome
// afterwards. The conditional write is what closes the check-then-act
// race between concurrent workers and engine instances; an in-process
// mutex could not, since rule state is shared across instances.
type Recorder struct {
	repo   ExecutionRepository
	logger logger.Logger
}

func NewRecorder(repo ExecutionRepository, log logger.Logger) *Recorder {
	return &Recorder{repo: repo, logger: log}
}

// Claim advances execution_count and last_executed_at, but only if
// last_executed_at still holds the value read when the rule snapshot was
// taken. Returns false when another worker fired the rule first.
func (r *Recorder) Claim(ctx context.Context, rule Rule, now time.Time) (bool, error) {
	claimed, err := r.repo.ClaimExecution(ctx, rule.ID, rule.LastExecutedAt, now)
	if err != nil {
		return false, err
	}

	if !claimed {
		metrics.RecorderConflictsTotal.Inc()
		r.logger.InfowCtx(ctx, "Rule claimed by a concurrent worker, skipping",
			"rule_id", rule.ID,
		)
	}

	return claimed, nil
}

// Complete increments the success or failure counter and appends the
// execution record. Failures here are absorbed: the actions already ran,
// blocking delivery on bookkeeping would be worse than a stale counter.
func (r *Recorder) Complete(ctx context.Context, outcome Outcome) {
	if err := r.repo.CompleteExecution(ctx, outcome); err != nil {
		metrics.RecorderGapsTotal.Inc()
		r.logger.ErrorwCtx(ctx, "Statistics update failed after dispatch, counters may lag",
			"rule_id", outcome.RuleID,
			"event_id", outcome.EventID,
			"error", err,
		)
	}
}
