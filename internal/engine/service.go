package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"courierpulse/internal/config"
	"courierpulse/internal/logger"
	"courierpulse/pkg/errors"
	"courierpulse/pkg/metrics"
	"courierpulse/pkg/models"
	"courierpulse/pkg/tracing"
)

// ErrRulesNotLoaded is returned while the first rule snapshot is still
// pending. It is retryable: nothing has fired for the event yet.
var ErrRulesNotLoaded = errors.ErrServiceUnavailable.
	WithDetail("reason", "rule snapshot not loaded yet").
	AsRetryable()

// Service drives the full pipeline for one event: dedup shortcut, rule
// selection over the current snapshot, claim, dispatch, record. The rule
// snapshot is refreshed on a ticker and on config update events, so
// authors editing rules concurrently with live traffic converge within
// one reload interval.
type Service struct {
	repo       RuleRepository
	recorder   *Recorder
	dispatcher *Dispatcher
	selector   *Selector
	dedup      *Deduplicator
	cfg        config.EngineConfig
	logger     logger.Logger

	rules   []Rule
	rulesMu sync.RWMutex
	loaded  bool
}

func NewService(
	repo RuleRepository,
	recorder *Recorder,
	dispatcher *Dispatcher,
	dedup *Deduplicator,
	cfg config.EngineConfig,
	log logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		recorder:   recorder,
		dispatcher: dispatcher,
		selector:   NewSelector(log),
		dedup:      dedup,
		cfg:        cfg,
		logger:     log,
		rules:      make([]Rule, 0),
	}
}

// ProcessEvent runs one event through the engine. All downstream
// failures are absorbed and logged here: returning an error would make
// the event source redeliver, and redelivery after actions were
// dispatched risks duplicate notifications.
func (s *Service) ProcessEvent(ctx context.Context, event models.EventEnvelope) error {
	ctx, span := tracing.GetTracer("engine-service").Start(ctx, "engine.process_event")
	defer span.End()

	start := time.Now()

	if s.dedup != nil {
		unique, err := s.dedup.IsUnique(ctx, event)
		if err != nil {
			s.logger.WarnwCtx(ctx, "Dedup check failed, dropping event",
				"event_id", event.ID,
				"error", err,
			)
			s.recordEventMetrics(start, "dedup_error")
			return nil
		}
		if !unique {
			s.logger.DebugwCtx(ctx, "Duplicate event dropped",
				"event_id", event.ID,
			)
			s.recordEventMetrics(start, "duplicate")
			return nil
		}
		event.Metadata.Deduplication = &models.DeduplicationInfo{
			IsUnique:  true,
			CheckedAt: time.Now().UTC(),
		}
	}

	rules, ok := s.snapshotRules()
	if !ok {
		// The rule set has never been loaded. Retrying is safe here:
		// nothing fired yet for this event.
		s.recordEventMetrics(start, "no_snapshot")
		return ErrRulesNotLoaded
	}

	now := time.Now().UTC()
	candidates := s.selector.Select(ctx, rules, event, now)

	fired := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		if s.fireCandidate(ctx, candidate, event, now) {
			fired = append(fired, candidate.Rule.ID)
		}
	}

	s.logger.InfowCtx(ctx, "Event processed",
		"event_id", event.ID,
		"candidates", len(candidates),
		"fired", len(fired),
	)
	s.recordEventMetrics(start, "processed")
	return nil
}

// fireCandidate claims the cooldown slot, dispatches the action list and
// books the outcome. Reports whether the candidate actually fired.
func (s *Service) fireCandidate(ctx context.Context, candidate Candidate, event models.EventEnvelope, now time.Time) bool {
	claimed, err := s.recorder.Claim(ctx, candidate.Rule, now)
	if err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to claim rule execution",
			"rule_id", candidate.Rule.ID,
			"error", err,
		)
		return false
	}
	if !claimed {
		return false
	}

	// Delivery jobs carry which rule produced them.
	event.Metadata.Engine = &models.EngineInfo{
		ProcessedAt:  now,
		FiredRuleIDs: []string{candidate.Rule.ID},
	}

	// The cooldown slot is consumed; shutdown must not abort the
	// dispatch or the bookkeeping mid-flight.
	outcome := s.dispatcher.Dispatch(ctx, candidate, event)
	s.recorder.Complete(context.WithoutCancel(ctx), outcome)
	return true
}

func (s *Service) recordEventMetrics(start time.Time, status string) {
	metrics.EventsProcessedTotal.WithLabelValues(status).Inc()
	metrics.ObserveEventDuration(time.Since(start), status)
}

func (s *Service) snapshotRules() ([]Rule, bool) {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()

	if !s.loaded {
		return nil, false
	}
	rules := make([]Rule, len(s.rules))
	copy(rules, s.rules)
	return rules, true
}

// RulesLoaded reports whether at least one rule snapshot has been
// loaded since startup.
func (s *Service) RulesLoaded() bool {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()
	return s.loaded
}

func (s *Service) ReloadRules(ctx context.Context, skipJitter ...bool) error {
	shouldSkipJitter := len(skipJitter) > 0 && skipJitter[0]

	if err := s.applyJitter(ctx, shouldSkipJitter); err != nil {
		return err
	}

	s.logger.DebugwCtx(ctx, "Loading rules from database")
	rules, err := s.repo.GetActiveRules(ctx)
	if err != nil {
		return err
	}

	s.updateRules(ctx, rules)
	return nil
}

func (s *Service) applyJitter(ctx context.Context, skipJitter bool) error {
	if skipJitter || s.cfg.Reload.JitterMaxMilliseconds == 0 {
		return nil
	}

	jitter := time.Duration(rand.Intn(s.cfg.Reload.JitterMaxMilliseconds)) * time.Millisecond
	s.logger.DebugwCtx(ctx, "Reload scheduled with jitter",
		"jitter_ms", jitter.Milliseconds(),
	)

	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) updateRules(ctx context.Context, rules []Rule) {
	s.rulesMu.Lock()
	s.rules = rules
	s.loaded = true
	s.rulesMu.Unlock()

	metrics.SetActiveRules(len(rules))
	s.logger.InfowCtx(ctx, "Successfully reloaded rules",
		"rules_count", len(rules),
	)
}

func (s *Service) StartReloader(ctx context.Context) error {
	interval := s.cfg.Reload.IntervalSeconds
	if interval <= 0 {
		interval = 60
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	if err := s.ReloadRules(ctx); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to reload rules",
			"error", err,
		)
	}

	for {
		select {
		case <-ticker.C:
			if err := s.ReloadRules(ctx); err != nil {
				s.logger.ErrorwCtx(ctx, "Failed to reload rules",
					"error", err,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
