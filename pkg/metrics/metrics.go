package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_events_total",
			Help: "Total number of events processed by the rule engine (count)",
		},
		[]string{"status"},
	)

	EventProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_event_duration_ms",
			Help:    "End-to-end processing duration per event in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	ActiveRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_active_rules",
			Help: "Number of active notification rules in the current snapshot (count)",
		},
	)

	RuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_rule_evaluations_total",
			Help: "Total number of condition tree evaluations (count)",
		},
		[]string{"rule_id", "result"},
	)

	RulesFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_rules_fired_total",
			Help: "Total number of rule firings by outcome kind (count)",
		},
		[]string{"rule_id", "outcome"},
	)

	ActionDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_action_dispatch_total",
			Help: "Total number of dispatched actions per channel (count)",
		},
		[]string{"channel", "status"},
	)

	ActionDispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_action_dispatch_duration_ms",
			Help:    "Dispatch duration per action in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"channel"},
	)

	CooldownSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cooldown_skips_total",
			Help: "Total number of candidates rejected by the eligibility guard (count)",
		},
		[]string{"reason"},
	)

	RecorderConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_recorder_conflicts_total",
			Help: "Total number of lost statistics writes due to a concurrent fire (count)",
		},
	)

	RecorderGapsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_recorder_gaps_total",
			Help: "Total number of statistics updates that failed after dispatch (count)",
		},
	)

	DedupEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_dedup_events_total",
			Help: "Total number of events checked for duplicates (count)",
		},
		[]string{"status"},
	)

	DedupCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_dedup_cache_size",
			Help: "Approximate size of the event dedup cache (count)",
		},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"component", "strategy", "reason"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of events sent to DLQ (count)",
		},
		[]string{"service", "topic", "reason"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries (count)",
		},
		[]string{"service", "database", "operation", "status"},
	)

	DatabaseQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_ms",
			Help:    "Duration of database queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"service", "database", "operation"},
	)
)

func RegisterEngineMetrics() {
	prometheus.MustRegister(EventsProcessedTotal)
	prometheus.MustRegister(EventProcessingDuration)
	prometheus.MustRegister(ActiveRules)
	prometheus.MustRegister(RuleEvaluationsTotal)
	prometheus.MustRegister(RulesFiredTotal)
	prometheus.MustRegister(ActionDispatchTotal)
	prometheus.MustRegister(ActionDispatchDuration)
	prometheus.MustRegister(CooldownSkipsTotal)
	prometheus.MustRegister(RecorderConflictsTotal)
	prometheus.MustRegister(RecorderGapsTotal)
	prometheus.MustRegister(FallbackUsageTotal)
}

func RegisterDedupMetrics() {
	prometheus.MustRegister(DedupEventsTotal)
	prometheus.MustRegister(DedupCacheSize)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(DLQMessagesTotal)
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterManagementMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
	prometheus.MustRegister(DatabaseQueriesTotal)
	prometheus.MustRegister(DatabaseQueryDuration)
}

func ObserveEventDuration(duration time.Duration, status string) {
	EventProcessingDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func ObserveActionDispatch(channel, status string, duration time.Duration) {
	ActionDispatchTotal.WithLabelValues(channel, status).Inc()
	ActionDispatchDuration.WithLabelValues(channel).Observe(float64(duration.Milliseconds()))
}

func SetActiveRules(count int) {
	ActiveRules.Set(float64(count))
}

func SetDedupCacheSize(size int) {
	DedupCacheSize.Set(float64(size))
}

func IncRuleEvaluation(ruleID, result string) {
	RuleEvaluationsTotal.WithLabelValues(ruleID, result).Inc()
}

func IncRuleFired(ruleID, outcome string) {
	RulesFiredTotal.WithLabelValues(ruleID, outcome).Inc()
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}
