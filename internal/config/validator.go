package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateStatic checks everything that can be verified without touching
// the network. Connectivity problems surface later through health checks.
func ValidateStatic(cfg *Config) error {
	var errs []string

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateBroker(&cfg.Broker)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateDeduplication(&cfg.Deduplication)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateServer(cfg *ServerConfig) []string {
	var errs []string
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535, got %d", cfg.Port))
	}
	return errs
}

func validateBroker(cfg *BrokerConfig) []string {
	var errs []string
	if cfg.Type != "kafka" {
		errs = append(errs, fmt.Sprintf("broker.type must be 'kafka', got %q", cfg.Type))
		return errs
	}
	if len(cfg.Kafka.Brokers) == 0 {
		errs = append(errs, "broker.kafka.brokers must not be empty")
	}
	for i, b := range cfg.Kafka.Brokers {
		if strings.TrimSpace(b) == "" {
			errs = append(errs, fmt.Sprintf("broker.kafka.brokers[%d] must not be blank", i))
		}
	}
	if cfg.Kafka.GroupID == "" {
		errs = append(errs, "broker.kafka.group_id must not be empty")
	}
	if cfg.Kafka.EventsTopic == "" {
		errs = append(errs, "broker.kafka.events_topic must not be empty")
	}
	if cfg.Kafka.Retry.MaxAttempts < 0 {
		errs = append(errs, fmt.Sprintf("broker.kafka.retry.max_attempts must not be negative, got %d", cfg.Kafka.Retry.MaxAttempts))
	}
	if cfg.Kafka.Retry.Multiplier != 0 && cfg.Kafka.Retry.Multiplier < 1 {
		errs = append(errs, fmt.Sprintf("broker.kafka.retry.multiplier must be >= 1, got %g", cfg.Kafka.Retry.Multiplier))
	}
	return errs
}

func validateDatabase(cfg *DatabaseConfig) []string {
	var errs []string

	if cfg.Postgres.Host == "" {
		errs = append(errs, "database.postgres.host must not be empty")
	}
	if cfg.Postgres.Port <= 0 || cfg.Postgres.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.postgres.port must be between 1 and 65535, got %d", cfg.Postgres.Port))
	}
	if cfg.Postgres.User == "" {
		errs = append(errs, "database.postgres.user must not be empty")
	}
	if cfg.Postgres.DBName == "" {
		errs = append(errs, "database.postgres.dbname must not be empty")
	}

	if cfg.Redis.Host != "" {
		if cfg.Redis.Port <= 0 || cfg.Redis.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.redis.port must be between 1 and 65535, got %d", cfg.Redis.Port))
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, fmt.Sprintf("database.redis.db must not be negative, got %d", cfg.Redis.DB))
		}
	}

	if cfg.MongoDB.URI != "" && cfg.MongoDB.Database == "" {
		errs = append(errs, "database.mongodb.database must be set when database.mongodb.uri is set")
	}

	return errs
}

func validateEngine(cfg *EngineConfig) []string {
	var errs []string
	if cfg.Reload.IntervalSeconds < 0 {
		errs = append(errs, fmt.Sprintf("engine.reload.interval_seconds must not be negative, got %d", cfg.Reload.IntervalSeconds))
	}
	if cfg.Reload.JitterMaxMilliseconds < 0 {
		errs = append(errs, fmt.Sprintf("engine.reload.jitter_max_milliseconds must not be negative, got %d", cfg.Reload.JitterMaxMilliseconds))
	}
	if cfg.Dispatch.ActionTimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("engine.dispatch.action_timeout_seconds must not be negative, got %d", cfg.Dispatch.ActionTimeoutSeconds))
	}
	return errs
}

func validateDeduplication(cfg *DeduplicationConfig) []string {
	var errs []string
	if !cfg.Enabled {
		return errs
	}
	switch cfg.HashAlgorithm {
	case "", "sha256", "md5":
	default:
		errs = append(errs, fmt.Sprintf("deduplication.hash_algorithm must be 'sha256' or 'md5', got %q", cfg.HashAlgorithm))
	}
	switch cfg.OnRedisError {
	case "", "pass", "drop":
	default:
		errs = append(errs, fmt.Sprintf("deduplication.on_redis_error must be 'pass' or 'drop', got %q", cfg.OnRedisError))
	}
	if cfg.TTLSeconds < 0 {
		errs = append(errs, fmt.Sprintf("deduplication.ttl_seconds must not be negative, got %d", cfg.TTLSeconds))
	}
	return errs
}

func validateLogging(cfg *LoggingConfig) []string {
	var errs []string
	switch cfg.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug, info, warn, error, got %q", cfg.Level))
	}
	switch cfg.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("logging.format must be 'json' or 'console', got %q", cfg.Format))
	}
	return errs
}
