package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Broker         BrokerConfig
	Logging        LoggingConfig
	Engine         EngineConfig
	Deduplication  DeduplicationConfig
	Channels       ChannelsConfig
	Management     ManagementConfig
	CircuitBreaker CircuitBreakerConfig
	Tracing        TracingConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig
	Redis         RedisConfig
	MongoDB       MongoDBConfig
	RunMigrations bool `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers           []string    `mapstructure:"brokers"`
	GroupID           string      `mapstructure:"group_id"`
	EventsTopic       string      `mapstructure:"events_topic"`
	ConfigUpdateTopic string      `mapstructure:"config_update_topic"`
	EmailTopic        string      `mapstructure:"email_topic"`
	SmsTopic          string      `mapstructure:"sms_topic"`
	DLQTopic          string      `mapstructure:"dlq_topic"`
	Retry             RetryConfig `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	Reload   ReloadConfig   `mapstructure:"reload"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
}

type ReloadConfig struct {
	IntervalSeconds       int `mapstructure:"interval_seconds"`
	JitterMaxMilliseconds int `mapstructure:"jitter_max_milliseconds"`
}

type DispatchConfig struct {
	ActionTimeoutSeconds int `mapstructure:"action_timeout_seconds"`
}

type DeduplicationConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	HashAlgorithm string   `mapstructure:"hash_algorithm"`
	TTLSeconds    int      `mapstructure:"ttl_seconds"`
	OnRedisError  string   `mapstructure:"on_redis_error"`
	FieldsToHash  []string `mapstructure:"fields_to_hash"`
}

type ChannelsConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
	InApp   InAppConfig   `mapstructure:"inapp"`
}

type WebhookConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type InAppConfig struct {
	Collection string `mapstructure:"collection"`
}

type ManagementConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
