package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
)

const (
	CacheKeyPrefixDedup = "dedup:"
)

const (
	DefaultEventsTopic = "courier_events"
	DefaultEmailTopic  = "notification_email"
	DefaultSmsTopic    = "notification_sms"
)

const (
	DefaultMongoDBName = "courierpulse"

	TemplateCollection = "rule_templates"
	InAppCollection    = "inapp_notifications"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLimit       = 100
	MaxLimit           = 1000
	DefaultTruncateLen = 100
)

const (
	DefaultDedupTTLSeconds = 3600
)

const (
	DefaultReloadIntervalSeconds = 60
	DefaultActionTimeoutSeconds  = 10
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	OnRedisErrorPass = "pass"
	OnRedisErrorDrop = "drop"
)

const (
	ActionTypeEmail   = "email"
	ActionTypeSms     = "sms"
	ActionTypeWebhook = "webhook"
	ActionTypeInApp   = "inapp"
)
