package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"courierpulse/internal/broker"
	"courierpulse/internal/channel"
	"courierpulse/internal/config"
	"courierpulse/internal/constants"
	"courierpulse/internal/engine"
	"courierpulse/internal/logger"
	"courierpulse/pkg/bootstrap"
	"courierpulse/pkg/cel"
	"courierpulse/pkg/circuitbreaker"
	"courierpulse/pkg/health"
	"courierpulse/pkg/logging"
	"courierpulse/pkg/metrics"
	"courierpulse/pkg/migrations"
	"courierpulse/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	redisClient    *redis.Client
	mongoClient    *mongo.Client
	service        *engine.Service
	dedup          *engine.Deduplicator
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("engine-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.InitBroker("engine-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	if err := a.initService(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, "engine-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterEngineMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.Deduplication.Enabled {
		metrics.RegisterDedupMetrics()
	}
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("postgres configuration is required for the engine")
	}
	a.db = db

	if a.Config.Deduplication.Enabled {
		redisClient, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redisClient = redisClient
	}

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		initCtx := logging.WithServiceName(ctx, "engine-service")
		a.Logger.WarnwCtx(initCtx, "MongoDB connection failed, in-app notifications disabled",
			"error", err,
		)
	} else if mongoClient != nil {
		a.mongoClient = mongoClient

		dbName := a.Config.Database.MongoDB.Database
		if dbName == "" {
			dbName = constants.DefaultMongoDBName
		}
		if err := migrations.EnsureMongoCollections(ctx, mongoClient.Database(dbName)); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) initService(ctx context.Context) error {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to create CEL evaluator: %w", err)
	}
	parser := engine.NewConditionParser(evaluator)

	repo := engine.NewRepository(a.db, parser)
	recorder := engine.NewRecorder(repo, a.Logger)
	dispatcher := engine.NewDispatcher(a.buildChannelRegistry(), a.actionTimeout(), a.Logger)

	if a.Config.Deduplication.Enabled && a.redisClient != nil {
		dedupRepo := engine.NewDedupRepository(a.redisClient)
		a.dedup = engine.NewDeduplicator(dedupRepo, a.Config.Deduplication, a.Logger)
	}

	svc := engine.NewService(repo, recorder, dispatcher, a.dedup, a.Config.Engine, a.Logger)

	if err := svc.ReloadRules(ctx, true); err != nil {
		initCtx := logging.WithServiceName(ctx, "engine-service")
		a.Logger.WarnwCtx(initCtx, "Failed to load initial rules",
			"error", err,
		)
	}

	a.service = svc
	return nil
}

func (a *App) buildChannelRegistry() map[string]engine.ChannelSender {
	webhookTimeout := time.Duration(a.Config.Channels.Webhook.TimeoutSeconds) * time.Second
	if webhookTimeout <= 0 {
		webhookTimeout = constants.DefaultHTTPTimeout
	}

	var breaker *circuitbreaker.Wrapper
	if a.Config.CircuitBreaker.Enabled {
		breaker = circuitbreaker.NewWrapper(a.webhookBreakerConfig())
	}
	webhook := channel.NewWebhookAdapter(webhookTimeout, breaker, a.Logger)

	emailTopic := a.Config.Broker.Kafka.EmailTopic
	if emailTopic == "" {
		emailTopic = constants.DefaultEmailTopic
	}
	email := channel.NewEmailAdapter(a.Producer, emailTopic, a.Logger)

	smsTopic := a.Config.Broker.Kafka.SmsTopic
	if smsTopic == "" {
		smsTopic = constants.DefaultSmsTopic
	}
	sms := channel.NewSmsAdapter(a.Producer, smsTopic, a.Logger)

	var inapp *channel.InAppAdapter
	if a.mongoClient != nil {
		dbName := a.Config.Database.MongoDB.Database
		if dbName == "" {
			dbName = constants.DefaultMongoDBName
		}
		collectionName := a.Config.Channels.InApp.Collection
		if collectionName == "" {
			collectionName = constants.InAppCollection
		}
		collection := a.mongoClient.Database(dbName).Collection(collectionName)
		inapp = channel.NewInAppAdapter(collection, a.Logger)
	}

	return channel.NewRegistry(webhook, email, sms, inapp)
}

func (a *App) webhookBreakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig("webhook")

	cb := a.Config.CircuitBreaker
	if cb.MaxRequests > 0 {
		cfg.MaxRequests = cb.MaxRequests
	}
	if cb.Interval > 0 {
		cfg.Interval = cb.Interval
	}
	if cb.Timeout > 0 {
		cfg.Timeout = cb.Timeout
	}
	if cb.FailureRatio > 0 && cb.MinRequests > 0 {
		cfg.ReadyToTrip = func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cb.MinRequests && failureRatio >= cb.FailureRatio
		}
	}

	return cfg
}

func (a *App) actionTimeout() time.Duration {
	seconds := a.Config.Engine.Dispatch.ActionTimeoutSeconds
	if seconds <= 0 {
		seconds = constants.DefaultActionTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (a *App) initHTTPServer(ctx context.Context) error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}
	healthRegistry.Register(health.NewCheckerFunc("rules", func(ctx context.Context) error {
		if !a.service.RulesLoaded() {
			return fmt.Errorf("rule snapshot not loaded yet")
		}
		return nil
	}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	if a.dedup != nil {
		g.Go(func() error {
			a.dedup.StartCacheSizeUpdater(gCtx)
			return nil
		})
	}

	configConsumer, err := broker.NewConsumer(a.Config.Broker, a.Logger)
	if err != nil {
		configCtx := logging.WithServiceName(ctx, "engine-service")
		a.Logger.WarnwCtx(configCtx, "Failed to create config event consumer, event-driven reload disabled",
			"error", err,
		)
	} else {
		configConsumer.SetServiceName("engine-service")
		defer configConsumer.Close()
		configHandler := engine.NewConfigHandler(a.service, a.Logger)

		g.Go(func() error {
			configCtx := logging.WithServiceName(gCtx, "engine-service")
			a.Logger.InfowCtx(configCtx, "Starting config update event consumer",
				"topic", a.Config.Broker.Kafka.ConfigUpdateTopic,
			)
			return configConsumer.Consume(gCtx, a.Config.Broker.Kafka.ConfigUpdateTopic, configHandler.HandleConfigUpdateEvent)
		})
	}

	g.Go(func() error {
		return a.service.StartReloader(gCtx)
	})

	eventsTopic := a.Config.Broker.Kafka.EventsTopic
	if eventsTopic == "" {
		eventsTopic = constants.DefaultEventsTopic
	}
	g.Go(func() error {
		return a.Consumer.Consume(gCtx, eventsTopic, a.service.ProcessEvent)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "engine-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down engine service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
