package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelsud/webhook-outbox/config"
	"github.com/marcelsud/webhook-outbox/metrics"
	"github.com/marcelsud/webhook-outbox/subscribers"
	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/marcelsud/webhook-outbox/webhook/memory"
	"github.com/marcelsud/webhook-outbox/webhook/postgres"
	"github.com/marcelsud/webhook-outbox/webhook/redis"
	"github.com/marcelsud/webhook-outbox/webhook/transport"
	"github.com/rs/zerolog"
)

/* App wires the delivery engine from configuration
 * Redis backs the ephemeral stores when REDIS_ADDR is set, memory otherwise
 * PostgreSQL backs subscribers and the durable history when configured,
 * otherwise subscribers come from SUBSCRIBERS_FILE and history stays in memory
 */

type App struct {
	Service   *webhook.Service
	Scheduler *webhook.Scheduler
	Recorder  *webhook.Recorder
	Metrics   *metrics.OTelExporter
	Logger    zerolog.Logger

	// Shared reports whether retries survive this process (Redis-backed queue)
	Shared bool

	closers []func(context.Context) error
}

type ephemeral struct {
	fast      webhook.AttemptLog
	cache     webhook.PayloadCache
	queue     webhook.RetryQueue
	heartbeat webhook.Heartbeater
	collector metrics.Collector
}

type durable struct {
	subscribers webhook.SubscriberStore
	attempts    webhook.DurableAttemptStore
}

// Build creates every component; Close releases them
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Logger: logger}

	eph, err := a.ephemeralStores(ctx, cfg)
	if err != nil {
		a.abort(ctx)
		return nil, err
	}

	dur, err := a.durableStores(cfg)
	if err != nil {
		a.abort(ctx)
		return nil, err
	}

	exporter, err := metrics.NewOTelExporter(eph.collector)
	if err != nil {
		a.abort(ctx)
		return nil, fmt.Errorf("creating metrics exporter: %w", err)
	}
	a.Metrics = exporter
	a.closers = append(a.closers, exporter.Shutdown)

	a.Recorder = webhook.NewRecorder(eph.fast, eph.cache, dur.attempts, dur.subscribers,
		webhook.WithRecorderLogger(logger),
		webhook.WithHistoryLimit(cfg.HistoryLimit),
	)
	// pending durable writes drain before the stores close
	a.closers = append([]func(context.Context) error{a.Recorder.Close}, a.closers...)

	schedulerOpts := []webhook.SchedulerOption{
		webhook.WithMaxAttempts(cfg.GetRetryMaxAttempts()),
		webhook.WithPollInterval(cfg.GetRetryPollInterval()),
		webhook.WithBatchSize(cfg.GetRetryBatchSize()),
		webhook.WithConcurrency(cfg.GetRetryConcurrency()),
		webhook.WithSchedulerLogger(logger),
	}
	if eph.heartbeat != nil {
		schedulerOpts = append(schedulerOpts, webhook.WithHeartbeater(eph.heartbeat))
	}
	a.Scheduler = webhook.NewScheduler(eph.queue, schedulerOpts...)

	a.Service = webhook.NewService(dur.subscribers,
		transport.New(transport.WithTimeout(cfg.GetDeliveryTimeout())),
		a.Recorder,
		a.Scheduler,
		webhook.WithLogger(logger),
		webhook.WithMetrics(exporter),
	)

	return a, nil
}

func (a *App) ephemeralStores(ctx context.Context, cfg *config.Config) (ephemeral, error) {
	if !cfg.RedisEnabled() {
		a.Logger.Warn().Msg("REDIS_ADDR not set, using in-memory stores; retries do not survive a restart")
		queue := memory.NewRetryQueue()
		return ephemeral{
			fast:      memory.NewAttemptLog(cfg.GetFastLogSize()),
			cache:     memory.NewPayloadCache(cfg.GetLastPayloadTTL()),
			queue:     queue,
			collector: metrics.NewQueueCollector(queue, nil),
		}, nil
	}

	repo, err := redis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		redis.WithFastLogSize(cfg.GetFastLogSize()),
		redis.WithLastPayloadTTL(cfg.GetLastPayloadTTL()),
	)
	if err != nil {
		return ephemeral{}, err
	}
	a.closers = append(a.closers, repo.Close)
	a.Shared = true
	a.Logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")

	return ephemeral{
		fast:      repo,
		cache:     repo,
		queue:     repo,
		heartbeat: repo,
		collector: metrics.NewRedisCollector(repo),
	}, nil
}

func (a *App) durableStores(cfg *config.Config) (durable, error) {
	if cfg.PostgresEnabled() {
		if err := cfg.ValidatePostgres(); err != nil {
			return durable{}, fmt.Errorf("validating postgres config: %w", err)
		}
		repo, err := postgres.NewRepositoryWithPoolConfig(
			cfg.PostgresConnectionString(),
			cfg.GetPostgresMaxOpenConns(),
			cfg.GetPostgresMaxIdleConns(),
			cfg.GetPostgresConnMaxLifeMinutes(),
		)
		if err != nil {
			return durable{}, err
		}
		a.closers = append(a.closers, repo.Close)
		a.Logger.Info().Msg("connected to postgres")

		return durable{subscribers: repo, attempts: repo}, nil
	}

	subs, err := subscribers.Load(cfg.SubscribersFile)
	if err != nil {
		return durable{}, fmt.Errorf("loading subscribers: %w", err)
	}
	a.Logger.Info().Int("count", len(subs)).Str("file", cfg.SubscribersFile).Msg("loaded subscribers")

	return durable{
		subscribers: subscribers.NewRegistry(subs...),
		attempts:    memory.NewDurableAttemptStore(),
	}, nil
}

// Close stops the poller, then releases every component, the recorder first
func (a *App) Close(ctx context.Context) error {
	var errs []error
	// the poller may still record attempts until it stops
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// abort releases what Build created before it failed
func (a *App) abort(ctx context.Context) {
	if err := a.Close(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("releasing partially built engine")
	}
}
