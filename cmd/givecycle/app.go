package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/trace"

	"givecycle/internal/matching/adapters"
	"givecycle/internal/matching/allocator"
	matchingmetrics "givecycle/internal/matching/metrics"
	"givecycle/internal/matching/ports"
	"givecycle/internal/matching/qualification"
	"givecycle/internal/matching/scoring"
	"givecycle/internal/matching/store/candidate"
	"givecycle/internal/matching/store/match"
	"givecycle/internal/matching/sweeper"
	"givecycle/internal/notify"
	"givecycle/internal/notify/kafka"
	"givecycle/internal/platform/config"
	"givecycle/internal/platform/database"
	"givecycle/internal/platform/features"
	"givecycle/internal/platform/redis"
	"givecycle/internal/platform/tracing"
	"givecycle/pkg/platform/circuit"
)

const sweepLeaseKey = "givecycle:sweeper:lease"

// app holds every long-lived component. close releases them in reverse order.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	tracer   trace.Tracer

	db    *sql.DB
	pool  *pgxpool.Pool
	redis *redis.Client
	kafka *kgo.Client

	flags     *features.Manager
	matches   *match.PostgresStore
	allocator *allocator.Service
	sweeper   *sweeper.Sweeper
	emitter   *notify.Emitter

	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openStorage connects the databases only. It is all the migrate command needs.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}

	db, err := database.OpenSQL(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })
	a.matches = match.NewPostgres(db)
	return a, nil
}

// buildApp wires the full engine on top of openStorage.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tracer, shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Environment,
	})
	if err != nil {
		return err
	}
	a.tracer = tracer
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	})

	pool, err := database.OpenPool(ctx, cfg.Database.CandidateURL)
	if err != nil {
		return err
	}
	a.pool = pool
	a.closers = append(a.closers, pool.Close)

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		a.redis = rc
		a.closers = append(a.closers, func() { _ = rc.Close() })
	}

	matchingMetrics := matchingmetrics.New(a.registry)

	a.flags = features.NewManager()
	a.flags.Register(features.ModelScoring, cfg.Matching.ModelScoring, "route scoring through the prediction oracle")

	gate, err := a.qualificationGate()
	if err != nil {
		return err
	}
	scorer, err := a.scorer(matchingMetrics)
	if err != nil {
		return err
	}

	sink, rematcher, err := a.publishers(ctx)
	if err != nil {
		return err
	}
	a.emitter, err = notify.NewEmitter(sink,
		notify.WithBufferSize(cfg.Notify.BufferSize),
		notify.WithBatchSize(cfg.Notify.BatchSize),
		notify.WithFlushInterval(cfg.Notify.FlushEvery),
		notify.WithLogger(a.logger),
		notify.WithMetrics(notify.NewMetrics(a.registry)),
	)
	if err != nil {
		return err
	}

	a.allocator, err = allocator.New(
		candidate.NewPostgres(a.pool),
		gate,
		scorer,
		a.matches,
		a.emitter,
		allocator.WithConfig(allocator.Config{
			PoolSize:       cfg.Matching.PoolSize,
			MaxConcurrency: cfg.Matching.MaxConcurrency,
			ExpiryWindow:   cfg.Matching.ExpiryWindow,
			Thresholds: qualification.Thresholds{
				MinTrustScore:      cfg.Matching.MinTrustScore,
				MaxTimeWaiting:     cfg.Matching.MaxTimeWaiting,
				MinCompletedCycles: cfg.Matching.MinCompletedCycles,
			},
		}),
		allocator.WithLogger(a.logger),
		allocator.WithMetrics(matchingMetrics),
		allocator.WithTracer(a.tracer),
	)
	if err != nil {
		return err
	}

	sweeperOpts := []sweeper.Option{
		sweeper.WithConfig(sweeper.Config{
			Interval:            cfg.Sweeper.Interval,
			PenaltyDuration:     cfg.Sweeper.PenaltyDuration,
			FollowUpConcurrency: cfg.Sweeper.FollowUpConcurrency,
			RunOnStart:          cfg.Sweeper.RunOnStart,
			LeaseRenewEvery:     cfg.Sweeper.LeaseTTL / 3,
		}),
		sweeper.WithLogger(a.logger),
		sweeper.WithMetrics(matchingMetrics),
		sweeper.WithTracer(a.tracer),
	}
	if a.redis != nil {
		lease, err := redis.NewLease(a.redis, sweepLeaseKey, cfg.Sweeper.LeaseTTL)
		if err != nil {
			return err
		}
		sweeperOpts = append(sweeperOpts, sweeper.WithLease(lease))
	} else {
		a.logger.InfoContext(ctx, "redis not configured, sweeper runs without a cluster lease")
	}
	a.sweeper, err = sweeper.New(a.matches, a.emitter, rematcher, sweeperOpts...)
	return err
}

func (a *app) qualificationGate() (*qualification.Gate, error) {
	if a.cfg.Oracles.QualificationURL == "" {
		return nil, fmt.Errorf("set %s_QUALIFICATION_URL", config.DefaultPrefix)
	}
	oracle, err := adapters.NewQualificationClient(a.cfg.Oracles.QualificationURL, a.cfg.Oracles.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	return qualification.NewGate(oracle, qualification.WithLogger(a.logger))
}

// scorer returns a rule-only scorer when no prediction oracle is configured.
func (a *app) scorer(m *matchingmetrics.Metrics) (*scoring.Scorer, error) {
	w := a.cfg.Matching.Weights
	fallback := scoring.NewRuleStrategy(scoring.Weights{
		TrustScore:        w.TrustScore,
		LocationProximity: w.LocationProximity,
		TimeWaiting:       w.TimeWaiting,
		CompletedCycles:   w.CompletedCycles,
		Randomization:     w.Randomization,
	}, a.cfg.Matching.JitterSeed)

	opts := []scoring.Option{scoring.WithLogger(a.logger), scoring.WithMetrics(m)}
	if url := a.cfg.Oracles.PredictionURL; url != "" {
		oracle, err := adapters.NewPredictionClient(url, a.cfg.Oracles.HTTPTimeout)
		if err != nil {
			return nil, err
		}
		model, err := scoring.NewModelStrategy(oracle,
			scoring.WithTimeout(a.cfg.Matching.ScorerTimeout),
			scoring.WithBreaker(circuit.New("prediction_oracle")),
			scoring.WithFlags(a.flags),
			scoring.WithModelLogger(a.logger),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scoring.WithPrimary(model))
	} else {
		a.logger.Info("prediction oracle not configured, scoring is rule-based only")
	}
	return scoring.New(fallback, opts...)
}

// publishers picks Kafka when brokers are configured and log-only otherwise.
func (a *app) publishers(ctx context.Context) (notify.Sink, ports.Rematcher, error) {
	k := a.cfg.Kafka
	if len(k.Brokers) == 0 {
		a.logger.InfoContext(ctx, "kafka not configured, intents and re-match requests are logged only")
		return notify.NewLogSink(a.logger), notify.NewLogRematcher(a.logger), nil
	}

	client, err := kafka.NewClient(k.Brokers)
	if err != nil {
		return nil, nil, err
	}
	a.kafka = client
	a.closers = append(a.closers, client.Close)

	if err := kafka.EnsureTopics(ctx, client, k.Partitions, k.ReplicationFactor, k.NotificationsTopic, k.RematchTopic); err != nil {
		return nil, nil, err
	}
	sink, err := kafka.NewSink(client, k.NotificationsTopic)
	if err != nil {
		return nil, nil, err
	}
	rematcher, err := kafka.NewRematcher(client, k.RematchTopic, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return sink, rematcher, nil
}

// ping reports the first unhealthy dependency.
func (a *app) ping(ctx context.Context) error {
	var errs []error
	if err := a.db.PingContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if a.pool != nil {
		if err := a.pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("candidate database: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
