// Package sweeper expires pending matches whose commitment window has
// passed, penalizes the donor and re-enters the recipient.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"givecycle/internal/matching/metrics"
	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports"
	"givecycle/internal/platform/logger"
	dErrors "givecycle/pkg/domain-errors"
	"givecycle/pkg/requestcontext"
)

// Sweep results recorded in metrics.
const (
	ResultCompleted      = "completed"
	ResultFailed         = "failed"
	ResultSkippedRunning = "skipped_running"
	ResultSkippedLease   = "skipped_lease"
)

// DefaultBacklogLimit caps Backlog when no limit is given.
const DefaultBacklogLimit = 100

// stepRematch labels re-match follow-up failures.
const stepRematch = "rematch"

var (
	// ErrAlreadyRunning is returned by Trigger when a sweep is in flight in this process.
	ErrAlreadyRunning = errors.New("sweep already running")
	// ErrLeaseHeld is returned by Trigger when another instance holds the lease.
	ErrLeaseHeld = errors.New("sweep lease held by another instance")
)

// Config holds sweeper tunables.
type Config struct {
	Interval            time.Duration
	PenaltyDuration     time.Duration
	FollowUpConcurrency int
	RunOnStart          bool
	// LeaseRenewEvery renews a held lease while a sweep runs. Zero disables
	// renewal, in which case the lease TTL must outlast the longest sweep.
	LeaseRenewEvery     time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Interval:            6 * time.Hour,
		PenaltyDuration:     72 * time.Hour,
		FollowUpConcurrency: 8,
		RunOnStart:          true,
	}
}

// Report summarizes one sweep.
type Report struct {
	StartedAt        time.Time
	Expired          int
	FollowUpFailures int
	Duration         time.Duration
}

// Sweeper runs expiration passes on a fixed cadence.
type Sweeper struct {
	store     ports.MatchStore
	notifier  ports.Notifier
	rematcher ports.Rematcher
	lease     ports.Lease

	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time

	running atomic.Bool
}

// Option configures a Sweeper.
type Option func(*Sweeper)

func WithConfig(cfg Config) Option {
	return func(s *Sweeper) {
		if cfg.Interval > 0 {
			s.cfg.Interval = cfg.Interval
		}
		if cfg.PenaltyDuration > 0 {
			s.cfg.PenaltyDuration = cfg.PenaltyDuration
		}
		if cfg.FollowUpConcurrency > 0 {
			s.cfg.FollowUpConcurrency = cfg.FollowUpConcurrency
		}
		s.cfg.RunOnStart = cfg.RunOnStart
		if cfg.LeaseRenewEvery > 0 {
			s.cfg.LeaseRenewEvery = cfg.LeaseRenewEvery
		}
	}
}

// WithLease makes the sweeper a cluster singleton. Set
// Config.LeaseRenewEvery below the lease TTL so a long sweep keeps it.
func WithLease(l ports.Lease) Option {
	return func(s *Sweeper) {
		s.lease = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Sweeper) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock fixes the time source used at the start of each sweep. Without
// it the sweep uses requestcontext.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a sweeper.
func New(store ports.MatchStore, notifier ports.Notifier, rematcher ports.Rematcher, opts ...Option) (*Sweeper, error) {
	if store == nil {
		return nil, errors.New("match store is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if rematcher == nil {
		return nil, errors.New("rematcher is required")
	}
	s := &Sweeper{
		store:     store,
		notifier:  notifier,
		rematcher: rematcher,
		cfg:       DefaultConfig(),
		logger:    logger.Discard(),
		tracer:    otel.Tracer("givecycle/matching/sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sweeps every Interval until ctx is cancelled. Ticks that fire while a
// sweep is still running are skipped, not queued. Run waits for the sweep in
// flight before returning.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sweeper started",
		"interval", s.cfg.Interval.String(),
		"lease", s.lease != nil,
	)

	var wg sync.WaitGroup
	defer wg.Wait()

	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.tick(ctx)
		}()
	}

	if s.cfg.RunOnStart {
		tick()
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tick()
		case <-ctx.Done():
			s.logger.InfoContext(context.WithoutCancel(ctx), "sweeper stopping")
			return ctx.Err()
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	report, err := s.Trigger(ctx)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.logger.WarnContext(ctx, "sweep tick skipped, previous sweep still running")
	case errors.Is(err, ErrLeaseHeld):
		s.logger.DebugContext(ctx, "sweep tick skipped, lease held elsewhere")
	case errors.Is(err, context.Canceled):
	case err != nil:
		s.logger.ErrorContext(ctx, "sweep failed, will retry next tick", "error", err)
	default:
		s.logger.InfoContext(ctx, "sweep completed",
			"expired", report.Expired,
			"follow_up_failures", report.FollowUpFailures,
			"duration_ms", report.Duration.Milliseconds(),
		)
	}
}

// Trigger runs one guarded sweep: it refuses to overlap with a sweep in this
// process and, when a lease is configured, with sweeps on other instances.
func (s *Sweeper) Trigger(ctx context.Context) (Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.IncrementSweepRun(ResultSkippedRunning)
		return Report{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	if s.lease != nil {
		ok, err := s.lease.Acquire(ctx)
		if err != nil {
			s.metrics.IncrementSweepRun(ResultFailed)
			return Report{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to acquire sweep lease")
		}
		if !ok {
			s.metrics.IncrementSweepRun(ResultSkippedLease)
			return Report{}, ErrLeaseHeld
		}
		stopRenewal := s.keepLease(ctx)
		defer func() {
			stopRenewal()
			if err := s.lease.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.WarnContext(ctx, "failed to release sweep lease", "error", err)
			}
		}()
	}

	now := requestcontext.Now(ctx)
	if s.now != nil {
		now = s.now()
	}
	return s.RunOnce(requestcontext.WithTime(ctx, now))
}

// keepLease renews the lease every LeaseRenewEvery until the returned stop
// func is called. stop waits for the renewal goroutine to exit.
func (s *Sweeper) keepLease(ctx context.Context) (stop func()) {
	if s.cfg.LeaseRenewEvery <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.cfg.LeaseRenewEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			ok, err := s.lease.Renew(ctx)
			switch {
			case err != nil:
				if ctx.Err() == nil {
					s.logger.WarnContext(ctx, "failed to renew sweep lease", "error", err)
				}
			case !ok:
				s.logger.WarnContext(ctx, "sweep lease lost while sweeping")
				return
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// IsRunning reports whether a sweep is in flight in this process.
func (s *Sweeper) IsRunning() bool {
	return s.running.Load()
}

// Backlog lists up to limit matches the next sweep would expire, as of
// requestcontext.Now(ctx). It changes nothing.
func (s *Sweeper) Backlog(ctx context.Context, limit int) ([]*models.Match, error) {
	if limit <= 0 {
		limit = DefaultBacklogLimit
	}
	overdue, err := s.store.FindExpiredPending(ctx, requestcontext.Now(ctx), limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list overdue matches")
	}
	return overdue, nil
}

// RunOnce expires every overdue pending match as of requestcontext.Now(ctx)
// and runs the follow-ups for the rows it transitioned. Only the bulk update
// can fail the sweep; follow-up failures are counted in the report.
func (s *Sweeper) RunOnce(ctx context.Context) (Report, error) {
	now := requestcontext.Now(ctx)
	report := Report{StartedAt: now}
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "matching.sweep", trace.WithAttributes(
		attribute.String("now", now.Format(time.RFC3339)),
	))
	defer span.End()

	expired, err := s.store.BulkExpirePending(ctx, now)
	if err != nil {
		s.metrics.IncrementSweepRun(ResultFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, ResultFailed)
		return report, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to expire pending matches")
	}
	report.Expired = len(expired)
	s.metrics.AddExpired(len(expired))

	report.FollowUpFailures = s.followUps(ctx, expired, now)
	report.Duration = time.Since(start)

	s.metrics.IncrementSweepRun(ResultCompleted)
	s.metrics.ObserveSweepLatency(report.Duration)
	span.SetAttributes(
		attribute.Int("expired", report.Expired),
		attribute.Int("follow_up_failures", report.FollowUpFailures),
	)
	return report, nil
}

// followUps processes each expired row independently. A failing row never
// stops the others and never reverts the committed transition.
func (s *Sweeper) followUps(ctx context.Context, expired []*models.Match, now time.Time) int {
	if len(expired) == 0 {
		return 0
	}
	var failures atomic.Int32

	var g errgroup.Group
	g.SetLimit(s.cfg.FollowUpConcurrency)
	for _, m := range expired {
		g.Go(func() error {
			failures.Add(int32(s.followUp(ctx, m, now)))
			return nil
		})
	}
	_ = g.Wait()
	return int(failures.Load())
}

func (s *Sweeper) followUp(ctx context.Context, m *models.Match, now time.Time) (failed int) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncrementFollowUpFailure("panic")
			s.logger.ErrorContext(ctx, "match follow-up panicked",
				"match_id", m.ID,
				"panic", fmt.Sprint(r),
			)
			failed = 1
		}
	}()

	s.notifier.Emit(ctx, models.DonorPenaltyIntent(m, now, s.cfg.PenaltyDuration))
	s.notifier.Emit(ctx, models.RecipientRematchIntent(m, now))

	err := s.rematcher.Rematch(ctx, models.RematchRequest{
		RecipientID:   m.RecipientID,
		ExpiredMatch:  m.ID,
		Amount:        m.Amount,
		PriorityScore: m.PriorityScore,
		RequestedAt:   now,
	})
	if err != nil {
		s.metrics.IncrementFollowUpFailure(stepRematch)
		s.logger.ErrorContext(ctx, "failed to request re-match",
			"match_id", m.ID,
			"recipient_id", m.RecipientID,
			"error", err,
		)
		return 1
	}

	s.logger.InfoContext(ctx, "match expired",
		"match_id", m.ID,
		"donor_id", m.DonorID,
		"recipient_id", m.RecipientID,
		"expires_at", m.ExpiresAt,
	)
	return 0
}
