// Package allocator pairs a donor with the best qualified recipient and
// records the pairing as a pending match with a fixed expiry window.
package allocator

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"givecycle/internal/matching/features"
	"givecycle/internal/matching/metrics"
	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports"
	"givecycle/internal/matching/qualification"
	"givecycle/internal/matching/scoring"
	"givecycle/internal/platform/logger"
	dErrors "givecycle/pkg/domain-errors"
	"givecycle/pkg/platform/sentinel"
	"givecycle/pkg/requestcontext"
)

// Allocation outcomes recorded in metrics.
const (
	OutcomeMatched  = "matched"
	OutcomeNone     = "none"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// maxRecipientRetries bounds how many ranked candidates are tried when the
// best one was taken by a concurrent allocation.
const maxRecipientRetries = 3

// Config holds allocation tunables.
type Config struct {
	PoolSize       int
	MaxConcurrency int
	ExpiryWindow   time.Duration
	Thresholds     qualification.Thresholds
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		PoolSize:       100,
		MaxConcurrency: 16,
		ExpiryWindow:   24 * time.Hour,
	}
}

// AllocateRequest is one donation request.
type AllocateRequest struct {
	DonorID     string
	Amount      int64
	Preferences models.Preferences
}

// Validate normalizes and checks the request.
func (r *AllocateRequest) Validate() error {
	r.DonorID = strings.TrimSpace(r.DonorID)
	r.Preferences.Location = strings.TrimSpace(r.Preferences.Location)
	r.Preferences.Faith = strings.TrimSpace(r.Preferences.Faith)
	if r.DonorID == "" {
		return dErrors.New(dErrors.CodeValidation, "donor_id is required")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// Service runs allocation passes.
type Service struct {
	directory ports.CandidateDirectory
	gate      *qualification.Gate
	extractor *features.Extractor
	scorer    *scoring.Scorer
	store     ports.MatchStore
	notifier  ports.Notifier

	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.PoolSize > 0 {
			s.cfg.PoolSize = cfg.PoolSize
		}
		if cfg.MaxConcurrency > 0 {
			s.cfg.MaxConcurrency = cfg.MaxConcurrency
		}
		if cfg.ExpiryWindow > 0 {
			s.cfg.ExpiryWindow = cfg.ExpiryWindow
		}
		s.cfg.Thresholds = cfg.Thresholds
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs the allocator with its collaborators.
func New(
	directory ports.CandidateDirectory,
	gate *qualification.Gate,
	scorer *scoring.Scorer,
	store ports.MatchStore,
	notifier ports.Notifier,
	opts ...Option,
) (*Service, error) {
	if directory == nil {
		return nil, errors.New("candidate directory is required")
	}
	if gate == nil {
		return nil, errors.New("qualification gate is required")
	}
	if scorer == nil {
		return nil, errors.New("scorer is required")
	}
	if store == nil {
		return nil, errors.New("match store is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}

	s := &Service{
		directory: directory,
		gate:      gate,
		extractor: features.New(),
		scorer:    scorer,
		store:     store,
		notifier:  notifier,
		cfg:       DefaultConfig(),
		logger:    logger.Discard(),
		tracer:    otel.Tracer("givecycle/matching/allocator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Allocate runs one allocation pass. It returns (nil, nil) when no candidate
// qualifies; callers should ask the requester to retry later.
func (s *Service) Allocate(ctx context.Context, req AllocateRequest) (*models.Match, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "matching.allocate", trace.WithAttributes(
		attribute.String("donor_id", req.DonorID),
		attribute.Int64("amount", req.Amount),
	))
	defer span.End()

	match, outcome, err := s.allocate(ctx, req)
	s.metrics.IncrementOutcome(outcome)
	s.metrics.ObserveAllocationLatency(time.Since(start))
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return match, err
}

func (s *Service) allocate(ctx context.Context, req AllocateRequest) (*models.Match, string, error) {
	if err := req.Validate(); err != nil {
		return nil, OutcomeError, err
	}
	now := requestcontext.Now(ctx)

	candidates, err := s.directory.FindCandidates(ctx, req.DonorID, models.CandidateFilter{
		Location: req.Preferences.Location,
		Faith:    req.Preferences.Faith,
	}, s.cfg.PoolSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "candidate pool query failed",
			"donor_id", req.DonorID,
			"error", err,
		)
		return nil, OutcomeError, dErrors.Wrap(err, dErrors.CodeUnavailable, "candidate pool query failed")
	}
	if len(candidates) > s.cfg.PoolSize {
		candidates = candidates[:s.cfg.PoolSize]
	}
	s.metrics.AddCandidatesEvaluated(len(candidates))

	ranked := s.rank(ctx, req, candidates, now)
	if err := ctx.Err(); err != nil {
		return nil, OutcomeError, dErrors.Wrap(err, dErrors.CodeTimeout, "allocation cancelled")
	}
	if len(ranked) == 0 {
		s.logger.InfoContext(ctx, "no qualified candidates",
			"donor_id", req.DonorID,
			"pool_size", len(candidates),
		)
		return nil, OutcomeNone, nil
	}

	match, err := s.commit(ctx, req, ranked, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, OutcomeConflict, err
		}
		return nil, OutcomeError, err
	}

	for _, intent := range models.MatchFormedIntents(match, now) {
		s.notifier.Emit(ctx, intent)
	}

	s.logger.InfoContext(ctx, "match formed",
		"match_id", match.ID,
		"donor_id", match.DonorID,
		"recipient_id", match.RecipientID,
		"score", match.Score,
		"score_source", match.ScoreSource,
		"expires_at", match.ExpiresAt,
	)
	return match, OutcomeMatched, nil
}

// rank qualifies, extracts, gates and scores every candidate in parallel and
// returns the survivors best-first. Per-candidate failures only exclude that candidate.
func (s *Service) rank(ctx context.Context, req AllocateRequest, candidates []models.Candidate, now time.Time) []models.ScoredCandidate {
	slots := make([]*models.ScoredCandidate, len(candidates))

	var g errgroup.Group
	g.SetLimit(max(min(len(candidates), s.cfg.MaxConcurrency), 1))
	for i, c := range candidates {
		g.Go(func() error {
			slots[i] = s.evaluate(ctx, req, i, c, now)
			return nil
		})
	}
	_ = g.Wait()

	ranked := make([]models.ScoredCandidate, 0, len(slots))
	for _, sc := range slots {
		if sc != nil {
			ranked = append(ranked, *sc)
		}
	}
	slices.SortFunc(ranked, func(a, b models.ScoredCandidate) int {
		switch {
		case a.Outranks(b):
			return -1
		case b.Outranks(a):
			return 1
		default:
			return 0
		}
	})
	return ranked
}

func (s *Service) evaluate(ctx context.Context, req AllocateRequest, index int, c models.Candidate, now time.Time) *models.ScoredCandidate {
	if c.ID == req.DonorID || !c.Eligible() {
		s.exclude(ctx, c.ID, qualification.ReasonIneligibleProfile)
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	q := s.gate.Check(ctx, c.ID)
	if !q.Qualifies {
		s.exclude(ctx, c.ID, q.Reason)
		return nil
	}

	f := s.extractor.Extract(c, q, features.Request{Location: req.Preferences.Location, Amount: req.Amount}, now)
	if ok, reason := s.cfg.Thresholds.Admit(f); !ok {
		s.exclude(ctx, c.ID, reason)
		return nil
	}

	res := s.scorer.Score(ctx, f, req.Amount)
	return &models.ScoredCandidate{
		Candidate: c,
		Features:  f,
		Score:     res.Score,
		Source:    res.Source,
		Index:     index,
	}
}

func (s *Service) exclude(ctx context.Context, candidateID, reason string) {
	s.metrics.IncrementExcluded(qualification.MetricReason(reason))
	s.logger.DebugContext(ctx, "candidate excluded",
		"candidate_id", candidateID,
		"reason", reason,
	)
}

// commit writes the pending match for the best candidate. When a concurrent
// pass already took that recipient it moves down the ranking; a donor-side
// conflict ends the pass.
func (s *Service) commit(ctx context.Context, req AllocateRequest, ranked []models.ScoredCandidate, now time.Time) (*models.Match, error) {
	attempts := min(len(ranked), maxRecipientRetries)
	var lastErr error
	for _, best := range ranked[:attempts] {
		match, err := models.NewPendingMatch(req.DonorID, best.Candidate.ID, req.Amount, best.Score, best.Source, now, s.cfg.ExpiryWindow)
		if err != nil {
			return nil, err
		}

		err = s.store.CreatePendingMatch(ctx, match)
		switch {
		case err == nil:
			return match, nil
		case errors.Is(err, ports.ErrRecipientHasActive):
			s.logger.InfoContext(ctx, "recipient taken by concurrent allocation, trying next candidate",
				"donor_id", req.DonorID,
				"recipient_id", best.Candidate.ID,
			)
			lastErr = err
			continue
		case errors.Is(err, sentinel.ErrConflict):
			s.logger.WarnContext(ctx, "duplicate pending match rejected",
				"donor_id", req.DonorID,
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "donor already has a pending match")
		default:
			s.logger.ErrorContext(ctx, "failed to create pending match",
				"donor_id", req.DonorID,
				"recipient_id", best.Candidate.ID,
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create match")
		}
	}
	return nil, dErrors.Wrap(lastErr, dErrors.CodeConflict, "all top candidates were matched concurrently")
}
