// Package qualification runs the eligibility oracle and the configured
// threshold gates. Both fail closed: any doubt excludes the candidate.
package qualification

import (
	"context"
	"errors"
	"log/slog"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports"
	"givecycle/internal/platform/logger"
)

// Exclusion reasons recorded in logs and metrics.
const (
	ReasonOracleError        = "oracle_error"
	ReasonBelowMinTrust      = "below_min_trust_score"
	ReasonAboveMaxWaiting    = "above_max_time_waiting"
	ReasonBelowMinCycles     = "below_min_completed_cycles"
	ReasonDisqualifiedOracle = "disqualified"
	ReasonIneligibleProfile  = "ineligible_profile"
)

// MetricReason maps an exclusion reason to a bounded metric label. Free-text
// reasons from the oracle collapse to ReasonDisqualifiedOracle.
func MetricReason(reason string) string {
	switch reason {
	case ReasonOracleError, ReasonBelowMinTrust, ReasonAboveMaxWaiting,
		ReasonBelowMinCycles, ReasonDisqualifiedOracle, ReasonIneligibleProfile:
		return reason
	default:
		return ReasonDisqualifiedOracle
	}
}

// Thresholds are applied after feature extraction and before scoring.
// MaxTimeWaiting of 0 disables the upper bound.
type Thresholds struct {
	MinTrustScore      float64
	MaxTimeWaiting     float64
	MinCompletedCycles int
}

// Admit reports whether f passes every threshold, and the failing reason if not.
func (t Thresholds) Admit(f models.Features) (bool, string) {
	if f.TrustScore < t.MinTrustScore {
		return false, ReasonBelowMinTrust
	}
	if t.MaxTimeWaiting > 0 && f.TimeWaiting > t.MaxTimeWaiting {
		return false, ReasonAboveMaxWaiting
	}
	if f.CompletedCycles < float64(t.MinCompletedCycles) {
		return false, ReasonBelowMinCycles
	}
	return true, ""
}

// Gate wraps the qualification oracle.
type Gate struct {
	oracle ports.QualificationOracle
	logger *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for exclusion records.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate constructs a Gate.
func NewGate(oracle ports.QualificationOracle, opts ...Option) (*Gate, error) {
	if oracle == nil {
		return nil, errors.New("qualification oracle is required")
	}
	g := &Gate{oracle: oracle, logger: logger.Discard()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Check asks the oracle about candidateID. Oracle errors and empty answers
// disqualify the candidate; they are never returned.
func (g *Gate) Check(ctx context.Context, candidateID string) models.Qualification {
	q, err := g.oracle.CheckQualification(ctx, candidateID)
	if err != nil || q == nil {
		g.logger.WarnContext(ctx, "qualification oracle failed, excluding candidate",
			"candidate_id", candidateID,
			"error", err,
		)
		return models.Qualification{Qualifies: false, Reason: ReasonOracleError}
	}
	if !q.Qualifies {
		reason := q.Reason
		if reason == "" {
			reason = ReasonDisqualifiedOracle
		}
		g.logger.DebugContext(ctx, "candidate disqualified",
			"candidate_id", candidateID,
			"reason", reason,
		)
		return models.Qualification{Qualifies: false, Reason: reason, CompletedCycles: q.CompletedCycles}
	}
	return *q
}
