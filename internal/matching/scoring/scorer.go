package scoring

import (
	"context"
	"errors"
	"log/slog"

	"givecycle/internal/matching/metrics"
	"givecycle/internal/matching/models"
	"givecycle/internal/platform/logger"
)

// Scorer runs the primary strategy and falls back to the rule strategy.
type Scorer struct {
	primary  Strategy
	fallback *RuleStrategy
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithPrimary sets the strategy tried first. Without one, the rule strategy
// scores every candidate directly.
func WithPrimary(s Strategy) Option {
	return func(sc *Scorer) {
		sc.primary = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *Scorer) {
		if l != nil {
			sc.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(sc *Scorer) {
		sc.metrics = m
	}
}

// New builds a Scorer around the mandatory fallback.
func New(fallback *RuleStrategy, opts ...Option) (*Scorer, error) {
	if fallback == nil {
		return nil, errors.New("rule-based fallback strategy is required")
	}
	sc := &Scorer{fallback: fallback, logger: logger.Discard()}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Score always returns a result. Primary failures are logged and absorbed.
func (sc *Scorer) Score(ctx context.Context, f models.Features, amount int64) Result {
	if sc.primary != nil {
		score, err := sc.primary.Evaluate(ctx, f, amount)
		if err == nil {
			sc.metrics.IncrementScore(string(sc.primary.Kind()))
			return Result{Score: score, Source: sc.primary.Kind().Source()}
		}
		reason := fallbackReason(err)
		sc.metrics.IncrementFallback(reason)
		if reason != "disabled" {
			sc.logger.DebugContext(ctx, "primary scorer failed, using rule-based fallback",
				"strategy", sc.primary.Kind(),
				"reason", reason,
				"error", err,
			)
		}
	}

	sc.metrics.IncrementScore(string(KindRule))
	return Result{Score: sc.fallback.Score(f, amount), Source: models.SourceRule}
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrModelDisabled):
		return "disabled"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrModelTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrInvalidScore):
		return "invalid_score"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
