package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports"
	"givecycle/internal/platform/features"
	"givecycle/internal/platform/logger"
	"givecycle/pkg/platform/circuit"
)

// DefaultModelTimeout bounds a single prediction call.
const DefaultModelTimeout = 800 * time.Millisecond

// ModelStrategy delegates to the prediction oracle under a hard timeout.
type ModelStrategy struct {
	oracle  ports.PredictionOracle
	timeout time.Duration
	breaker *circuit.Breaker
	flags   *features.Manager
	logger  *slog.Logger
}

// ModelOption configures a ModelStrategy.
type ModelOption func(*ModelStrategy)

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) ModelOption {
	return func(m *ModelStrategy) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithBreaker stops calling the oracle while it keeps failing.
func WithBreaker(b *circuit.Breaker) ModelOption {
	return func(m *ModelStrategy) {
		m.breaker = b
	}
}

// WithFlags consults the model_scoring flag before every call.
func WithFlags(f *features.Manager) ModelOption {
	return func(m *ModelStrategy) {
		m.flags = f
	}
}

// WithModelLogger sets the logger for breaker transitions.
func WithModelLogger(l *slog.Logger) ModelOption {
	return func(m *ModelStrategy) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModelStrategy constructs the external-model strategy.
func NewModelStrategy(oracle ports.PredictionOracle, opts ...ModelOption) (*ModelStrategy, error) {
	if oracle == nil {
		return nil, errors.New("prediction oracle is required")
	}
	m := &ModelStrategy{
		oracle:  oracle,
		timeout: DefaultModelTimeout,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *ModelStrategy) Kind() Kind { return KindModel }

type prediction struct {
	score float64
	err   error
}

// Evaluate returns the oracle score clamped to [0, 1]. Errors, panics,
// timeouts and non-finite scores are all returned as errors and count
// against the breaker. Cancellation of ctx is returned as ctx.Err() and
// does not.
func (m *ModelStrategy) Evaluate(ctx context.Context, f models.Features, amount int64) (float64, error) {
	if !m.flags.IsEnabled(features.ModelScoring) {
		return 0, ErrModelDisabled
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.breaker != nil && !m.breaker.Allow() {
		return 0, ErrCircuitOpen
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	// The oracle may ignore ctx; the select below enforces the bound regardless.
	done := make(chan prediction, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- prediction{err: fmt.Errorf("prediction oracle panicked: %v", r)}
			}
		}()
		score, err := m.oracle.PredictScore(callCtx, f, amount)
		done <- prediction{score: score, err: err}
	}()

	var p prediction
	select {
	case p = <-done:
	case <-callCtx.Done():
		p = prediction{err: ErrModelTimeout}
	}
	// A caller that gave up says nothing about the oracle's health.
	if err := ctx.Err(); err != nil {
		if m.breaker != nil {
			m.breaker.ReleaseProbe()
		}
		return 0, err
	}
	if p.err == nil && (math.IsNaN(p.score) || math.IsInf(p.score, 0)) {
		p.err = ErrInvalidScore
	}

	m.record(ctx, p.err)
	if p.err != nil {
		return 0, p.err
	}
	return clamp(p.score, 0, 1), nil
}

func (m *ModelStrategy) record(ctx context.Context, err error) {
	if m.breaker == nil {
		return
	}
	if err != nil {
		if _, change := m.breaker.RecordFailure(); change.Opened {
			m.logger.WarnContext(ctx, "prediction oracle circuit opened",
				"breaker", m.breaker.Name(),
				"error", err,
			)
		}
		return
	}
	if _, change := m.breaker.RecordSuccess(); change.Closed {
		m.logger.InfoContext(ctx, "prediction oracle circuit closed",
			"breaker", m.breaker.Name(),
		)
	}
}
