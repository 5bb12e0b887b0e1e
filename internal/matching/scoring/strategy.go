// Package scoring ranks qualified candidates.
//
// Two strategies implement Strategy: ModelStrategy delegates to the external
// prediction oracle and RuleStrategy applies a fixed weighted formula. Scorer
// runs a primary strategy and falls back to the rule strategy on any error,
// so every qualified candidate always receives a score.
package scoring

import (
	"context"
	"errors"

	"givecycle/internal/matching/models"
)

// Kind tags a strategy variant.
type Kind string

const (
	KindModel Kind = "model"
	KindRule  Kind = "rule"
)

// Source maps a strategy kind to the value recorded on a match.
func (k Kind) Source() models.ScoreSource {
	if k == KindModel {
		return models.SourceModel
	}
	return models.SourceRule
}

// Strategy scores one feature vector for a requested amount.
type Strategy interface {
	Kind() Kind
	Evaluate(ctx context.Context, f models.Features, amount int64) (float64, error)
}

// Result is a score and the strategy that produced it.
type Result struct {
	Score  float64
	Source models.ScoreSource
}

var (
	ErrModelDisabled = errors.New("model scoring disabled")
	ErrCircuitOpen   = errors.New("prediction oracle circuit open")
	ErrInvalidScore  = errors.New("prediction oracle returned a non-finite score")
	ErrModelTimeout  = errors.New("prediction oracle timed out")
)
