package scoring

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math"

	"givecycle/internal/matching/models"

	"github.com/cespare/xxhash/v2"
)

const (
	// TimeWaitingHalfSaturationDays is the wait at which the time-waiting
	// term reaches half its weight.
	TimeWaitingHalfSaturationDays = 7.0
	// CompletedCyclesCap bounds the completed-cycles term.
	CompletedCyclesCap = 10.0
	// CategoryPreferenceBonus applies to the reserved category feature.
	CategoryPreferenceBonus = 0.3
)

// Weights are the rule-based coefficients.
type Weights struct {
	TrustScore        float64
	LocationProximity float64
	TimeWaiting       float64
	CompletedCycles   float64
	Randomization     float64
}

// DefaultWeights returns the production weight vector.
func DefaultWeights() Weights {
	return Weights{
		TrustScore:        0.40,
		LocationProximity: 0.20,
		TimeWaiting:       0.20,
		CompletedCycles:   0.15,
		Randomization:     0.05,
	}
}

// Sanitize replaces negative or non-finite weights with defaults.
func (w *Weights) Sanitize() {
	d := DefaultWeights()
	fix := func(v *float64, def float64) {
		if *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = def
		}
	}
	fix(&w.TrustScore, d.TrustScore)
	fix(&w.LocationProximity, d.LocationProximity)
	fix(&w.TimeWaiting, d.TimeWaiting)
	fix(&w.CompletedCycles, d.CompletedCycles)
	fix(&w.Randomization, d.Randomization)
}

// RuleStrategy is the deterministic fallback. For a fixed seed, identical
// features and amount always produce the identical score.
type RuleStrategy struct {
	weights Weights
	seed    uint64
}

// NewRuleStrategy builds the strategy. A zero seed draws a random one, which
// then stays fixed for the lifetime of the strategy.
func NewRuleStrategy(w Weights, seed uint64) *RuleStrategy {
	w.Sanitize()
	if seed == 0 {
		seed = randomSeed()
	}
	return &RuleStrategy{weights: w, seed: seed}
}

func (r *RuleStrategy) Kind() Kind { return KindRule }

// Seed returns the jitter seed in use.
func (r *RuleStrategy) Seed() uint64 { return r.seed }

// Evaluate never returns an error.
func (r *RuleStrategy) Evaluate(_ context.Context, f models.Features, amount int64) (float64, error) {
	return r.Score(f, amount), nil
}

// Score computes the weighted formula clamped to [0, 1].
func (r *RuleStrategy) Score(f models.Features, amount int64) float64 {
	w := r.weights
	t := math.Max(finite(f.TimeWaiting), 0)
	cycles := math.Min(math.Max(finite(f.CompletedCycles), 0), CompletedCyclesCap)

	s := w.TrustScore*clamp(finite(f.TrustScore), 0, 1) +
		w.LocationProximity*clamp(finite(f.LocationProximity), 0, 1) +
		w.TimeWaiting*(t/(t+TimeWaitingHalfSaturationDays)) +
		w.CompletedCycles*(cycles/CompletedCyclesCap) +
		CategoryPreferenceBonus*clamp(finite(f.CategoryPreference), 0, 1) +
		w.Randomization*r.jitter(f, amount)

	return clamp(s, 0, 1)
}

// jitter maps (seed, features, amount) to [0, 1).
func (r *RuleStrategy) jitter(f models.Features, amount int64) float64 {
	var buf [8]byte
	d := xxhash.New()
	binary.LittleEndian.PutUint64(buf[:], r.seed)
	_, _ = d.Write(buf[:])
	for _, v := range f.Vector() {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(amount))
	_, _ = d.Write(buf[:])
	return float64(d.Sum64()>>11) / (1 << 53)
}

func randomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0x9e3779b97f4a7c15
	}
	if s := binary.LittleEndian.Uint64(b[:]); s != 0 {
		return s
	}
	return 1
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
