package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the matching engine.
type Metrics struct {
	// Allocation outcomes: matched, none, conflict, error
	AllocationOutcome *prometheus.CounterVec
	AllocationLatency prometheus.Histogram

	CandidatesEvaluated prometheus.Counter
	// Candidates dropped before scoring, by reason
	CandidatesExcluded *prometheus.CounterVec

	// Scores produced, by strategy
	ScoresBySource *prometheus.CounterVec
	// Primary strategy failures absorbed by the fallback, by reason
	ScorerFallbacks *prometheus.CounterVec

	// Sweep ticks: completed, failed, skipped_running, skipped_lease
	SweepRuns        *prometheus.CounterVec
	SweepLatency     prometheus.Histogram
	MatchesExpired   prometheus.Counter
	FollowUpFailures *prometheus.CounterVec
}

// New creates matching metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AllocationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "givecycle_allocation_outcomes_total",
			Help: "Allocation passes by outcome",
		}, []string{"outcome"}),

		AllocationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "givecycle_allocation_duration_seconds",
			Help:    "Duration of a full allocation pass including oracle fan-out",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		CandidatesEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "givecycle_candidates_evaluated_total",
			Help: "Candidates fetched into an allocation pool",
		}),

		CandidatesExcluded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "givecycle_candidates_excluded_total",
			Help: "Candidates excluded before scoring by reason",
		}, []string{"reason"}),

		ScoresBySource: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "givecycle_scores_total",
			Help: "Candidate scores produced by strategy",
		}, []string{"source"}),

		ScorerFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "givecycle_scorer_fallbacks_total",
			Help: "Primary scorer failures absorbed by the rule-based fallback",
		}, []string{"reason"}),

		SweepRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "givecycle_sweep_runs_total",
			Help: "Expiration sweep ticks by result",
		}, []string{"result"}),

		SweepLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "givecycle_sweep_duration_seconds",
			Help:    "Duration of an expiration sweep including follow-ups",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),

		MatchesExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "givecycle_matches_expired_total",
			Help: "Pending matches transitioned to expired",
		}),

		FollowUpFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "givecycle_sweep_follow_up_failures_total",
			Help: "Per-row sweep follow-up failures by step",
		}, []string{"step"}),
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.AllocationOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveAllocationLatency(d time.Duration) {
	if m != nil {
		m.AllocationLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) AddCandidatesEvaluated(n int) {
	if m != nil {
		m.CandidatesEvaluated.Add(float64(n))
	}
}

func (m *Metrics) IncrementExcluded(reason string) {
	if m != nil {
		m.CandidatesExcluded.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementScore(source string) {
	if m != nil {
		m.ScoresBySource.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) IncrementFallback(reason string) {
	if m != nil {
		m.ScorerFallbacks.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementSweepRun(result string) {
	if m != nil {
		m.SweepRuns.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveSweepLatency(d time.Duration) {
	if m != nil {
		m.SweepLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) AddExpired(n int) {
	if m != nil {
		m.MatchesExpired.Add(float64(n))
	}
}

func (m *Metrics) IncrementFollowUpFailure(step string) {
	if m != nil {
		m.FollowUpFailures.WithLabelValues(step).Inc()
	}
}
