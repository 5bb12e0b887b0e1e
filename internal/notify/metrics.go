package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons.
const (
	DropOverflow    = "overflow"
	DropCircuitOpen = "circuit_open"
	DropSinkError   = "sink_error"
)

// Metrics provides observability for intent delivery.
type Metrics struct {
	Enqueued    prometheus.Counter
	Delivered   prometheus.Counter
	Dropped     *prometheus.CounterVec
	BufferDepth prometheus.Gauge
	CircuitOpen prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Enqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "givecycle_intents_enqueued_total",
			Help: "Notification intents accepted by the emitter",
		}),
		Delivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "givecycle_intents_delivered_total",
			Help: "Notification intents handed to the sink",
		}),
		Dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "givecycle_intents_dropped_total",
			Help: "Notification intents dropped by reason",
		}, []string{"reason"}),
		BufferDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "givecycle_intents_buffer_depth",
			Help: "Intents waiting for delivery",
		}),
		CircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "givecycle_intents_circuit_open",
			Help: "1 while the sink circuit breaker is open",
		}),
	}
}

func (m *Metrics) incEnqueued() {
	if m == nil {
		return
	}
	m.Enqueued.Inc()
}

func (m *Metrics) addDelivered(n int) {
	if m == nil {
		return
	}
	m.Delivered.Add(float64(n))
}

func (m *Metrics) addDropped(reason string, n int) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) setDepth(n int) {
	if m == nil {
		return
	}
	m.BufferDepth.Set(float64(n))
}

func (m *Metrics) setCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
