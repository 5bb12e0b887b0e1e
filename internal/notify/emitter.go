// Package notify hands typed notification intents to the external notifier
// without ever blocking or failing the caller.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"givecycle/internal/matching/models"
	"givecycle/internal/platform/logger"
	"givecycle/pkg/platform/circuit"
)

const shutdownFlushTimeout = 5 * time.Second

// Emitter buffers intents and delivers them from a single worker.
// Emit is safe for concurrent use.
type Emitter struct {
	sink       Sink
	buffer     *ringBuffer
	breaker    *circuit.Breaker
	batchSize  int
	flushEvery time.Duration
	wake       chan struct{}

	logger  *slog.Logger
	metrics *Metrics
}

// Option configures an Emitter.
type Option func(*Emitter)

func WithBufferSize(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.buffer = newRingBuffer(n)
		}
	}
}

func WithBatchSize(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(e *Emitter) {
		if d > 0 {
			e.flushEvery = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(e *Emitter) {
		if b != nil {
			e.breaker = b
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Emitter) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Emitter) {
		e.metrics = m
	}
}

// NewEmitter creates an emitter on sink. Call Run to start delivery.
func NewEmitter(sink Sink, opts ...Option) (*Emitter, error) {
	if sink == nil {
		return nil, errors.New("notification sink is required")
	}
	e := &Emitter{
		sink:       sink,
		buffer:     newRingBuffer(10000),
		breaker:    circuit.New("notify", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		batchSize:  100,
		flushEvery: 250 * time.Millisecond,
		wake:       make(chan struct{}, 1),
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Emit enqueues intent and returns immediately. When the buffer is full the
// oldest pending intent is dropped.
func (e *Emitter) Emit(ctx context.Context, intent models.Intent) {
	if e.buffer.push(intent) {
		e.metrics.addDropped(DropOverflow, 1)
		e.logger.WarnContext(ctx, "notification buffer full, dropped oldest intent")
	}
	e.metrics.incEnqueued()
	e.metrics.setDepth(e.buffer.len())

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of buffered intents.
func (e *Emitter) Pending() int {
	return e.buffer.len()
}

// Dropped returns how many intents overflowed the buffer.
func (e *Emitter) Dropped() int64 {
	return e.buffer.droppedTotal()
}

// Run delivers until ctx is cancelled, then makes a last bounded attempt to
// drain the buffer.
func (e *Emitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			e.Flush(flushCtx)
			cancel()
			return ctx.Err()
		case <-e.wake:
			e.Flush(ctx)
		case <-ticker.C:
			e.Flush(ctx)
		}
	}
}

// Flush delivers buffered intents batch by batch until the buffer is empty,
// the breaker rejects a batch, or ctx ends.
func (e *Emitter) Flush(ctx context.Context) {
	for ctx.Err() == nil {
		batch := e.buffer.popBatch(e.batchSize)
		if len(batch) == 0 {
			break
		}
		e.deliver(ctx, batch)
	}
	e.metrics.setDepth(e.buffer.len())
}

func (e *Emitter) deliver(ctx context.Context, batch []models.Intent) {
	if !e.breaker.Allow() {
		e.metrics.addDropped(DropCircuitOpen, len(batch))
		e.logger.DebugContext(ctx, "notification circuit open, dropping batch", "count", len(batch))
		return
	}

	if err := e.sink.Deliver(ctx, batch); err != nil {
		e.metrics.addDropped(DropSinkError, len(batch))
		_, change := e.breaker.RecordFailure()
		if change.Opened {
			e.metrics.setCircuitOpen(true)
			e.logger.WarnContext(ctx, "notification circuit opened", "error", err)
		}
		e.logger.ErrorContext(ctx, "failed to deliver notification intents",
			"count", len(batch),
			"error", err,
		)
		return
	}

	_, change := e.breaker.RecordSuccess()
	if change.Closed {
		e.metrics.setCircuitOpen(false)
		e.logger.InfoContext(ctx, "notification circuit closed")
	}
	e.metrics.addDelivered(len(batch))
}
