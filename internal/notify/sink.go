package notify

import (
	"context"
	"log/slog"
	"sync"

	"givecycle/internal/matching/models"
)

// Sink delivers a batch of intents to the external notifier.
type Sink interface {
	Deliver(ctx context.Context, batch []models.Intent) error
}

// LogSink writes intents to the log. Used when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, batch []models.Intent) error {
	for _, in := range batch {
		s.logger.InfoContext(ctx, "notification intent",
			"intent_id", in.ID,
			"kind", in.Kind,
			"audience", in.Audience,
			"addressee_id", in.AddresseeID(),
			"match_id", in.MatchID,
		)
	}
	return nil
}

// Recorder keeps every intent in memory. It is both a Sink and a
// synchronous ports.Notifier, which makes it convenient in tests.
type Recorder struct {
	mu      sync.Mutex
	intents []models.Intent
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Deliver(_ context.Context, batch []models.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, batch...)
	return nil
}

func (r *Recorder) Emit(_ context.Context, intent models.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intent)
}

// Intents returns a copy of everything recorded so far.
func (r *Recorder) Intents() []models.Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Intent, len(r.intents))
	copy(out, r.intents)
	return out
}

// OfKind filters recorded intents by kind.
func (r *Recorder) OfKind(kind models.IntentKind) []models.Intent {
	var out []models.Intent
	for _, in := range r.Intents() {
		if in.Kind == kind {
			out = append(out, in)
		}
	}
	return out
}

// Reset discards recorded intents.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = nil
}

// LogRematcher logs re-match requests. Used when no broker is configured;
// the recipient still re-enters the pool because the expired match no
// longer occupies them.
type LogRematcher struct {
	logger *slog.Logger
}

func NewLogRematcher(logger *slog.Logger) *LogRematcher {
	return &LogRematcher{logger: logger}
}

func (r *LogRematcher) Rematch(ctx context.Context, req models.RematchRequest) error {
	r.logger.InfoContext(ctx, "re-match requested",
		"recipient_id", req.RecipientID,
		"expired_match_id", req.ExpiredMatch,
		"amount", req.Amount,
		"priority_score", req.PriorityScore,
	)
	return nil
}
