package models

import (
	"time"

	dErrors "givecycle/pkg/domain-errors"

	"github.com/google/uuid"
)

// MatchStatus is the lifecycle state of a Match.
type MatchStatus string

const (
	StatusPending   MatchStatus = "pending"
	StatusConfirmed MatchStatus = "confirmed"
	StatusEscrowed  MatchStatus = "escrowed"
	StatusReleased  MatchStatus = "released"
	StatusExpired   MatchStatus = "expired"
)

// DefaultPriority is the priority score of a match nobody has boosted.
const DefaultPriority = 0

// ParseMatchStatus validates a status string.
func ParseMatchStatus(s string) (MatchStatus, error) {
	st := MatchStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid match status: "+s)
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s MatchStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusEscrowed, StatusReleased, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s MatchStatus) IsTerminal() bool {
	return s == StatusExpired || s == StatusReleased
}

// IsActive reports whether the match still occupies its recipient.
func (s MatchStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusEscrowed
}

// CanTransitionTo reports whether s -> next is a legal single step.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusExpired
	case StatusConfirmed:
		return next == StatusEscrowed
	case StatusEscrowed:
		return next == StatusReleased
	default:
		return false
	}
}

func (s MatchStatus) String() string {
	return string(s)
}

// ScoreSource records which scoring strategy produced a match's score.
type ScoreSource string

const (
	SourceModel ScoreSource = "model"
	SourceRule  ScoreSource = "rule"
)

// Match pairs a donor with a recipient for one commitment window.
// Rows are never hard-deleted.
type Match struct {
	ID            uuid.UUID   `json:"id"`
	DonorID       string      `json:"donor_id"`
	RecipientID   string      `json:"recipient_id"`
	Amount        int64       `json:"amount"`
	Status        MatchStatus `json:"status"`
	PriorityScore int         `json:"priority_score"`
	Score         float64     `json:"score"`
	ScoreSource   ScoreSource `json:"score_source"`
	CreatedAt     time.Time   `json:"created_at"`
	ExpiresAt     time.Time   `json:"expires_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewPendingMatch builds a pending match expiring window after now.
func NewPendingMatch(donorID, recipientID string, amount int64, score float64, source ScoreSource, now time.Time, window time.Duration) (*Match, error) {
	if donorID == "" || recipientID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "match requires donor and recipient")
	}
	if donorID == recipientID {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "donor cannot be matched with themselves")
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "match amount must be positive")
	}
	if window <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "expiry window must be positive")
	}
	now = now.UTC()
	return &Match{
		ID:            uuid.New(),
		DonorID:       donorID,
		RecipientID:   recipientID,
		Amount:        amount,
		Status:        StatusPending,
		PriorityScore: DefaultPriority,
		Score:         score,
		ScoreSource:   source,
		CreatedAt:     now,
		ExpiresAt:     now.Add(window),
		UpdatedAt:     now,
	}, nil
}

// IsOverdue reports whether a pending match passed its deadline at now.
func (m *Match) IsOverdue(now time.Time) bool {
	return m.Status == StatusPending && m.ExpiresAt.Before(now)
}
