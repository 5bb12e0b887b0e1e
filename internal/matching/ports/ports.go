// Package ports declares the collaborators the matching engine consumes and produces.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"givecycle/internal/matching/models"
	"givecycle/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// Conflicts returned by MatchStore.CreatePendingMatch. Both wrap sentinel.ErrConflict.
var (
	ErrDonorHasPendingMatch = fmt.Errorf("%w: donor already has a pending match", sentinel.ErrConflict)
	ErrRecipientHasActive   = fmt.Errorf("%w: recipient already has an active match", sentinel.ErrConflict)
)

// QualificationOracle decides program eligibility for a candidate.
// Implementations may block on network I/O.
type QualificationOracle interface {
	CheckQualification(ctx context.Context, userID string) (*models.Qualification, error)
}

// PredictionOracle is the external scoring model.
type PredictionOracle interface {
	PredictScore(ctx context.Context, features models.Features, amount int64) (float64, error)
}

// CandidateDirectory returns the bounded candidate pool for a donor.
// Implementations exclude excludeID, inactive, banned and non-approved users,
// and users that are already the recipient of an active match.
// Order of the returned slice is the pool order used for tie-breaking.
type CandidateDirectory interface {
	FindCandidates(ctx context.Context, excludeID string, filter models.CandidateFilter, limit int) ([]models.Candidate, error)
}

// MatchStore persists matches.
//
// CreatePendingMatch must be an atomic conditional write: it returns
// ErrDonorHasPendingMatch or ErrRecipientHasActive instead of writing a
// second pending match for the donor or a second active match for the recipient.
//
// BulkExpirePending must transition only rows with status pending and
// expires_at before now, and return exactly the rows it transitioned.
type MatchStore interface {
	CreatePendingMatch(ctx context.Context, match *models.Match) error
	BulkExpirePending(ctx context.Context, now time.Time) ([]*models.Match, error)
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.Match, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	SetPriority(ctx context.Context, id uuid.UUID, priority int, now time.Time) (*models.Match, error)
	Transition(ctx context.Context, id uuid.UUID, from, to models.MatchStatus, now time.Time) (*models.Match, error)
}

// Notifier accepts intents for best-effort delivery. Emit never fails the caller.
type Notifier interface {
	Emit(ctx context.Context, intent models.Intent)
}

// Rematcher signals the upstream request flow to re-enter a recipient into the pool.
type Rematcher interface {
	Rematch(ctx context.Context, req models.RematchRequest) error
}

// Lease guards a singleton task across processes. Renew extends a held lease
// and reports false once the lease was lost.
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Renew(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}
