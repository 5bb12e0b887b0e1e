package allocator

import (
	"context"
	"errors"

	"givecycle/internal/matching/models"
	dErrors "givecycle/pkg/domain-errors"
	"givecycle/pkg/platform/sentinel"
	"givecycle/pkg/requestcontext"

	"github.com/google/uuid"
)

// MaxPriority bounds operator overrides.
const MaxPriority = 10_000

// Get returns a match by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err, "match")
	}
	return m, nil
}

// SetPriority applies an operator override to a pending match. The value is
// read back as the recipient's priority in later allocation passes.
func (s *Service) SetPriority(ctx context.Context, id uuid.UUID, priority int) (*models.Match, error) {
	if priority < 0 || priority > MaxPriority {
		return nil, dErrors.New(dErrors.CodeValidation, "priority_score must be between 0 and 10000")
	}
	m, err := s.store.SetPriority(ctx, id, priority, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "priority can only be set on a pending match")
		}
		return nil, translateStoreError(err, "match")
	}
	s.logger.InfoContext(ctx, "match priority overridden",
		"match_id", id,
		"recipient_id", m.RecipientID,
		"priority_score", priority,
		"operator", requestcontext.Subject(ctx),
	)
	return m, nil
}

// Transition applies an external payment-flow status change. Expiry is
// reserved to the sweeper and is rejected here.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to models.MatchStatus) (*models.Match, error) {
	if !to.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid match status")
	}
	if to == models.StatusExpired {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "only the expiration sweeper may expire a match")
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err, "match")
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			"cannot transition match from "+current.Status.String()+" to "+to.String())
	}

	updated, err := s.store.Transition(ctx, id, current.Status, to, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "match status changed concurrently")
		}
		return nil, translateStoreError(err, "match")
	}
	s.logger.InfoContext(ctx, "match transitioned",
		"match_id", id,
		"from", current.Status,
		"to", to,
	)
	return updated, nil
}

func translateStoreError(err error, entity string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, entity+" not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to access "+entity+" store")
	}
}
