// Package match persists Match rows.
package match

import (
	"context"
	"sort"
	"sync"
	"time"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports"
	"givecycle/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// InMemoryStore is a single-mutex store. Every check-and-write happens under
// the lock, which gives the same guarantees as the partial unique indexes of
// the Postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]*models.Match
	order   []uuid.UUID
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{matches: make(map[uuid.UUID]*models.Match)}
}

func (s *InMemoryStore) CreatePendingMatch(_ context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.matches {
		if existing.DonorID == m.DonorID && existing.Status == models.StatusPending {
			return ports.ErrDonorHasPendingMatch
		}
		if existing.RecipientID == m.RecipientID && existing.Status.IsActive() {
			return ports.ErrRecipientHasActive
		}
	}
	cp := *m
	s.matches[m.ID] = &cp
	s.order = append(s.order, m.ID)
	return nil
}

func (s *InMemoryStore) BulkExpirePending(_ context.Context, now time.Time) ([]*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*models.Match
	for _, id := range s.order {
		m := s.matches[id]
		if !m.IsOverdue(now) {
			continue
		}
		m.Status = models.StatusExpired
		m.UpdatedAt = now
		cp := *m
		expired = append(expired, &cp)
	}
	return expired, nil
}

func (s *InMemoryStore) FindExpiredPending(_ context.Context, now time.Time, limit int) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Match
	for _, id := range s.order {
		m := s.matches[id]
		if m.IsOverdue(now) {
			cp := *m
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *InMemoryStore) SetPriority(_ context.Context, id uuid.UUID, priority int, now time.Time) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if m.Status != models.StatusPending {
		return nil, sentinel.ErrInvalidState
	}
	m.PriorityScore = priority
	m.UpdatedAt = now
	cp := *m
	return &cp, nil
}

func (s *InMemoryStore) Transition(_ context.Context, id uuid.UUID, from, to models.MatchStatus, now time.Time) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if m.Status != from || !from.CanTransitionTo(to) || to == models.StatusExpired {
		return nil, sentinel.ErrInvalidState
	}
	m.Status = to
	m.UpdatedAt = now
	cp := *m
	return &cp, nil
}

// LatestByRecipient returns the most recent match of each recipient in ids.
func (s *InMemoryStore) LatestByRecipient(_ context.Context, ids []string) (map[string]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make(map[string]*models.Match)
	for _, id := range s.order {
		m := s.matches[id]
		if _, ok := want[m.RecipientID]; !ok {
			continue
		}
		if prev, ok := out[m.RecipientID]; !ok || !m.CreatedAt.Before(prev.CreatedAt) {
			cp := *m
			out[m.RecipientID] = &cp
		}
	}
	return out, nil
}

// ActiveRecipients returns recipients that currently hold an active match.
func (s *InMemoryStore) ActiveRecipients(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{})
	for _, m := range s.matches {
		if m.Status.IsActive() {
			out[m.RecipientID] = struct{}{}
		}
	}
	return out, nil
}

// All returns every match ordered by creation.
func (s *InMemoryStore) All() []*models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Match, 0, len(s.matches))
	for _, id := range s.order {
		cp := *s.matches[id]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
