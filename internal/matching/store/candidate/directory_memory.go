package candidate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"givecycle/internal/matching/models"
)

// MatchView is the part of the match store the directory needs to derive
// occupancy and priority.
type MatchView interface {
	LatestByRecipient(ctx context.Context, ids []string) (map[string]*models.Match, error)
	ActiveRecipients(ctx context.Context) (map[string]struct{}, error)
}

// InMemoryDirectory serves profiles registered with Put. Pool order is
// registration order.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	profiles []models.Candidate
	index    map[string]int
	matches  MatchView
}

// NewInMemory builds a directory backed by matches for occupancy. A nil
// view treats every recipient as free with default priority.
func NewInMemory(matches MatchView) *InMemoryDirectory {
	return &InMemoryDirectory{index: make(map[string]int), matches: matches}
}

// Put adds or replaces a profile.
func (d *InMemoryDirectory) Put(c models.Candidate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i, ok := d.index[c.ID]; ok {
		d.profiles[i] = c
		return
	}
	d.index[c.ID] = len(d.profiles)
	d.profiles = append(d.profiles, c)
}

func (d *InMemoryDirectory) FindCandidates(ctx context.Context, excludeID string, filter models.CandidateFilter, limit int) ([]models.Candidate, error) {
	active := map[string]struct{}{}
	if d.matches != nil {
		var err error
		if active, err = d.matches.ActiveRecipients(ctx); err != nil {
			return nil, fmt.Errorf("failed to load active recipients: %w", err)
		}
	}

	d.mu.RLock()
	var pool []models.Candidate
	for _, c := range d.profiles {
		if c.ID == excludeID || !c.Eligible() {
			continue
		}
		if _, busy := active[c.ID]; busy {
			continue
		}
		if !matchesFilter(c, filter) {
			continue
		}
		pool = append(pool, c)
		if limit > 0 && len(pool) == limit {
			break
		}
	}
	d.mu.RUnlock()

	if d.matches == nil || len(pool) == 0 {
		return pool, nil
	}

	ids := make([]string, len(pool))
	for i, c := range pool {
		ids[i] = c.ID
	}
	latest, err := d.matches.LatestByRecipient(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient priorities: %w", err)
	}
	for i := range pool {
		pool[i].PriorityScore = priorityFrom(latest[pool[i].ID])
	}
	return pool, nil
}

func matchesFilter(c models.Candidate, f models.CandidateFilter) bool {
	if loc := strings.TrimSpace(f.Location); loc != "" && !strings.EqualFold(strings.TrimSpace(c.City), loc) {
		return false
	}
	if faith := strings.TrimSpace(f.Faith); faith != "" && c.Faith != faith {
		return false
	}
	return true
}

func priorityFrom(m *models.Match) int {
	if m == nil {
		return models.DefaultPriority
	}
	if m.Status == models.StatusPending || m.Status == models.StatusExpired {
		return m.PriorityScore
	}
	return models.DefaultPriority
}
