package candidate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/store/match"
)

type InMemoryDirectorySuite struct {
	suite.Suite
	matches   *match.InMemoryStore
	directory *InMemoryDirectory
	ctx       context.Context
	now       time.Time
}

func TestInMemoryDirectorySuite(t *testing.T) {
	suite.Run(t, new(InMemoryDirectorySuite))
}

func (s *InMemoryDirectorySuite) SetupTest() {
	s.matches = match.NewInMemory()
	s.directory = NewInMemory(s.matches)
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryDirectorySuite) profile(id, city string) models.Candidate {
	return models.Candidate{
		ID:           id,
		TrustScore:   0.7,
		Active:       true,
		Verification: models.VerificationApproved,
		City:         city,
		Faith:        "christian",
		CreatedAt:    s.now.Add(-90 * 24 * time.Hour),
	}
}

func (s *InMemoryDirectorySuite) ids(cs []models.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func (s *InMemoryDirectorySuite) TestStaticFilters() {
	banned := s.profile("banned", "Lagos")
	banned.Banned = true
	inactive := s.profile("inactive", "Lagos")
	inactive.Active = false
	unverified := s.profile("unverified", "Lagos")
	unverified.Verification = "pending"

	for _, c := range []models.Candidate{s.profile("donor", "Lagos"), banned, inactive, unverified, s.profile("ok", "Lagos")} {
		s.directory.Put(c)
	}

	pool, err := s.directory.FindCandidates(s.ctx, "donor", models.CandidateFilter{}, 10)
	s.Require().NoError(err)
	s.Equal([]string{"ok"}, s.ids(pool))
}

func (s *InMemoryDirectorySuite) TestPreferencesAndLimit() {
	s.directory.Put(s.profile("a", "Lagos"))
	s.directory.Put(s.profile("b", " lagos "))
	s.directory.Put(s.profile("c", "Abuja"))
	other := s.profile("d", "Lagos")
	other.Faith = "muslim"
	s.directory.Put(other)

	s.Run("location is a trimmed case-insensitive filter", func() {
		pool, err := s.directory.FindCandidates(s.ctx, "x", models.CandidateFilter{Location: "LAGOS"}, 10)
		s.Require().NoError(err)
		s.Equal([]string{"a", "b", "d"}, s.ids(pool))
	})

	s.Run("faith narrows further", func() {
		pool, err := s.directory.FindCandidates(s.ctx, "x", models.CandidateFilter{Location: "Lagos", Faith: "christian"}, 10)
		s.Require().NoError(err)
		s.Equal([]string{"a", "b"}, s.ids(pool))
	})

	s.Run("limit caps the pool in registration order", func() {
		pool, err := s.directory.FindCandidates(s.ctx, "x", models.CandidateFilter{}, 2)
		s.Require().NoError(err)
		s.Equal([]string{"a", "b"}, s.ids(pool))
	})
}

func (s *InMemoryDirectorySuite) TestOccupancyAndPriority() {
	s.directory.Put(s.profile("busy", "Lagos"))
	s.directory.Put(s.profile("boosted", "Lagos"))
	s.directory.Put(s.profile("plain", "Lagos"))

	busy, err := models.NewPendingMatch("d1", "busy", 100, 0.5, models.SourceRule, s.now, time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.matches.CreatePendingMatch(s.ctx, busy))

	boosted, err := models.NewPendingMatch("d2", "boosted", 100, 0.5, models.SourceRule, s.now.Add(-2*time.Hour), time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.matches.CreatePendingMatch(s.ctx, boosted))
	_, err = s.matches.SetPriority(s.ctx, boosted.ID, 999, s.now.Add(-90*time.Minute))
	s.Require().NoError(err)
	_, err = s.matches.BulkExpirePending(s.ctx, s.now.Add(-30*time.Minute))
	s.Require().NoError(err)

	pool, err := s.directory.FindCandidates(s.ctx, "donor", models.CandidateFilter{}, 10)
	s.Require().NoError(err)
	s.Equal([]string{"boosted", "plain"}, s.ids(pool))
	s.Equal(999, pool[0].PriorityScore)
	s.Equal(models.DefaultPriority, pool[1].PriorityScore)
}
