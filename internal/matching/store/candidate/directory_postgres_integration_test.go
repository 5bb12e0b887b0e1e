//go:build integration

package candidate_test

import (
	"context"
	_ "embed"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/store/candidate"
	"givecycle/internal/matching/store/match"
	"givecycle/pkg/testutil/containers"
)

//go:embed testdata/schema.sql
var userSchema string

type PostgresDirectorySuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	directory *candidate.PostgresDirectory
	matches   *match.PostgresStore
	now       time.Time
}

func TestPostgresDirectorySuite(t *testing.T) {
	suite.Run(t, new(PostgresDirectorySuite))
}

func (s *PostgresDirectorySuite) SetupSuite() {
	ctx := context.Background()
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(s.postgres.Exec(ctx, userSchema))
	s.Require().NoError(match.Migrate(ctx, s.postgres.DB))
	s.directory = candidate.NewPostgres(s.postgres.Pool)
	s.matches = match.NewPostgres(s.postgres.DB)
}

func (s *PostgresDirectorySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "matches", "donations", "pending_cycles", "users"))
	s.now = time.Now().UTC().Truncate(time.Second)
}

func (s *PostgresDirectorySuite) insertUser(id, city, verification string, banned bool, createdAt time.Time) {
	_, err := s.postgres.DB.Exec(`
		INSERT INTO users (id, trust_score, active, banned, verification_status, city, faith, created_at)
		VALUES ($1, 0.8, TRUE, $2, $3, $4, 'christian', $5)`,
		id, banned, verification, city, createdAt)
	s.Require().NoError(err)
}

func (s *PostgresDirectorySuite) TestFindCandidates() {
	ctx := context.Background()
	s.insertUser("donor", "Lagos", "approved", false, s.now.Add(-400*time.Hour))
	s.insertUser("alice", "Lagos", "approved", false, s.now.Add(-300*time.Hour))
	s.insertUser("bob", "Abuja", "approved", false, s.now.Add(-200*time.Hour))
	s.insertUser("carol", "Lagos", "pending", false, s.now.Add(-100*time.Hour))
	s.insertUser("dave", "Lagos", "approved", true, s.now.Add(-50*time.Hour))

	_, err := s.postgres.DB.Exec(`INSERT INTO pending_cycles (user_id, amount, created_at) VALUES ('alice', 5000, $1), ('alice', 100, $2)`,
		s.now.Add(-72*time.Hour), s.now.Add(-24*time.Hour))
	s.Require().NoError(err)
	_, err = s.postgres.DB.Exec(`INSERT INTO donations (donor_id, amount, created_at) VALUES ('alice', 1500, $1), ('alice', 2500, $1)`, s.now)
	s.Require().NoError(err)

	s.Run("static filters and stable order", func() {
		pool, err := s.directory.FindCandidates(ctx, "donor", models.CandidateFilter{}, 10)
		s.Require().NoError(err)
		s.Require().Len(pool, 2)
		s.Equal("alice", pool[0].ID)
		s.Equal("bob", pool[1].ID)

		alice := pool[0]
		s.Require().NotNil(alice.OldestPendingCycleAt)
		s.True(alice.OldestPendingCycleAt.Equal(s.now.Add(-72 * time.Hour)))
		s.Equal(models.DonationHistory{Count: 2, TotalAmount: 4000}, alice.DonationHistory)
		s.Nil(pool[1].OldestPendingCycleAt)
	})

	s.Run("location filter", func() {
		pool, err := s.directory.FindCandidates(ctx, "donor", models.CandidateFilter{Location: "lagos"}, 10)
		s.Require().NoError(err)
		s.Require().Len(pool, 1)
		s.Equal("alice", pool[0].ID)
	})

	s.Run("limit", func() {
		pool, err := s.directory.FindCandidates(ctx, "donor", models.CandidateFilter{}, 1)
		s.Require().NoError(err)
		s.Len(pool, 1)
	})
}

func (s *PostgresDirectorySuite) TestOccupancyAndPriority() {
	ctx := context.Background()
	s.insertUser("alice", "Lagos", "approved", false, s.now.Add(-300*time.Hour))
	s.insertUser("bob", "Lagos", "approved", false, s.now.Add(-200*time.Hour))

	busy, err := models.NewPendingMatch("d1", "bob", 100, 0.4, models.SourceRule, s.now, time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.matches.CreatePendingMatch(ctx, busy))

	old, err := models.NewPendingMatch("d2", "alice", 100, 0.4, models.SourceRule, s.now.Add(-3*time.Hour), time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.matches.CreatePendingMatch(ctx, old))
	_, err = s.matches.SetPriority(ctx, old.ID, 999, s.now.Add(-170*time.Minute))
	s.Require().NoError(err)
	_, err = s.matches.BulkExpirePending(ctx, s.now)
	s.Require().NoError(err)

	pool, err := s.directory.FindCandidates(ctx, "donor", models.CandidateFilter{}, 10)
	s.Require().NoError(err)
	s.Require().Len(pool, 1)
	s.Equal("alice", pool[0].ID)
	s.Equal(999, pool[0].PriorityScore)
}
