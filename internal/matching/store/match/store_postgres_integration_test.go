//go:build integration

package match_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports"
	"givecycle/internal/matching/store/match"
	"givecycle/pkg/platform/sentinel"
	"givecycle/pkg/platform/tx"
	"givecycle/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *match.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(match.Migrate(context.Background(), s.postgres.DB))
	s.store = match.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "matches"))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) pending(donor, recipient string, createdAt time.Time) *models.Match {
	m, err := models.NewPendingMatch(donor, recipient, 5000, 0.42, models.SourceModel, createdAt, 24*time.Hour)
	s.Require().NoError(err)
	return m
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	m := s.pending("donor-1", "recipient-1", s.now)
	s.Require().NoError(s.store.CreatePendingMatch(ctx, m))

	found, err := s.store.FindByID(ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(m.DonorID, found.DonorID)
	s.Equal(m.RecipientID, found.RecipientID)
	s.Equal(models.StatusPending, found.Status)
	s.Equal(models.SourceModel, found.ScoreSource)
	s.InDelta(0.42, found.Score, 1e-9)
	s.True(found.ExpiresAt.Equal(m.CreatedAt.Add(24 * time.Hour)))

	_, err = s.store.FindByID(ctx, s.pending("x", "y", s.now).ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUniqueIndexes() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreatePendingMatch(ctx, s.pending("donor-1", "recipient-1", s.now)))

	err := s.store.CreatePendingMatch(ctx, s.pending("donor-1", "recipient-2", s.now))
	s.ErrorIs(err, ports.ErrDonorHasPendingMatch)

	err = s.store.CreatePendingMatch(ctx, s.pending("donor-2", "recipient-1", s.now))
	s.ErrorIs(err, ports.ErrRecipientHasActive)
}

func (s *PostgresStoreSuite) TestConcurrentCreateSameDonor() {
	ctx := context.Background()
	const goroutines = 20

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.CreatePendingMatch(ctx, s.pending("donor-race", fmt.Sprintf("recipient-%d", i), s.now))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ports.ErrDonorHasPendingMatch):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestBulkExpirePending() {
	ctx := context.Background()
	overdue := s.pending("donor-1", "recipient-1", s.now.Add(-48*time.Hour))
	confirmed := s.pending("donor-2", "recipient-2", s.now.Add(-48*time.Hour))
	fresh := s.pending("donor-3", "recipient-3", s.now)
	for _, m := range []*models.Match{overdue, confirmed, fresh} {
		s.Require().NoError(s.store.CreatePendingMatch(ctx, m))
	}
	_, err := s.store.Transition(ctx, confirmed.ID, models.StatusPending, models.StatusConfirmed, s.now)
	s.Require().NoError(err)

	candidates, err := s.store.FindExpiredPending(ctx, s.now, 10)
	s.Require().NoError(err)
	s.Len(candidates, 1)

	expired, err := s.store.BulkExpirePending(ctx, s.now)
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(overdue.ID, expired[0].ID)
	s.Equal(models.StatusExpired, expired[0].Status)

	got, err := s.store.FindByID(ctx, confirmed.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, got.Status)

	again, err := s.store.BulkExpirePending(ctx, s.now)
	s.Require().NoError(err)
	s.Empty(again)
}

func (s *PostgresStoreSuite) TestSetPriorityAndTransitionGuards() {
	ctx := context.Background()
	m := s.pending("donor-1", "recipient-1", s.now)
	s.Require().NoError(s.store.CreatePendingMatch(ctx, m))

	updated, err := s.store.SetPriority(ctx, m.ID, 999, s.now)
	s.Require().NoError(err)
	s.Equal(999, updated.PriorityScore)

	_, err = s.store.Transition(ctx, m.ID, models.StatusConfirmed, models.StatusEscrowed, s.now)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.Transition(ctx, m.ID, models.StatusPending, models.StatusConfirmed, s.now)
	s.Require().NoError(err)

	_, err = s.store.SetPriority(ctx, m.ID, 5, s.now)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestLatestByRecipient() {
	ctx := context.Background()
	old := s.pending("donor-1", "recipient-1", s.now.Add(-72*time.Hour))
	s.Require().NoError(s.store.CreatePendingMatch(ctx, old))
	_, err := s.store.SetPriority(ctx, old.ID, 999, s.now.Add(-71*time.Hour))
	s.Require().NoError(err)
	_, err = s.store.BulkExpirePending(ctx, s.now)
	s.Require().NoError(err)

	latest, err := s.store.LatestByRecipient(ctx, []string{"recipient-1", "recipient-9"})
	s.Require().NoError(err)
	s.Require().Contains(latest, "recipient-1")
	s.Equal(models.StatusExpired, latest["recipient-1"].Status)
	s.Equal(999, latest["recipient-1"].PriorityScore)
	s.NotContains(latest, "recipient-9")
}

func (s *PostgresStoreSuite) TestRollbackDiscardsWrites() {
	ctx := context.Background()
	m := s.pending("donor-1", "recipient-1", s.now)

	sentinelErr := errors.New("abort")
	err := tx.Run(ctx, s.postgres.DB, func(txCtx context.Context) error {
		if err := s.store.CreatePendingMatch(txCtx, m); err != nil {
			return err
		}
		return sentinelErr
	})
	s.ErrorIs(err, sentinelErr)

	_, err = s.store.FindByID(ctx, m.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
