package mocks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports"
	"givecycle/internal/matching/ports/mocks"
)

var (
	_ ports.QualificationOracle = (*mocks.MockQualificationOracle)(nil)
	_ ports.PredictionOracle    = (*mocks.MockPredictionOracle)(nil)
	_ ports.CandidateDirectory  = (*mocks.MockCandidateDirectory)(nil)
	_ ports.MatchStore          = (*mocks.MockMatchStore)(nil)
	_ ports.Notifier            = (*mocks.MockNotifier)(nil)
	_ ports.Rematcher           = (*mocks.MockRematcher)(nil)
	_ ports.Lease               = (*mocks.MockLease)(nil)
)

func TestMockMatchStore_CreatePendingMatchPassesTheMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMatchStore(ctrl)

	m, err := models.NewPendingMatch("donor-1", "r1", 5000, 0.5, models.SourceRule, time.Now(), 24*time.Hour)
	require.NoError(t, err)

	conflict := errors.New("conflict")
	store.EXPECT().CreatePendingMatch(gomock.Any(), m).Return(conflict)

	var s ports.MatchStore = store
	assert.ErrorIs(t, s.CreatePendingMatch(context.Background(), m), conflict)
}
