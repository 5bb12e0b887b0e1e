package qualification

import (
	"context"
	"errors"
	"testing"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports/mocks"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type GateSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	oracle *mocks.MockQualificationOracle
	gate   *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.oracle = mocks.NewMockQualificationOracle(s.ctrl)
	gate, err := NewGate(s.oracle)
	s.Require().NoError(err)
	s.gate = gate
}

func (s *GateSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GateSuite) TestNewGateRequiresOracle() {
	_, err := NewGate(nil)
	s.Error(err)
}

func (s *GateSuite) TestCheck() {
	ctx := context.Background()

	s.Run("qualified candidate passes through", func() {
		s.oracle.EXPECT().CheckQualification(ctx, "c1").
			Return(&models.Qualification{Qualifies: true, CompletedCycles: 5}, nil)

		q := s.gate.Check(ctx, "c1")
		s.True(q.Qualifies)
		s.Equal(5, q.CompletedCycles)
	})

	s.Run("oracle error fails closed", func() {
		s.oracle.EXPECT().CheckQualification(ctx, "c2").Return(nil, errors.New("timeout"))

		q := s.gate.Check(ctx, "c2")
		s.False(q.Qualifies)
		s.Equal(ReasonOracleError, q.Reason)
	})

	s.Run("nil answer fails closed", func() {
		s.oracle.EXPECT().CheckQualification(ctx, "c3").Return(nil, nil)

		q := s.gate.Check(ctx, "c3")
		s.False(q.Qualifies)
		s.Equal(ReasonOracleError, q.Reason)
	})

	s.Run("disqualification keeps oracle reason", func() {
		s.oracle.EXPECT().CheckQualification(ctx, "c4").
			Return(&models.Qualification{Qualifies: false, Reason: "cycle_in_progress"}, nil)

		q := s.gate.Check(ctx, "c4")
		s.False(q.Qualifies)
		s.Equal("cycle_in_progress", q.Reason)
	})
}

func (s *GateSuite) TestThresholds() {
	t := Thresholds{MinTrustScore: 0.3, MaxTimeWaiting: 60, MinCompletedCycles: 2}

	ok, reason := t.Admit(models.Features{TrustScore: 0.5, TimeWaiting: 10, CompletedCycles: 2})
	s.True(ok)
	s.Empty(reason)

	ok, reason = t.Admit(models.Features{TrustScore: 0.2, TimeWaiting: 10, CompletedCycles: 2})
	s.False(ok)
	s.Equal(ReasonBelowMinTrust, reason)

	ok, reason = t.Admit(models.Features{TrustScore: 0.5, TimeWaiting: 61, CompletedCycles: 2})
	s.False(ok)
	s.Equal(ReasonAboveMaxWaiting, reason)

	ok, reason = t.Admit(models.Features{TrustScore: 0.5, TimeWaiting: 10, CompletedCycles: 1})
	s.False(ok)
	s.Equal(ReasonBelowMinCycles, reason)

	ok, _ = Thresholds{}.Admit(models.Features{TimeWaiting: 10_000})
	s.True(ok, "zero thresholds admit everything")
}

func (s *GateSuite) TestMetricReason() {
	for _, known := range []string{
		ReasonOracleError, ReasonBelowMinTrust, ReasonAboveMaxWaiting,
		ReasonBelowMinCycles, ReasonDisqualifiedOracle, ReasonIneligibleProfile,
	} {
		s.Equal(known, MetricReason(known))
	}
	s.Equal(ReasonDisqualifiedOracle, MetricReason("kyc expired on 2026-03-01"))
	s.Equal(ReasonDisqualifiedOracle, MetricReason(""))
}
