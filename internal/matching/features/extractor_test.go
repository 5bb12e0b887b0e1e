package features

import (
	"math"
	"testing"
	"time"

	"givecycle/internal/matching/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ExtractorSuite struct {
	suite.Suite
	extractor *Extractor
	now       time.Time
}

func TestExtractorSuite(t *testing.T) {
	suite.Run(t, new(ExtractorSuite))
}

func (s *ExtractorSuite) SetupTest() {
	s.extractor = New()
	s.now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *ExtractorSuite) candidate() models.Candidate {
	waitingSince := s.now.Add(-10 * 24 * time.Hour)
	dob := time.Date(1990, 6, 16, 0, 0, 0, 0, time.UTC)
	return models.Candidate{
		ID:                   "c1",
		TrustScore:           0.8,
		City:                 "Lagos",
		CreatedAt:            s.now.Add(-100 * 24 * time.Hour),
		DateOfBirth:          &dob,
		OldestPendingCycleAt: &waitingSince,
		DonationHistory:      models.DonationHistory{Count: 3, TotalAmount: 12000},
	}
}

func (s *ExtractorSuite) TestFullVector() {
	f := s.extractor.Extract(s.candidate(), models.Qualification{Qualifies: true, CompletedCycles: 4}, Request{Location: " lagos "}, s.now)

	s.InDelta(0.8, f.TrustScore, 1e-9)
	s.Equal(1.0, f.LocationProximity)
	s.InDelta(10.0, f.TimeWaiting, 1e-9)
	s.Equal(4.0, f.CompletedCycles)
	s.Equal(3.0, f.DonationHistory)
	s.Equal(12000.0, f.DonationVolume)
	s.Equal(0.0, f.CategoryPreference)
	s.Equal(35.0, f.Age, "birthday is tomorrow")
	s.InDelta(100.0, f.AccountAge, 1e-9)
	s.Len(f.Vector(), len(models.FeatureNames))
}

func (s *ExtractorSuite) TestMissingOptionalInputs() {
	c := s.candidate()
	c.DateOfBirth = nil
	c.OldestPendingCycleAt = nil

	f := s.extractor.Extract(c, models.Qualification{}, Request{}, s.now)

	s.Equal(0.0, f.Age)
	s.Equal(0.0, f.TimeWaiting)
	s.Equal(0.0, f.LocationProximity, "no requested location")
}

func (s *ExtractorSuite) TestLocationMismatch() {
	f := s.extractor.Extract(s.candidate(), models.Qualification{}, Request{Location: "Abuja"}, s.now)
	s.Equal(0.0, f.LocationProximity)
}

func (s *ExtractorSuite) TestTrustScoreClamped() {
	c := s.candidate()
	c.TrustScore = 1.7
	s.Equal(1.0, s.extractor.Extract(c, models.Qualification{}, Request{}, s.now).TrustScore)
	c.TrustScore = math.NaN()
	s.Equal(0.0, s.extractor.Extract(c, models.Qualification{}, Request{}, s.now).TrustScore)
}

func TestExtract_Deterministic(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	c := models.Candidate{ID: "c", TrustScore: 0.4, City: "Accra", CreatedAt: now.Add(-time.Hour)}
	e := New()

	first := e.Extract(c, models.Qualification{CompletedCycles: 1}, Request{Location: "Accra"}, now)
	for range 10 {
		assert.Equal(t, first, e.Extract(c, models.Qualification{CompletedCycles: 1}, Request{Location: "Accra"}, now))
	}
}
