// Package features converts a qualified candidate into the numeric vector
// consumed by the scorer.
package features

import (
	"strings"
	"time"

	"givecycle/internal/matching/models"
)

const day = 24 * time.Hour

// Request is the per-allocation context the extractor reads.
type Request struct {
	Location string
	Amount   int64
}

// Extractor is stateless. All outputs are a pure function of the inputs.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract builds the feature vector for c as of now.
func (e *Extractor) Extract(c models.Candidate, q models.Qualification, req Request, now time.Time) models.Features {
	return models.Features{
		TrustScore:         clamp01(c.TrustScore),
		LocationProximity:  locationProximity(c.City, req.Location),
		TimeWaiting:        daysSince(c.OldestPendingCycleAt, now),
		CompletedCycles:    float64(max(q.CompletedCycles, 0)),
		DonationHistory:    float64(max(c.DonationHistory.Count, 0)),
		DonationVolume:     float64(max(c.DonationHistory.TotalAmount, 0)),
		CategoryPreference: 0,
		Age:                float64(ageInYears(c.DateOfBirth, now)),
		AccountAge:         daysSince(&c.CreatedAt, now),
	}
}

// locationProximity is exact city matching, not distance.
func locationProximity(city, requested string) float64 {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(city), requested) {
		return 1
	}
	return 0
}

func daysSince(t *time.Time, now time.Time) float64 {
	if t == nil || t.IsZero() || !t.Before(now) {
		return 0
	}
	return now.Sub(*t).Hours() / day.Hours()
}

func ageInYears(dob *time.Time, now time.Time) int {
	if dob == nil || dob.IsZero() || dob.After(now) {
		return 0
	}
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return max(years, 0)
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
