package models

// Features is the fixed-shape numeric vector built per qualified candidate.
type Features struct {
	TrustScore        float64 `json:"trust_score"`
	LocationProximity float64 `json:"location_proximity"`
	// TimeWaiting is in days.
	TimeWaiting     float64 `json:"time_waiting"`
	CompletedCycles float64 `json:"completed_cycles"`
	DonationHistory float64 `json:"donation_history"`
	DonationVolume  float64 `json:"donation_volume"`
	// CategoryPreference is reserved and always 0.
	CategoryPreference float64 `json:"category_preference"`
	// Age is in whole years, 0 when date of birth is unknown.
	Age float64 `json:"age"`
	// AccountAge is in days.
	AccountAge float64 `json:"account_age"`
}

// FeatureNames lists Vector positions.
var FeatureNames = []string{
	"trust_score",
	"location_proximity",
	"time_waiting",
	"completed_cycles",
	"donation_history",
	"donation_volume",
	"category_preference",
	"age",
	"account_age",
}

// Vector returns the features in FeatureNames order.
func (f Features) Vector() []float64 {
	return []float64{
		f.TrustScore,
		f.LocationProximity,
		f.TimeWaiting,
		f.CompletedCycles,
		f.DonationHistory,
		f.DonationVolume,
		f.CategoryPreference,
		f.Age,
		f.AccountAge,
	}
}

// ScoredCandidate lives for one allocation pass.
type ScoredCandidate struct {
	Candidate Candidate
	Features  Features
	Score     float64
	Source    ScoreSource
	// Index is the candidate's position in the pool, used as the final tie-break.
	Index int
}

// Outranks reports whether s should be chosen over other.
// Order: priority desc, score desc, time waiting desc, pool index asc.
func (s ScoredCandidate) Outranks(other ScoredCandidate) bool {
	if s.Candidate.PriorityScore != other.Candidate.PriorityScore {
		return s.Candidate.PriorityScore > other.Candidate.PriorityScore
	}
	if s.Score != other.Score {
		return s.Score > other.Score
	}
	if s.Features.TimeWaiting != other.Features.TimeWaiting {
		return s.Features.TimeWaiting > other.Features.TimeWaiting
	}
	return s.Index < other.Index
}
