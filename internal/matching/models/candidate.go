package models

import "time"

// VerificationApproved is the only KYC status eligible for matching.
const VerificationApproved = "approved"

// DonationHistory aggregates a user's prior donations.
type DonationHistory struct {
	Count       int   `json:"count"`
	TotalAmount int64 `json:"total_amount"`
}

// Candidate is a user evaluated as a potential recipient. Profile fields are
// owned by KYC and moderation flows and are read-only here.
type Candidate struct {
	ID           string
	TrustScore   float64
	Active       bool
	Banned       bool
	Verification string
	City         string
	Faith        string
	CreatedAt    time.Time
	DateOfBirth  *time.Time

	// OldestPendingCycleAt is the creation time of the candidate's oldest
	// unfulfilled request for funds, nil when there is none.
	OldestPendingCycleAt *time.Time
	DonationHistory      DonationHistory
	// PriorityScore comes from the candidate's most recent match when that
	// match is pending or expired, otherwise DefaultPriority.
	PriorityScore int
}

// Eligible reports whether the profile passes the static pool filters.
func (c Candidate) Eligible() bool {
	return c.Active && !c.Banned && c.Verification == VerificationApproved
}

// Qualification is the per-attempt eligibility decision. Never persisted.
type Qualification struct {
	Qualifies       bool   `json:"qualifies"`
	Reason          string `json:"reason"`
	CompletedCycles int    `json:"completed_cycles"`
}

// Preferences narrows the candidate pool for one request.
type Preferences struct {
	Location string `json:"location,omitempty"`
	Faith    string `json:"faith,omitempty"`
}

// CandidateFilter is passed to the candidate directory.
type CandidateFilter struct {
	Location string
	Faith    string
}
