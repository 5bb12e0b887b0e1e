package models

import (
	"time"

	"github.com/google/uuid"
)

// IntentKind names a notification the engine asks the external notifier to deliver.
type IntentKind string

const (
	IntentMatchFormed    IntentKind = "match_formed"
	IntentMatchExpired   IntentKind = "match_expired"
	IntentDonorPenalized IntentKind = "donor_penalized"
)

// Audience is the party an intent is addressed to.
type Audience string

const (
	AudienceDonor     Audience = "donor"
	AudienceRecipient Audience = "recipient"
)

// Intent is a typed notification request. Delivery is best-effort.
type Intent struct {
	ID          uuid.UUID  `json:"id"`
	Kind        IntentKind `json:"kind"`
	Audience    Audience   `json:"audience"`
	DonorID     string     `json:"donor_id"`
	RecipientID string     `json:"recipient_id"`
	MatchID     uuid.UUID  `json:"match_id"`
	Amount      int64      `json:"amount"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	// RestrictedUntil is set on donor penalties; the moderation component applies it.
	RestrictedUntil *time.Time `json:"restricted_until,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

// AddresseeID returns the user the intent should reach.
func (i Intent) AddresseeID() string {
	if i.Audience == AudienceDonor {
		return i.DonorID
	}
	return i.RecipientID
}

// MatchFormedIntents builds one match_formed intent per party.
func MatchFormedIntents(m *Match, now time.Time) []Intent {
	deadline := m.ExpiresAt
	base := Intent{
		Kind:        IntentMatchFormed,
		DonorID:     m.DonorID,
		RecipientID: m.RecipientID,
		MatchID:     m.ID,
		Amount:      m.Amount,
		Deadline:    &deadline,
		OccurredAt:  now,
	}
	donor, recipient := base, base
	donor.ID, donor.Audience = uuid.New(), AudienceDonor
	recipient.ID, recipient.Audience = uuid.New(), AudienceRecipient
	return []Intent{donor, recipient}
}

// DonorPenaltyIntent notifies the donor of a missed deadline and the restriction period.
func DonorPenaltyIntent(m *Match, now time.Time, penalty time.Duration) Intent {
	deadline := m.ExpiresAt
	until := now.Add(penalty)
	return Intent{
		ID:              uuid.New(),
		Kind:            IntentDonorPenalized,
		Audience:        AudienceDonor,
		DonorID:         m.DonorID,
		RecipientID:     m.RecipientID,
		MatchID:         m.ID,
		Amount:          m.Amount,
		Deadline:        &deadline,
		RestrictedUntil: &until,
		OccurredAt:      now,
	}
}

// RecipientRematchIntent tells the recipient they will be re-matched.
func RecipientRematchIntent(m *Match, now time.Time) Intent {
	deadline := m.ExpiresAt
	return Intent{
		ID:          uuid.New(),
		Kind:        IntentMatchExpired,
		Audience:    AudienceRecipient,
		DonorID:     m.DonorID,
		RecipientID: m.RecipientID,
		MatchID:     m.ID,
		Amount:      m.Amount,
		Deadline:    &deadline,
		OccurredAt:  now,
	}
}

// RematchRequest asks the upstream request flow to put a recipient back in the pool.
type RematchRequest struct {
	RecipientID   string    `json:"recipient_id"`
	ExpiredMatch  uuid.UUID `json:"expired_match_id"`
	Amount        int64     `json:"amount"`
	PriorityScore int       `json:"priority_score"`
	RequestedAt   time.Time `json:"requested_at"`
}
