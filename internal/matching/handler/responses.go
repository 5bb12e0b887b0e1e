package handler

import (
	"time"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/sweeper"
)

// Allocation statuses.
const (
	StatusMatched = "matched"
	StatusNoMatch = "no_match"
)

// MatchResponse is the public view of a match.
type MatchResponse struct {
	ID            string    `json:"id"`
	DonorID       string    `json:"donor_id"`
	RecipientID   string    `json:"recipient_id"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	PriorityScore int       `json:"priority_score"`
	Score         float64   `json:"score"`
	ScoreSource   string    `json:"score_source"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AllocateResponse wraps the allocation outcome. A no_match outcome carries
// retry=true and no match.
type AllocateResponse struct {
	Status string         `json:"status"`
	Retry  bool           `json:"retry,omitempty"`
	Match  *MatchResponse `json:"match,omitempty"`
}

// SweepResponse reports a manually triggered sweep.
type SweepResponse struct {
	StartedAt        time.Time `json:"started_at"`
	Expired          int       `json:"expired"`
	FollowUpFailures int       `json:"follow_up_failures"`
	DurationMS       int64     `json:"duration_ms"`
}

// BacklogResponse lists pending matches past their deadline.
type BacklogResponse struct {
	Count   int              `json:"count"`
	Matches []*MatchResponse `json:"matches"`
}

func fromMatch(m *models.Match) *MatchResponse {
	return &MatchResponse{
		ID:            m.ID.String(),
		DonorID:       m.DonorID,
		RecipientID:   m.RecipientID,
		Amount:        m.Amount,
		Status:        string(m.Status),
		PriorityScore: m.PriorityScore,
		Score:         m.Score,
		ScoreSource:   string(m.ScoreSource),
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromReport(r sweeper.Report) SweepResponse {
	return SweepResponse{
		StartedAt:        r.StartedAt,
		Expired:          r.Expired,
		FollowUpFailures: r.FollowUpFailures,
		DurationMS:       r.Duration.Milliseconds(),
	}
}

func fromBacklog(ms []*models.Match) BacklogResponse {
	out := BacklogResponse{Count: len(ms), Matches: make([]*MatchResponse, 0, len(ms))}
	for _, m := range ms {
		out.Matches = append(out.Matches, fromMatch(m))
	}
	return out
}
