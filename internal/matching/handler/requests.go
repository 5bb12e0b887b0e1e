package handler

import (
	"strings"

	"givecycle/internal/matching/allocator"
	"givecycle/internal/matching/models"
	dErrors "givecycle/pkg/domain-errors"
)

const maxIDLength = 128

// AllocateRequest is the HTTP request body for POST /v1/allocations.
type AllocateRequest struct {
	DonorID     string             `json:"donor_id"`
	Amount      int64              `json:"amount"`
	Preferences models.Preferences `json:"preferences"`
}

// Validate implements httputil.Validatable.
func (r *AllocateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.DonorID) > maxIDLength {
		return dErrors.New(dErrors.CodeValidation, "donor_id is too long")
	}
	domain := r.toDomain()
	if err := domain.Validate(); err != nil {
		return err
	}
	r.DonorID = domain.DonorID
	r.Preferences = domain.Preferences
	return nil
}

func (r *AllocateRequest) toDomain() allocator.AllocateRequest {
	return allocator.AllocateRequest{
		DonorID:     r.DonorID,
		Amount:      r.Amount,
		Preferences: r.Preferences,
	}
}

// PriorityRequest is the body of PUT /v1/admin/matches/{id}/priority.
type PriorityRequest struct {
	PriorityScore *int `json:"priority_score"`
}

func (r *PriorityRequest) Validate() error {
	if r == nil || r.PriorityScore == nil {
		return dErrors.New(dErrors.CodeValidation, "priority_score is required")
	}
	if *r.PriorityScore < 0 || *r.PriorityScore > allocator.MaxPriority {
		return dErrors.New(dErrors.CodeValidation, "priority_score is out of range")
	}
	return nil
}

// TransitionRequest is the body of POST /v1/matches/{id}/transitions.
type TransitionRequest struct {
	Status string `json:"status"`

	parsed models.MatchStatus
}

func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	st, err := models.ParseMatchStatus(r.Status)
	if err != nil {
		return err
	}
	r.parsed = st
	return nil
}

// ParsedStatus returns the validated target status.
func (r *TransitionRequest) ParsedStatus() models.MatchStatus {
	return r.parsed
}

// FlagRequest is the body of PUT /v1/admin/flags/{name}.
type FlagRequest struct {
	Enabled *bool `json:"enabled"`
}

func (r *FlagRequest) Validate() error {
	if r == nil || r.Enabled == nil {
		return dErrors.New(dErrors.CodeValidation, "enabled is required")
	}
	return nil
}
