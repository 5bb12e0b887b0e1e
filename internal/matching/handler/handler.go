// Package handler exposes the matching engine over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"givecycle/internal/matching/allocator"
	"givecycle/internal/matching/models"
	"givecycle/internal/matching/sweeper"
	"givecycle/internal/platform/features"
	dErrors "givecycle/pkg/domain-errors"
	"givecycle/pkg/platform/httputil"
	"givecycle/pkg/requestcontext"
)

const maxBacklogLimit = 1000

// Service is the allocator surface used by the handlers.
type Service interface {
	Allocate(ctx context.Context, req allocator.AllocateRequest) (*models.Match, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Match, error)
	SetPriority(ctx context.Context, id uuid.UUID, priority int) (*models.Match, error)
	Transition(ctx context.Context, id uuid.UUID, to models.MatchStatus) (*models.Match, error)
}

// Sweeper triggers an out-of-band sweep and reports what the next one would expire.
type Sweeper interface {
	Trigger(ctx context.Context) (sweeper.Report, error)
	Backlog(ctx context.Context, limit int) ([]*models.Match, error)
}

// Handler wires matching endpoints to the allocator.
type Handler struct {
	service Service
	sweeper Sweeper
	flags   *features.Manager
	logger  *slog.Logger
}

// New constructs a handler. sweeper and flags may be nil, which disables
// the corresponding admin endpoints.
func New(service Service, sweeper Sweeper, flags *features.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		sweeper: sweeper,
		flags:   flags,
		logger:  logger,
	}
}

// Register mounts endpoints open to any authenticated service.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/allocations", h.HandleAllocate)
	r.Get("/v1/matches/{id}", h.HandleGetMatch)
}

// RegisterPayments mounts the payment-flow transition endpoint.
func (h *Handler) RegisterPayments(r chi.Router) {
	r.Post("/v1/matches/{id}/transitions", h.HandleTransition)
}

// RegisterAdmin mounts operator endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/v1/admin/matches/{id}/priority", h.HandleSetPriority)
	if h.sweeper != nil {
		r.Post("/v1/admin/sweeps", h.HandleTriggerSweep)
		r.Get("/v1/admin/sweeps/backlog", h.HandleSweepBacklog)
	}
	if h.flags != nil {
		r.Get("/v1/admin/flags", h.HandleListFlags)
		r.Put("/v1/admin/flags/{name}", h.HandleSetFlag)
	}
}

// HandleAllocate handles POST /v1/allocations.
func (h *Handler) HandleAllocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[AllocateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	match, err := h.service.Allocate(ctx, req.toDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "allocation failed",
			"request_id", requestID,
			"donor_id", req.DonorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if match == nil {
		h.logger.InfoContext(ctx, "allocation found no candidate",
			"request_id", requestID,
			"donor_id", req.DonorID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		httputil.WriteJSON(w, http.StatusOK, AllocateResponse{Status: StatusNoMatch, Retry: true})
		return
	}

	h.logger.InfoContext(ctx, "allocation succeeded",
		"request_id", requestID,
		"donor_id", match.DonorID,
		"match_id", match.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, AllocateResponse{Status: StatusMatched, Match: fromMatch(match)})
}

// HandleGetMatch handles GET /v1/matches/{id}.
func (h *Handler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	match, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromMatch(match))
}

// HandleSetPriority handles PUT /v1/admin/matches/{id}/priority.
func (h *Handler) HandleSetPriority(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PriorityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	match, err := h.service.SetPriority(ctx, id, *req.PriorityScore)
	if err != nil {
		h.logger.WarnContext(ctx, "priority override rejected",
			"request_id", requestID,
			"match_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "priority override applied",
		"request_id", requestID,
		"match_id", id,
		"priority_score", match.PriorityScore,
		"operator", requestcontext.Subject(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, fromMatch(match))
}

// HandleTransition handles POST /v1/matches/{id}/transitions.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	match, err := h.service.Transition(ctx, id, req.ParsedStatus())
	if err != nil {
		h.logger.WarnContext(ctx, "match transition rejected",
			"request_id", requestID,
			"match_id", id,
			"to", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromMatch(match))
}

// HandleTriggerSweep handles POST /v1/admin/sweeps.
func (h *Handler) HandleTriggerSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.sweeper.Trigger(ctx)
	switch {
	case errors.Is(err, sweeper.ErrAlreadyRunning), errors.Is(err, sweeper.ErrLeaseHeld):
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeConflict, "a sweep is already running"))
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "manual sweep failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromReport(report))
}

// HandleSweepBacklog handles GET /v1/admin/sweeps/backlog?limit=N.
func (h *Handler) HandleSweepBacklog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxBacklogLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 1000"))
			return
		}
		limit = n
	}

	overdue, err := h.sweeper.Backlog(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sweep backlog",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromBacklog(overdue))
}

// HandleListFlags handles GET /v1/admin/flags.
func (h *Handler) HandleListFlags(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.flags.All())
}

// HandleSetFlag handles PUT /v1/admin/flags/{name}.
func (h *Handler) HandleSetFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	name := chi.URLParam(r, "name")

	req, ok := httputil.DecodeAndPrepare[FlagRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if !h.flags.Set(name, *req.Enabled) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown feature flag"))
		return
	}

	h.logger.InfoContext(ctx, "feature flag changed",
		"request_id", requestID,
		"flag", name,
		"enabled", *req.Enabled,
		"operator", requestcontext.Subject(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, features.Flag{Name: name, Enabled: *req.Enabled})
}

func (h *Handler) matchID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid match id"))
		return uuid.UUID{}, false
	}
	return id, true
}
