package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"givecycle/internal/matching/allocator"
	"givecycle/internal/matching/models"
	"givecycle/internal/matching/qualification"
	"givecycle/internal/matching/scoring"
	"givecycle/internal/matching/store/candidate"
	"givecycle/internal/matching/store/match"
	"givecycle/internal/matching/sweeper"
	"givecycle/internal/notify"
	"givecycle/internal/platform/features"
	"givecycle/pkg/platform/httputil"
	"givecycle/pkg/requestcontext"
)

// qualifyAll is a qualification oracle that admits everyone with two cycles.
type qualifyAll struct{}

func (qualifyAll) CheckQualification(context.Context, string) (*models.Qualification, error) {
	return &models.Qualification{Qualifies: true, Reason: "ok", CompletedCycles: 2}, nil
}

// HandlerSuite exercises the HTTP layer over real in-memory components.
type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	matches   *match.InMemoryStore
	directory *candidate.InMemoryDirectory
	recorder  *notify.Recorder
	flags     *features.Manager
	now       time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.now = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	s.matches = match.NewInMemory()
	s.directory = candidate.NewInMemory(s.matches)
	s.recorder = notify.NewRecorder()
	s.flags = features.NewManager()
	s.flags.Register(features.ModelScoring, false, "route scoring through the prediction oracle")

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	gate, err := qualification.NewGate(qualifyAll{})
	s.Require().NoError(err)
	scorer, err := scoring.New(scoring.NewRuleStrategy(scoring.DefaultWeights(), 42))
	s.Require().NoError(err)
	svc, err := allocator.New(s.directory, gate, scorer, s.matches, s.recorder)
	s.Require().NoError(err)
	sw, err := sweeper.New(s.matches, s.recorder, notify.NewLogRematcher(logger))
	s.Require().NoError(err)

	h := New(svc, sw, s.flags, logger)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), s.now)
			ctx = requestcontext.WithCaller(ctx, "ops-user", "admin")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.Register(r)
	h.RegisterPayments(r)
	h.RegisterAdmin(r)
	s.router = r
}

func (s *HandlerSuite) addRecipient(id string) {
	s.directory.Put(models.Candidate{
		ID:           id,
		TrustScore:   0.8,
		Active:       true,
		Verification: models.VerificationApproved,
		City:         "Lagos",
		CreatedAt:    s.now.Add(-30 * 24 * time.Hour),
	})
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			s.Require().NoError(json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(v))
}

func (s *HandlerSuite) allocate(donor string) *MatchResponse {
	rec := s.do(http.MethodPost, "/v1/allocations", map[string]any{"donor_id": donor, "amount": 5000})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var resp AllocateResponse
	s.decode(rec, &resp)
	s.Require().NotNil(resp.Match)
	return resp.Match
}

func (s *HandlerSuite) TestAllocate() {
	s.Run("creates a pending match", func() {
		s.SetupTest()
		s.addRecipient("r1")

		m := s.allocate("d1")
		s.Equal("r1", m.RecipientID)
		s.Equal(string(models.StatusPending), m.Status)
		s.Equal(string(models.SourceRule), m.ScoreSource)
		s.Equal(m.CreatedAt.Add(24*time.Hour), m.ExpiresAt)
		s.Len(s.recorder.OfKind(models.IntentMatchFormed), 2)
	})

	s.Run("no candidate asks the caller to retry", func() {
		s.SetupTest()
		rec := s.do(http.MethodPost, "/v1/allocations", map[string]any{"donor_id": "d1", "amount": 5000})
		s.Equal(http.StatusOK, rec.Code)
		var resp AllocateResponse
		s.decode(rec, &resp)
		s.Equal(StatusNoMatch, resp.Status)
		s.True(resp.Retry)
		s.Nil(resp.Match)
	})

	s.Run("second pending match for the donor conflicts", func() {
		s.SetupTest()
		s.addRecipient("r1")
		s.addRecipient("r2")
		s.allocate("d1")

		rec := s.do(http.MethodPost, "/v1/allocations", map[string]any{"donor_id": "d1", "amount": 5000})
		s.Equal(http.StatusConflict, rec.Code)
		var resp httputil.ErrorResponse
		s.decode(rec, &resp)
		s.Equal("conflict", resp.Error)
		s.False(resp.Retryable)
	})

	s.Run("validation", func() {
		s.SetupTest()
		for _, body := range []any{
			map[string]any{"donor_id": "", "amount": 5000},
			map[string]any{"donor_id": "d1", "amount": 0},
			map[string]any{"donor_id": "d1", "amount": 10, "unknown": true},
			"not json",
		} {
			rec := s.do(http.MethodPost, "/v1/allocations", body)
			s.Equal(http.StatusBadRequest, rec.Code, "body %v", body)
		}
	})
}

func (s *HandlerSuite) TestGetMatch() {
	s.addRecipient("r1")
	m := s.allocate("d1")

	rec := s.do(http.MethodGet, "/v1/matches/"+m.ID, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/v1/matches/"+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/v1/matches/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSetPriority() {
	s.addRecipient("r1")
	m := s.allocate("d1")

	rec := s.do(http.MethodPut, "/v1/admin/matches/"+m.ID+"/priority", map[string]any{"priority_score": 999})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var updated MatchResponse
	s.decode(rec, &updated)
	s.Equal(999, updated.PriorityScore)

	rec = s.do(http.MethodPut, "/v1/admin/matches/"+m.ID+"/priority", map[string]any{"priority_score": -1})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/v1/admin/matches/"+m.ID+"/priority", map[string]any{})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestTransition() {
	s.addRecipient("r1")
	m := s.allocate("d1")
	path := "/v1/matches/" + m.ID + "/transitions"

	rec := s.do(http.MethodPost, path, map[string]any{"status": "escrowed"})
	s.Equal(http.StatusConflict, rec.Code, "pending cannot skip to escrowed")

	rec = s.do(http.MethodPost, path, map[string]any{"status": "expired"})
	s.Equal(http.StatusConflict, rec.Code, "expiry is reserved to the sweeper")

	rec = s.do(http.MethodPost, path, map[string]any{"status": "bogus"})
	s.Equal(http.StatusBadRequest, rec.Code)

	for _, st := range []string{"confirmed", "escrowed", "released"} {
		rec = s.do(http.MethodPost, path, map[string]any{"status": st})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var resp MatchResponse
		s.decode(rec, &resp)
		s.Equal(st, resp.Status)
	}
}

func (s *HandlerSuite) TestTriggerSweep() {
	s.addRecipient("r1")
	m := s.allocate("d1")
	s.now = s.now.Add(25 * time.Hour)

	rec := s.do(http.MethodPost, "/v1/admin/sweeps", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var report SweepResponse
	s.decode(rec, &report)
	s.Equal(1, report.Expired)

	id, err := uuid.Parse(m.ID)
	s.Require().NoError(err)
	got, err := s.matches.FindByID(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(models.StatusExpired, got.Status)
}

func (s *HandlerSuite) TestSweepBacklog() {
	s.addRecipient("r1")
	m := s.allocate("d1")
	s.now = s.now.Add(25 * time.Hour)

	rec := s.do(http.MethodGet, "/v1/admin/sweeps/backlog?limit=10", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp BacklogResponse
	s.decode(rec, &resp)
	s.Equal(1, resp.Count)
	s.Require().Len(resp.Matches, 1)
	s.Equal(m.ID, resp.Matches[0].ID)
	s.Equal(string(models.StatusPending), resp.Matches[0].Status)

	rec = s.do(http.MethodGet, "/v1/admin/sweeps/backlog?limit=0", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestFlags() {
	rec := s.do(http.MethodGet, "/v1/admin/flags", nil)
	s.Equal(http.StatusOK, rec.Code)
	var flags []features.Flag
	s.decode(rec, &flags)
	s.Require().Len(flags, 1)
	s.False(flags[0].Enabled)

	rec = s.do(http.MethodPut, "/v1/admin/flags/"+features.ModelScoring, map[string]any{"enabled": true})
	s.Equal(http.StatusOK, rec.Code)
	s.True(s.flags.IsEnabled(features.ModelScoring))

	rec = s.do(http.MethodPut, "/v1/admin/flags/unknown", map[string]any{"enabled": true})
	s.Equal(http.StatusNotFound, rec.Code)
}
