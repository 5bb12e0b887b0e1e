package allocator

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"givecycle/internal/matching/models"
	dErrors "givecycle/pkg/domain-errors"
	"givecycle/pkg/platform/sentinel"
)

func (s *AllocatorSuite) pendingMatch() *models.Match {
	m, err := models.NewPendingMatch("donor-1", "c1", 5000, 0.7, models.SourceRule, baseTime, 24*time.Hour)
	s.Require().NoError(err)
	return m
}

func (s *AllocatorSuite) TestGet() {
	svc := s.newService()
	m := s.pendingMatch()

	s.Run("found", func() {
		s.store.EXPECT().FindByID(gomock.Any(), m.ID).Return(m, nil)
		got, err := svc.Get(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(m.ID, got.ID)
	})

	s.Run("not found", func() {
		s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := svc.Get(s.ctx, uuid.New())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store down", func() {
		s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
		_, err := svc.Get(s.ctx, uuid.New())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *AllocatorSuite) TestSetPriority() {
	svc := s.newService()
	m := s.pendingMatch()

	s.Run("applies override at request time", func() {
		boosted := *m
		boosted.PriorityScore = 999
		s.store.EXPECT().SetPriority(gomock.Any(), m.ID, 999, baseTime).Return(&boosted, nil)

		got, err := svc.SetPriority(s.ctx, m.ID, 999)
		s.Require().NoError(err)
		s.Equal(999, got.PriorityScore)
	})

	s.Run("out of range", func() {
		for _, p := range []int{-1, MaxPriority + 1} {
			_, err := svc.SetPriority(s.ctx, m.ID, p)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "priority %d", p)
		}
	})

	s.Run("not pending", func() {
		s.store.EXPECT().SetPriority(gomock.Any(), m.ID, 5, gomock.Any()).Return(nil, sentinel.ErrInvalidState)
		_, err := svc.SetPriority(s.ctx, m.ID, 5)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("unknown match", func() {
		s.store.EXPECT().SetPriority(gomock.Any(), gomock.Any(), 5, gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := svc.SetPriority(s.ctx, uuid.New(), 5)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AllocatorSuite) TestTransition() {
	svc := s.newService()
	m := s.pendingMatch()

	s.Run("pending to confirmed", func() {
		confirmed := *m
		confirmed.Status = models.StatusConfirmed
		gomock.InOrder(
			s.store.EXPECT().FindByID(gomock.Any(), m.ID).Return(m, nil),
			s.store.EXPECT().Transition(gomock.Any(), m.ID, models.StatusPending, models.StatusConfirmed, baseTime).Return(&confirmed, nil),
		)

		got, err := svc.Transition(s.ctx, m.ID, models.StatusConfirmed)
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, got.Status)
	})

	s.Run("expiry is reserved to the sweeper", func() {
		_, err := svc.Transition(s.ctx, m.ID, models.StatusExpired)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("invalid status", func() {
		_, err := svc.Transition(s.ctx, m.ID, models.MatchStatus("paid"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("skipping a step", func() {
		s.store.EXPECT().FindByID(gomock.Any(), m.ID).Return(m, nil)
		_, err := svc.Transition(s.ctx, m.ID, models.StatusReleased)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("lost race with the sweeper", func() {
		gomock.InOrder(
			s.store.EXPECT().FindByID(gomock.Any(), m.ID).Return(m, nil),
			s.store.EXPECT().Transition(gomock.Any(), m.ID, models.StatusPending, models.StatusConfirmed, gomock.Any()).Return(nil, sentinel.ErrInvalidState),
		)
		_, err := svc.Transition(s.ctx, m.ID, models.StatusConfirmed)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
