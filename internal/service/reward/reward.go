package reward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
	"LearnLoom/internal/storage/kv"
	"LearnLoom/pkg/logger"
)

// Policy holds the fixed XP amounts per reward event.
type Policy struct {
	LessonXP      int
	QuizXP        int
	CourseBonusXP int
}

func DefaultPolicy() Policy {
	return Policy{LessonXP: 15, QuizXP: 25, CourseBonusXP: 100}
}

// RewardService accumulates XP and badges per (user, course). In-memory
// state is the source of truth; every change is written to the KV store
// best-effort, and a write failure never rolls the state back.
type RewardService struct {
	log    logger.Log
	store  kv.Store
	policy Policy

	mu     sync.Mutex
	states map[stateKey]*models.RewardState
}

type stateKey struct {
	userID   uuid.UUID
	courseID uuid.UUID
}

func NewRewardService(log logger.Log, store kv.Store, policy Policy) *RewardService {
	return &RewardService{
		log:    log,
		store:  store,
		policy: policy,
		states: make(map[stateKey]*models.RewardState),
	}
}

// GrantXP adds amount to the user's course total. Totals never decrease
// through this interface: zero and negative amounts are ignored.
func (s *RewardService) GrantXP(ctx context.Context, userID, courseID uuid.UUID, amount int) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.stateLocked(ctx, userID, courseID)
	state.XP += amount
	s.persistLocked(ctx, state)
}

// AwardBadge inserts name into the badge set and reports whether it was
// newly granted. Granting an already-held badge is a no-op.
func (s *RewardService) AwardBadge(ctx context.Context, userID, courseID uuid.UUID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.stateLocked(ctx, userID, courseID)
	if state.HasBadge(name) {
		return false
	}
	state.Badges = append(state.Badges, name)
	s.persistLocked(ctx, state)
	return true
}

// RewardState returns a copy of the user's accumulated state for a course.
func (s *RewardService) RewardState(ctx context.Context, userID, courseID uuid.UUID) models.RewardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.stateLocked(ctx, userID, courseID)
	cp := *state
	cp.Badges = append([]string(nil), state.Badges...)
	return cp
}

// LessonCompleted records a first-time lesson completion.
func (s *RewardService) LessonCompleted(ctx context.Context, userID, courseID uuid.UUID) {
	s.GrantXP(ctx, userID, courseID, s.policy.LessonXP)
}

// QuizCorrect records a correct quiz submission.
func (s *RewardService) QuizCorrect(ctx context.Context, userID, courseID uuid.UUID) {
	s.GrantXP(ctx, userID, courseID, s.policy.QuizXP)
	s.AwardBadge(ctx, userID, courseID, models.BadgeQuizMaster)
}

// CourseCompleted grants the completion badge and bonus XP. The bonus is
// tied to the badge grant, so repeated notifications change nothing.
func (s *RewardService) CourseCompleted(ctx context.Context, userID, courseID uuid.UUID) {
	if s.AwardBadge(ctx, userID, courseID, models.BadgeCourseCompleted) {
		s.GrantXP(ctx, userID, courseID, s.policy.CourseBonusXP)
	}
}

// PruneCourse forgets every loaded state of a deleted course and removes
// its persisted snapshot from the KV store.
func (s *RewardService) PruneCourse(ctx context.Context, courseID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.states {
		if key.courseID != courseID {
			continue
		}
		delete(s.states, key)
		if err := s.store.Delete(ctx, rewardKey(key.userID, courseID)); err != nil {
			s.log.ErrorErr("reward state not removed", err,
				"user_id", key.userID, "course_id", courseID)
		}
	}
}

func (s *RewardService) stateLocked(ctx context.Context, userID, courseID uuid.UUID) *models.RewardState {
	key := stateKey{userID: userID, courseID: courseID}
	if state, ok := s.states[key]; ok {
		return state
	}

	state := &models.RewardState{UserID: userID, CourseID: courseID}
	data, err := s.store.Get(ctx, rewardKey(userID, courseID))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, state); err != nil {
			s.log.ErrorErr("reward state corrupted, starting fresh", err,
				"user_id", userID, "course_id", courseID)
			state = &models.RewardState{UserID: userID, CourseID: courseID}
		}
	case errors.Is(err, app_errors.ErrKeyNotFound):
		// absent means empty default
	default:
		s.log.ErrorErr("reward state load failed, starting from empty", err,
			"user_id", userID, "course_id", courseID)
	}

	s.states[key] = state
	return state
}

func (s *RewardService) persistLocked(ctx context.Context, state *models.RewardState) {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		s.log.ErrorErr("reward state marshal failed", err)
		return
	}
	if err := s.store.Set(ctx, rewardKey(state.UserID, state.CourseID), data); err != nil {
		s.log.ErrorErr("reward state not persisted", err,
			"user_id", state.UserID, "course_id", state.CourseID)
	}
}

func rewardKey(userID, courseID uuid.UUID) string {
	return fmt.Sprintf("reward:%s:%s", userID, courseID)
}
