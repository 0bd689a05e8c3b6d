package progress

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

type courseStore interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type rewarder interface {
	LessonCompleted(ctx context.Context, userID, courseID uuid.UUID)
	CourseCompleted(ctx context.Context, userID, courseID uuid.UUID)
}

// ProgressService owns the per-learner progress ledgers. The in-memory
// ledger is the source of truth; the KV store is written after every
// transition and a write failure only logs.
//
// Completed counts are always derived fresh from the ledger against the
// current tree, never from a cached total.
type ProgressService struct {
	log     logger.Log
	courses courseStore
	store   kv.Store
	rewards rewarder

	mu      sync.Mutex
	ledgers map[ledgerKey]*models.Ledger
}

type ledgerKey struct {
	userID   uuid.UUID
	courseID uuid.UUID
}

func NewProgressService(log logger.Log, courses courseStore, store kv.Store, rewards rewarder) *ProgressService {
	return &ProgressService{
		log:     log,
		courses: courses,
		store:   store,
		rewards: rewards,
		ledgers: make(map[ledgerKey]*models.Ledger),
	}
}

// MarkComplete completes a lesson for a user. Calling it again for an
// already-completed lesson changes nothing, including CompletedAt. An
// unknown lesson id leaves the ledger untouched.
//
// Every completion path (explicit action, watched threshold, gated quiz)
// funnels through here.
func (s *ProgressService) MarkComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error) {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	led := s.ledgerLocked(ctx, userID, course)
	entry, known := s.entryLocked(led, course, lessonID)
	if !known || entry.State == models.LessonCompleted {
		summary := summarize(course, led)
		s.mu.Unlock()
		return summary, nil
	}
	summary, first := s.completeLocked(ctx, course, led, entry)
	s.mu.Unlock()

	s.notifyRewards(ctx, userID, courseID, first, summary)
	return summary, nil
}

// MarkIncomplete reverts a lesson to not-started / in-progress. The first
// completion timestamp survives, so re-completing grants no second reward.
func (s *ProgressService) MarkIncomplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error) {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	led := s.ledgerLocked(ctx, userID, course)
	entry, known := s.entryLocked(led, course, lessonID)
	if !known || entry.State != models.LessonCompleted {
		return summarize(course, led), nil
	}
	return s.incompleteLocked(ctx, course, led, entry), nil
}

// ToggleComplete is a pure flip of the completion flag, not an increment.
// The flip decision and the mutation happen in one critical section, so
// racing toggles strictly alternate instead of both observing the same
// state.
func (s *ProgressService) ToggleComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error) {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	led := s.ledgerLocked(ctx, userID, course)
	entry, known := s.entryLocked(led, course, lessonID)
	if !known {
		summary := summarize(course, led)
		s.mu.Unlock()
		return summary, nil
	}
	if entry.State == models.LessonCompleted {
		summary := s.incompleteLocked(ctx, course, led, entry)
		s.mu.Unlock()
		return summary, nil
	}
	summary, first := s.completeLocked(ctx, course, led, entry)
	s.mu.Unlock()

	s.notifyRewards(ctx, userID, courseID, first, summary)
	return summary, nil
}

// StartLesson moves a not-started lesson to in-progress.
func (s *ProgressService) StartLesson(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error) {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	led := s.ledgerLocked(ctx, userID, course)
	entry, known := s.entryLocked(led, course, lessonID)
	if !known || entry.State != models.LessonNotStarted {
		return summarize(course, led), nil
	}
	entry.State = models.LessonInProgress
	summary := summarize(course, led)
	s.persistLocked(ctx, led)
	return summary, nil
}

// RecordVideoPosition stores the watched fraction for a lesson. Passing
// the completion threshold converges on the same MarkComplete path as an
// explicit action.
func (s *ProgressService) RecordVideoPosition(ctx context.Context, userID, courseID, lessonID uuid.UUID, watched float64) (*models.CourseProgress, error) {
	if watched < 0 {
		watched = 0
	}
	if watched > 1 {
		watched = 1
	}

	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	led := s.ledgerLocked(ctx, userID, course)
	entry, known := s.entryLocked(led, course, lessonID)
	if !known {
		summary := summarize(course, led)
		s.mu.Unlock()
		return summary, nil
	}
	if watched > entry.Watched {
		entry.Watched = watched
	}
	if entry.State == models.LessonNotStarted && watched > 0 {
		entry.State = models.LessonInProgress
	}
	if watched >= models.VideoCompleteThreshold && entry.State != models.LessonCompleted {
		summary, first := s.completeLocked(ctx, course, led, entry)
		s.mu.Unlock()

		s.notifyRewards(ctx, userID, courseID, first, summary)
		return summary, nil
	}
	summary := summarize(course, led)
	s.persistLocked(ctx, led)
	s.mu.Unlock()
	return summary, nil
}

// Progress returns the derived completion view for a user and course.
func (s *ProgressService) Progress(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error) {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	led := s.ledgerLocked(ctx, userID, course)
	return summarize(course, led), nil
}

// PruneLessons drops ledger entries for deleted lessons from every loaded
// ledger of the course. Ledgers still in the KV store get pruned lazily on
// load, where stale entries are filtered against the current tree.
func (s *ProgressService) PruneLessons(ctx context.Context, courseID uuid.UUID, lessonIDs []uuid.UUID) {
	if len(lessonIDs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, led := range s.ledgers {
		if key.courseID != courseID {
			continue
		}
		changed := false
		for _, id := range lessonIDs {
			if _, ok := led.Entries[id]; ok {
				delete(led.Entries, id)
				changed = true
			}
		}
		if changed {
			s.persistLocked(ctx, led)
		}
	}
}

// PruneCourse forgets every loaded ledger of a deleted course and
// removes its persisted snapshot from the KV store.
func (s *ProgressService) PruneCourse(ctx context.Context, courseID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.ledgers {
		if key.courseID != courseID {
			continue
		}
		delete(s.ledgers, key)
		if err := s.store.Delete(ctx, progressKey(key.userID, courseID)); err != nil {
			s.log.ErrorErr("progress ledger not removed", err,
				"user_id", key.userID, "course_id", courseID)
		}
	}
}

// completeLocked flips an entry to completed, stamping the completion
// time on the first-ever completion, and persists the ledger. Reports
// whether this was the first completion.
func (s *ProgressService) completeLocked(ctx context.Context, course *models.Course, led *models.Ledger, entry *models.ProgressEntry) (*models.CourseProgress, bool) {
	first := entry.CompletedAt == nil
	entry.State = models.LessonCompleted
	if first {
		now := time.Now().UTC()
		entry.CompletedAt = &now
	}
	summary := summarize(course, led)
	s.persistLocked(ctx, led)
	return summary, first
}

// incompleteLocked reverts a completed entry, keeping CompletedAt, and
// persists the ledger.
func (s *ProgressService) incompleteLocked(ctx context.Context, course *models.Course, led *models.Ledger, entry *models.ProgressEntry) *models.CourseProgress {
	if entry.Watched > 0 {
		entry.State = models.LessonInProgress
	} else {
		entry.State = models.LessonNotStarted
	}
	summary := summarize(course, led)
	s.persistLocked(ctx, led)
	return summary
}

func (s *ProgressService) notifyRewards(ctx context.Context, userID, courseID uuid.UUID, first bool, summary *models.CourseProgress) {
	if first {
		s.rewards.LessonCompleted(ctx, userID, courseID)
	}
	if summary.TotalLessons > 0 && summary.CompletedCount == summary.TotalLessons {
		s.rewards.CourseCompleted(ctx, userID, courseID)
	}
}

func (s *ProgressService) ledgerLocked(ctx context.Context, userID uuid.UUID, course *models.Course) *models.Ledger {
	key := ledgerKey{userID: userID, courseID: course.ID}
	if led, ok := s.ledgers[key]; ok {
		return led
	}

	led := models.NewLedger(userID, course.ID)
	data, err := s.store.Get(ctx, progressKey(userID, course.ID))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, led); err != nil {
			s.log.ErrorErr("progress ledger corrupted, starting fresh", err,
				"user_id", userID, "course_id", course.ID)
			led = models.NewLedger(userID, course.ID)
		}
	case errors.Is(err, app_errors.ErrKeyNotFound):
		// absent means empty default
	default:
		s.log.ErrorErr("progress ledger load failed, starting from empty", err,
			"user_id", userID, "course_id", course.ID)
	}
	if led.Entries == nil {
		led.Entries = make(map[uuid.UUID]*models.ProgressEntry)
	}

	// Drop entries whose lesson no longer exists in the tree.
	known := make(map[uuid.UUID]struct{})
	for _, id := range course.LessonIDs() {
		known[id] = struct{}{}
	}
	for id := range led.Entries {
		if _, ok := known[id]; !ok {
			delete(led.Entries, id)
		}
	}

	s.ledgers[key] = led
	return led
}

// entryLocked returns the ledger entry for a lesson, creating it when the
// lesson exists in the tree. Unknown lesson ids report known=false.
func (s *ProgressService) entryLocked(led *models.Ledger, course *models.Course, lessonID uuid.UUID) (*models.ProgressEntry, bool) {
	if course.Lesson(lessonID) == nil {
		return nil, false
	}
	entry, ok := led.Entries[lessonID]
	if !ok {
		entry = &models.ProgressEntry{LessonID: lessonID, State: models.LessonNotStarted}
		led.Entries[lessonID] = entry
	}
	return entry, true
}

func (s *ProgressService) persistLocked(ctx context.Context, led *models.Ledger) {
	led.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(led)
	if err != nil {
		s.log.ErrorErr("progress ledger marshal failed", err)
		return
	}
	if err := s.store.Set(ctx, progressKey(led.UserID, led.CourseID), data); err != nil {
		s.log.ErrorErr("progress ledger not persisted", err,
			"user_id", led.UserID, "course_id", led.CourseID)
	}
}

// summarize derives the completion view by joining the ledger to the tree
// in display order. Lessons missing from the ledger count as not started.
func summarize(course *models.Course, led *models.Ledger) *models.CourseProgress {
	summary := &models.CourseProgress{
		CourseID:     course.ID,
		TotalLessons: course.TotalLessons(),
	}
	for _, id := range course.LessonIDs() {
		entry, ok := led.Entries[id]
		if !ok {
			summary.Entries = append(summary.Entries, models.ProgressEntry{
				LessonID: id,
				State:    models.LessonNotStarted,
			})
			continue
		}
		summary.Entries = append(summary.Entries, *entry)
		if entry.Completed() {
			summary.CompletedCount++
		}
	}
	if summary.TotalLessons > 0 {
		summary.Percent = summary.CompletedCount * 100 / summary.TotalLessons
	}
	return summary
}

func progressKey(userID, courseID uuid.UUID) string {
	return fmt.Sprintf("progress:%s:%s", userID, courseID)
}
