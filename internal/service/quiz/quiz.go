package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
	"LearnLoom/pkg/logger"
)

type courseStore interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type rewarder interface {
	QuizCorrect(ctx context.Context, userID, courseID uuid.UUID)
}

type progressMarker interface {
	MarkComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error)
}

// QuizService evaluates quiz submissions. A quiz accepts one submission
// per learner per session; results live in memory only and reset on
// restart, matching session semantics.
type QuizService struct {
	log      logger.Log
	courses  courseStore
	rewards  rewarder
	progress progressMarker

	mu      sync.Mutex
	results map[resultKey]*models.QuizResult
}

type resultKey struct {
	userID uuid.UUID
	quizID uuid.UUID
}

func NewQuizService(log logger.Log, courses courseStore, rewards rewarder, progress progressMarker) *QuizService {
	return &QuizService{
		log:      log,
		courses:  courses,
		rewards:  rewards,
		progress: progress,
		results:  make(map[resultKey]*models.QuizResult),
	}
}

// SubmitQuiz grades a single-choice answer. Correctness is exactly
// chosenIndex == AnswerIndex. A correct answer rewards the learner and,
// for quiz-gated lessons, completes the lesson through the shared
// MarkComplete path.
func (s *QuizService) SubmitQuiz(ctx context.Context, userID, courseID, lessonID uuid.UUID, chosenIndex int) (*models.QuizResult, error) {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lesson := course.Lesson(lessonID)
	if lesson == nil {
		return nil, app_errors.ErrLessonNotFound
	}
	if lesson.Quiz == nil {
		return nil, app_errors.ErrQuizNotFound
	}
	if chosenIndex < 0 || chosenIndex >= len(lesson.Quiz.Options) {
		return nil, app_errors.ErrInvalidAnswerIndex
	}

	key := resultKey{userID: userID, quizID: lesson.Quiz.ID}
	s.mu.Lock()
	if _, ok := s.results[key]; ok {
		s.mu.Unlock()
		return nil, app_errors.ErrQuizAlreadySubmitted
	}
	result := &models.QuizResult{
		QuizID:      lesson.Quiz.ID,
		LessonID:    lessonID,
		ChosenIndex: chosenIndex,
		Correct:     chosenIndex == lesson.Quiz.AnswerIndex,
		SubmittedAt: time.Now().UTC(),
	}
	s.results[key] = result
	s.mu.Unlock()

	if result.Correct {
		s.rewards.QuizCorrect(ctx, userID, courseID)
		if lesson.QuizGated {
			if _, err := s.progress.MarkComplete(ctx, userID, courseID, lessonID); err != nil {
				s.log.ErrorErr("quiz-gated completion failed", err,
					"user_id", userID, "lesson_id", lessonID)
			}
		}
	}
	return result, nil
}

// QuizResult returns the recorded outcome for a lesson's quiz, or
// ErrQuizNotTaken when the quiz has not been taken this session.
func (s *QuizService) QuizResult(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.QuizResult, error) {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lesson := course.Lesson(lessonID)
	if lesson == nil {
		return nil, app_errors.ErrLessonNotFound
	}
	if lesson.Quiz == nil {
		return nil, app_errors.ErrQuizNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[resultKey{userID: userID, quizID: lesson.Quiz.ID}]
	if !ok {
		return nil, app_errors.ErrQuizNotTaken
	}
	cp := *result
	return &cp, nil
}
