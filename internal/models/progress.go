package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LessonNotStarted = "not_started"
	LessonInProgress = "in_progress"
	LessonCompleted  = "completed"
)

// VideoCompleteThreshold is the watched fraction past which a lesson
// counts as completed automatically.
const VideoCompleteThreshold = 0.9

// ProgressEntry records one learner's state for one lesson. CompletedAt is
// set on the first completion and survives later toggle cycles, so repeated
// completions keep the original timestamp.
type ProgressEntry struct {
	LessonID    uuid.UUID  `json:"lesson_id"`
	State       string     `json:"state"`
	Watched     float64    `json:"watched,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (e *ProgressEntry) Completed() bool {
	return e != nil && e.State == LessonCompleted
}

// Ledger is one learner's progress across one course, keyed by lesson id.
type Ledger struct {
	UserID    uuid.UUID                    `json:"user_id"`
	CourseID  uuid.UUID                    `json:"course_id"`
	Entries   map[uuid.UUID]*ProgressEntry `json:"entries"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

func NewLedger(userID, courseID uuid.UUID) *Ledger {
	return &Ledger{
		UserID:   userID,
		CourseID: courseID,
		Entries:  make(map[uuid.UUID]*ProgressEntry),
	}
}

// CourseProgress is the derived view joined from tree and ledger.
type CourseProgress struct {
	CourseID       uuid.UUID       `json:"course_id"`
	CompletedCount int             `json:"completed_count"`
	TotalLessons   int             `json:"total_lessons"`
	Percent        int             `json:"percent"`
	Entries        []ProgressEntry `json:"entries"`
}

// QuizResult is the recorded outcome of a single quiz submission.
type QuizResult struct {
	QuizID      uuid.UUID `json:"quiz_id"`
	LessonID    uuid.UUID `json:"lesson_id"`
	ChosenIndex int       `json:"chosen_index"`
	Correct     bool      `json:"correct"`
	SubmittedAt time.Time `json:"submitted_at"`
}
