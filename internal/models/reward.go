package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BadgeCourseCompleted = "Course Completed"
	BadgeQuizMaster      = "Quiz Master"
)

// RewardState accumulates XP and badges for one learner in one course.
// Badges have set semantics: a name appears at most once.
type RewardState struct {
	UserID    uuid.UUID `json:"user_id"`
	CourseID  uuid.UUID `json:"course_id"`
	XP        int       `json:"xp"`
	Badges    []string  `json:"badges"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *RewardState) HasBadge(name string) bool {
	for _, b := range r.Badges {
		if b == name {
			return true
		}
	}
	return false
}
