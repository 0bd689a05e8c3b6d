package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
)

type EnrollmentStore struct {
	mu      sync.RWMutex
	entries []models.Enrollment
}

func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{}
}

func (s *EnrollmentStore) Enroll(_ context.Context, courseID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.CourseID == courseID && e.UserID == userID {
			return app_errors.ErrAlreadyEnrolled
		}
	}
	s.entries = append(s.entries, models.Enrollment{
		ID:        uuid.New(),
		CourseID:  courseID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *EnrollmentStore) ListEnrollments(_ context.Context, courseID uuid.UUID) ([]models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Enrollment
	for _, e := range s.entries {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EnrollmentStore) IsEnrolled(_ context.Context, courseID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.CourseID == courseID && e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
