// Package inmem holds synchronous map-backed doubles for the course and
// enrollment stores. Tests and local runs use them in place of postgres.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
)

type CourseStore struct {
	mu      sync.RWMutex
	courses map[uuid.UUID]*models.Course
}

func NewCourseStore() *CourseStore {
	return &CourseStore{courses: make(map[uuid.UUID]*models.Course)}
}

func (s *CourseStore) CreateCourse(_ context.Context, course *models.Course) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	s.courses[course.ID] = course.Clone()
	return course.ID, nil
}

func (s *CourseStore) CourseByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, app_errors.ErrCourseNotFound
	}
	return c.Clone(), nil
}

func (s *CourseStore) ListCourses(_ context.Context) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	courses := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		courses = append(courses, *c.Clone())
	}
	return courses, nil
}

func (s *CourseStore) SaveCourse(_ context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return app_errors.ErrCourseNotFound
	}
	course.UpdatedAt = time.Now().UTC()
	s.courses[course.ID] = course.Clone()
	return nil
}

func (s *CourseStore) DeleteCourse(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return app_errors.ErrCourseNotFound
	}
	delete(s.courses, id)
	return nil
}
