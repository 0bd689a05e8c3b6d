// Package editor implements authoring operations over the course content
// tree. Every operation is copy-on-write under a per-course lock: it loads
// the aggregate, edits a clone, and saves the new value, so readers never
// observe a half-applied change. Operating on an unknown chapter or lesson
// id returns the tree unchanged.
package editor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
	"LearnLoom/internal/service/courselock"
	"LearnLoom/pkg/logger"
)

type courseStore interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	SaveCourse(ctx context.Context, course *models.Course) error
}

type progressPruner interface {
	PruneLessons(ctx context.Context, courseID uuid.UUID, lessonIDs []uuid.UUID)
}

type EditorService struct {
	log     logger.Log
	courses courseStore
	pruner  progressPruner
	locks   *courselock.Registry
}

func NewEditorService(log logger.Log, courses courseStore, pruner progressPruner, locks *courselock.Registry) *EditorService {
	return &EditorService{log: log, courses: courses, pruner: pruner, locks: locks}
}

func (s *EditorService) AddChapter(ctx context.Context, courseID uuid.UUID, title string) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		now := time.Now().UTC()
		c.Chapters = append(c.Chapters, models.Chapter{
			ID:        uuid.New(),
			CourseID:  c.ID,
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	})
}

func (s *EditorService) RenameChapter(ctx context.Context, courseID, chapterID uuid.UUID, title string) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		i := c.FindChapter(chapterID)
		if i < 0 {
			return nil
		}
		c.Chapters[i].Title = title
		c.Chapters[i].UpdatedAt = time.Now().UTC()
		return nil
	})
}

// DeleteChapter removes a chapter with its lessons and prunes the
// lessons' progress entries.
func (s *EditorService) DeleteChapter(ctx context.Context, courseID, chapterID uuid.UUID) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		i := c.FindChapter(chapterID)
		if i < 0 {
			return nil
		}
		removed := make([]uuid.UUID, 0, len(c.Chapters[i].Lessons))
		for _, l := range c.Chapters[i].Lessons {
			removed = append(removed, l.ID)
		}
		c.Chapters = append(c.Chapters[:i], c.Chapters[i+1:]...)
		return removed
	})
}

// MoveChapter reorders a chapter from index from to index to, keeping the
// relative order of all other chapters. Out-of-range indexes are a no-op.
func (s *EditorService) MoveChapter(ctx context.Context, courseID uuid.UUID, from, to int) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		if from < 0 || from >= len(c.Chapters) || to < 0 || to >= len(c.Chapters) {
			return nil
		}
		ch := c.Chapters[from]
		c.Chapters = append(c.Chapters[:from], c.Chapters[from+1:]...)
		c.Chapters = append(c.Chapters[:to], append([]models.Chapter{ch}, c.Chapters[to:]...)...)
		return nil
	})
}

func (s *EditorService) AddLesson(ctx context.Context, courseID, chapterID uuid.UUID, title string) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		i := c.FindChapter(chapterID)
		if i < 0 {
			return nil
		}
		now := time.Now().UTC()
		c.Chapters[i].Lessons = append(c.Chapters[i].Lessons, models.Lesson{
			ID:        uuid.New(),
			ChapterID: chapterID,
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	})
}

func (s *EditorService) UpdateLesson(ctx context.Context, courseID, lessonID uuid.UUID, update models.LessonUpdate) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		l := c.Lesson(lessonID)
		if l == nil {
			return nil
		}
		if update.Title != nil {
			l.Title = *update.Title
		}
		if update.Content != nil {
			l.Content = *update.Content
		}
		if update.VideoRef != nil {
			l.VideoObjectKey = *update.VideoRef
		}
		if update.DurationSec != nil {
			l.DurationSec = *update.DurationSec
		}
		if update.QuizGated != nil {
			l.QuizGated = *update.QuizGated
		}
		l.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (s *EditorService) DeleteLesson(ctx context.Context, courseID, lessonID uuid.UUID) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		ci, li := c.FindLesson(lessonID)
		if ci < 0 {
			return nil
		}
		lessons := c.Chapters[ci].Lessons
		c.Chapters[ci].Lessons = append(lessons[:li], lessons[li+1:]...)
		return []uuid.UUID{lessonID}
	})
}

// MoveLesson reorders a lesson within its chapter or moves it to another
// chapter at the destination index. Unknown chapters and out-of-range
// indexes are a no-op.
func (s *EditorService) MoveLesson(ctx context.Context, courseID, fromChapterID uuid.UUID, from int, toChapterID uuid.UUID, to int) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		fi := c.FindChapter(fromChapterID)
		ti := c.FindChapter(toChapterID)
		if fi < 0 || ti < 0 {
			return nil
		}
		if from < 0 || from >= len(c.Chapters[fi].Lessons) {
			return nil
		}
		maxTo := len(c.Chapters[ti].Lessons)
		if fi == ti {
			maxTo--
		}
		if to < 0 || to > maxTo {
			return nil
		}

		lesson := c.Chapters[fi].Lessons[from]
		c.Chapters[fi].Lessons = append(c.Chapters[fi].Lessons[:from], c.Chapters[fi].Lessons[from+1:]...)
		lesson.ChapterID = c.Chapters[ti].ID
		dst := c.Chapters[ti].Lessons
		c.Chapters[ti].Lessons = append(dst[:to], append([]models.Lesson{lesson}, dst[to:]...)...)
		return nil
	})
}

// AttachQuiz validates and sets the lesson's quiz. An answer index outside
// the options is rejected before it can reach the tree.
func (s *EditorService) AttachQuiz(ctx context.Context, courseID, lessonID uuid.UUID, quiz models.Quiz) (*models.Course, error) {
	if len(quiz.Options) == 0 || quiz.AnswerIndex < 0 || quiz.AnswerIndex >= len(quiz.Options) {
		return nil, app_errors.ErrInvalidAnswerIndex
	}
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		l := c.Lesson(lessonID)
		if l == nil {
			return nil
		}
		if quiz.ID == uuid.Nil {
			quiz.ID = uuid.New()
		}
		q := quiz
		q.Options = append([]string(nil), quiz.Options...)
		l.Quiz = &q
		l.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (s *EditorService) DetachQuiz(ctx context.Context, courseID, lessonID uuid.UUID) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		l := c.Lesson(lessonID)
		if l == nil {
			return nil
		}
		l.Quiz = nil
		l.QuizGated = false
		l.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (s *EditorService) AddAttachment(ctx context.Context, courseID, lessonID uuid.UUID, name, ref string) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		l := c.Lesson(lessonID)
		if l == nil {
			return nil
		}
		l.Attachments = append(l.Attachments, models.Attachment{
			ID:   uuid.New(),
			Name: name,
			Ref:  ref,
		})
		l.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (s *EditorService) RemoveAttachment(ctx context.Context, courseID, lessonID, attachmentID uuid.UUID) (*models.Course, error) {
	return s.edit(ctx, courseID, func(c *models.Course) []uuid.UUID {
		l := c.Lesson(lessonID)
		if l == nil {
			return nil
		}
		for i := range l.Attachments {
			if l.Attachments[i].ID == attachmentID {
				l.Attachments = append(l.Attachments[:i], l.Attachments[i+1:]...)
				l.UpdatedAt = time.Now().UTC()
				break
			}
		}
		return nil
	})
}

// edit runs one copy-on-write mutation. The mutator returns the lesson ids
// whose progress entries must be pruned after the save.
func (s *EditorService) edit(ctx context.Context, courseID uuid.UUID, mutate func(*models.Course) []uuid.UUID) (*models.Course, error) {
	mu := s.locks.Of(courseID)
	mu.Lock()
	defer mu.Unlock()

	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	next := course.Clone()
	removed := mutate(next)
	if err := s.courses.SaveCourse(ctx, next); err != nil {
		return nil, err
	}
	if len(removed) > 0 && s.pruner != nil {
		s.pruner.PruneLessons(ctx, courseID, removed)
	}
	return next, nil
}
