package catalog

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
	"LearnLoom/internal/service/courselock"
	"LearnLoom/pkg/logger"
)

const maxUploadSizeBytes = 2 << 30

type courseStore interface {
	CreateCourse(ctx context.Context, course *models.Course) (uuid.UUID, error)
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	SaveCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id uuid.UUID) error
}

type enrollmentStore interface {
	Enroll(ctx context.Context, courseID, userID uuid.UUID) error
	ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error)
	IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error)
}

type searchRepo interface {
	Index(ctx context.Context, course models.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, size int) ([]uuid.UUID, error)
}

type mediaStorage interface {
	UploadThumbnail(ctx context.Context, courseID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	UploadVideo(ctx context.Context, courseID, lessonID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	GetMediaURL(ctx context.Context, objectKey string) (string, error)
	DeleteMedia(ctx context.Context, objectKey string) error
}

// coursePruner forgets per-learner state of a deleted course. The
// progress and reward services both implement it.
type coursePruner interface {
	PruneCourse(ctx context.Context, courseID uuid.UUID)
}

// CatalogService covers course lifecycle outside the content tree:
// listing, creation, updates, duplication, publication, search,
// enrollment and media uploads. Paths that save the aggregate take the
// per-course lock shared with the editor, so a stale full-tree save can
// never erase a concurrent edit.
type CatalogService struct {
	log           logger.Log
	courses       courseStore
	enrollments   enrollmentStore
	search        searchRepo
	media         mediaStorage
	locks         *courselock.Registry
	progressState coursePruner
	rewardState   coursePruner
}

func NewCatalogService(log logger.Log, courses courseStore, enrollments enrollmentStore,
	search searchRepo, media mediaStorage, locks *courselock.Registry,
	progressState, rewardState coursePruner) *CatalogService {
	return &CatalogService{
		log:           log,
		courses:       courses,
		enrollments:   enrollments,
		search:        search,
		media:         media,
		locks:         locks,
		progressState: progressState,
		rewardState:   rewardState,
	}
}

// CourseUpdate carries the editable course fields. Nil means "leave as is".
type CourseUpdate struct {
	Title              *string `json:"title,omitempty"`
	Description        *string `json:"description,omitempty"`
	CertificateEnabled *bool   `json:"certificate_enabled,omitempty"`
}

func (s *CatalogService) CreateCourse(ctx context.Context, title, description string) (uuid.UUID, error) {
	course := &models.Course{
		Title:       title,
		Description: description,
		Status:      models.StatusHidden,
	}
	return s.courses.CreateCourse(ctx, course)
}

// RegisterCourse stores a fully built course, applying catalog defaults.
// The importer registers seeded courses through here.
func (s *CatalogService) RegisterCourse(ctx context.Context, course *models.Course) (uuid.UUID, error) {
	if course.Status == "" {
		course.Status = models.StatusHidden
	}
	return s.courses.CreateCourse(ctx, course)
}

func (s *CatalogService) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return s.courses.CourseByID(ctx, id)
}

func (s *CatalogService) ListCourses(ctx context.Context) ([]models.CoursePreview, error) {
	courses, err := s.courses.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	previews := make([]models.CoursePreview, 0, len(courses))
	for i := range courses {
		previews = append(previews, s.preview(ctx, &courses[i]))
	}
	return previews, nil
}

func (s *CatalogService) UpdateCourse(ctx context.Context, id uuid.UUID, update CourseUpdate) (*models.Course, error) {
	mu := s.locks.Of(id)
	mu.Lock()
	defer mu.Unlock()

	course, err := s.courses.CourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		course.Title = *update.Title
	}
	if update.Description != nil {
		course.Description = *update.Description
	}
	if update.CertificateEnabled != nil {
		course.CertificateEnabled = *update.CertificateEnabled
	}
	if err := s.courses.SaveCourse(ctx, course); err != nil {
		return nil, err
	}
	if course.Status == models.StatusPublic {
		if err := s.search.Index(ctx, *course); err != nil {
			s.log.ErrorErr("failed to reindex course", err, "course_id", id)
		}
	}
	return course, nil
}

// DeleteCourse removes the course with its whole tree, search document,
// media objects and per-learner progress and reward state. Collaborator
// failures after the store delete are logged, not returned.
func (s *CatalogService) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	mu := s.locks.Of(id)
	mu.Lock()
	defer mu.Unlock()

	course, err := s.courses.CourseByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.courses.DeleteCourse(ctx, id); err != nil {
		return err
	}

	if err := s.search.Delete(ctx, id); err != nil {
		s.log.ErrorErr("failed to remove course from search index", err, "course_id", id)
	}
	if course.ThumbnailObjectKey != "" {
		if err := s.media.DeleteMedia(ctx, course.ThumbnailObjectKey); err != nil {
			s.log.ErrorErr("failed to delete course thumbnail", err, "course_id", id)
		}
	}
	for i := range course.Chapters {
		for _, l := range course.Chapters[i].Lessons {
			if l.VideoObjectKey == "" {
				continue
			}
			if err := s.media.DeleteMedia(ctx, l.VideoObjectKey); err != nil {
				s.log.ErrorErr("failed to delete lesson video", err, "lesson_id", l.ID)
			}
		}
	}
	if s.progressState != nil {
		s.progressState.PruneCourse(ctx, id)
	}
	if s.rewardState != nil {
		s.rewardState.PruneCourse(ctx, id)
	}
	return nil
}

// DuplicateCourse deep-copies the course and gives the clone and all of
// its descendants fresh identities. The clone starts hidden.
func (s *CatalogService) DuplicateCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	course, err := s.courses.CourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	clone := course.Clone()
	clone.ReassignIDs()
	clone.Title = course.Title + " (Copy)"
	clone.Status = models.StatusHidden
	if _, err := s.courses.CreateCourse(ctx, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

func (s *CatalogService) Publish(ctx context.Context, id uuid.UUID) error {
	mu := s.locks.Of(id)
	mu.Lock()
	defer mu.Unlock()

	course, err := s.courses.CourseByID(ctx, id)
	if err != nil {
		return err
	}
	course.Status = models.StatusPublic
	if err := s.courses.SaveCourse(ctx, course); err != nil {
		return err
	}
	if err := s.search.Index(ctx, *course); err != nil {
		s.log.ErrorErr("error indexing course", err, "course_id", id)
		return err
	}
	return nil
}

func (s *CatalogService) Hide(ctx context.Context, id uuid.UUID) error {
	mu := s.locks.Of(id)
	mu.Lock()
	defer mu.Unlock()

	course, err := s.courses.CourseByID(ctx, id)
	if err != nil {
		return err
	}
	course.Status = models.StatusHidden
	if err := s.courses.SaveCourse(ctx, course); err != nil {
		return err
	}
	if err := s.search.Delete(ctx, id); err != nil {
		s.log.ErrorErr("failed to remove course from search index", err, "course_id", id)
	}
	return nil
}

func (s *CatalogService) SearchCourses(ctx context.Context, query string, size int) ([]models.CoursePreview, error) {
	ids, err := s.search.Search(ctx, query, size)
	if err != nil {
		return nil, err
	}
	previews := make([]models.CoursePreview, 0, len(ids))
	for _, id := range ids {
		course, err := s.courses.CourseByID(ctx, id)
		if err != nil {
			s.log.ErrorErr("search: failed to load course by id", err, "course_id", id)
			continue
		}
		previews = append(previews, s.preview(ctx, course))
	}
	return previews, nil
}

// EnrollUsers enrolls every given user into a published course. Users who
// are already enrolled are skipped.
func (s *CatalogService) EnrollUsers(ctx context.Context, courseID uuid.UUID, userIDs []uuid.UUID) error {
	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.Status != models.StatusPublic {
		return app_errors.ErrCourseNotPublished
	}
	for _, userID := range userIDs {
		if err := s.enrollments.Enroll(ctx, courseID, userID); err != nil {
			if errors.Is(err, app_errors.ErrAlreadyEnrolled) {
				continue
			}
			return err
		}
	}
	return nil
}

func (s *CatalogService) ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error) {
	if _, err := s.courses.CourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.enrollments.ListEnrollments(ctx, courseID)
}

func (s *CatalogService) UploadThumbnail(
	ctx context.Context,
	courseID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (string, error) {
	mu := s.locks.Of(courseID)
	mu.Lock()
	defer mu.Unlock()

	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	if size > maxUploadSizeBytes {
		return "", app_errors.ErrFileSize
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", app_errors.ErrNotImage
	}

	if course.ThumbnailObjectKey != "" {
		if err := s.media.DeleteMedia(ctx, course.ThumbnailObjectKey); err != nil {
			s.log.ErrorErr("failed to delete previous thumbnail", err)
		}
	}

	objectKey, err := s.media.UploadThumbnail(ctx, courseID, filename, reader, size, contentType)
	if err != nil {
		s.log.ErrorErr("failed to upload thumbnail to storage", err)
		return "", err
	}
	course.ThumbnailObjectKey = objectKey
	if err := s.courses.SaveCourse(ctx, course); err != nil {
		s.log.ErrorErr("failed to save thumbnail key", err)
		return "", err
	}
	return s.media.GetMediaURL(ctx, objectKey)
}

// UploadLessonVideo stores the video and records its object key on the
// lesson. The caller gets a presigned playback URL back.
func (s *CatalogService) UploadLessonVideo(
	ctx context.Context,
	courseID, lessonID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (string, error) {
	mu := s.locks.Of(courseID)
	mu.Lock()
	defer mu.Unlock()

	course, err := s.courses.CourseByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	lesson := course.Lesson(lessonID)
	if lesson == nil {
		return "", app_errors.ErrLessonNotFound
	}
	if size > maxUploadSizeBytes {
		return "", app_errors.ErrFileSize
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if !strings.HasPrefix(contentType, "video/") {
		return "", app_errors.ErrNotVideo
	}

	if lesson.VideoObjectKey != "" {
		if err := s.media.DeleteMedia(ctx, lesson.VideoObjectKey); err != nil {
			s.log.ErrorErr("failed to delete previous video", err)
		}
	}

	objectKey, err := s.media.UploadVideo(ctx, courseID, lessonID, filename, reader, size, contentType)
	if err != nil {
		s.log.ErrorErr("failed to upload video to storage", err)
		return "", err
	}
	lesson.VideoObjectKey = objectKey
	lesson.UpdatedAt = time.Now().UTC()
	if err := s.courses.SaveCourse(ctx, course); err != nil {
		s.log.ErrorErr("failed to save video key", err)
		return "", err
	}
	return s.media.GetMediaURL(ctx, objectKey)
}

// MediaURL resolves an opaque object key to a playable URL.
func (s *CatalogService) MediaURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", app_errors.ErrImageNotFound
	}
	return s.media.GetMediaURL(ctx, objectKey)
}

func (s *CatalogService) preview(ctx context.Context, course *models.Course) models.CoursePreview {
	var thumbnailURL string
	if course.ThumbnailObjectKey != "" {
		u, err := s.media.GetMediaURL(ctx, course.ThumbnailObjectKey)
		if err != nil {
			s.log.ErrorErr("preview: failed to get thumbnail URL", err, "course_id", course.ID)
		} else {
			thumbnailURL = u
		}
	}
	return models.CoursePreview{
		ID:                 course.ID,
		Title:              course.Title,
		Description:        course.Description,
		ThumbnailURL:       thumbnailURL,
		Status:             course.Status,
		LessonCount:        course.TotalLessons(),
		CertificateEnabled: course.CertificateEnabled,
	}
}
