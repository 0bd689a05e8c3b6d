package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LearnLoom/internal/app_errors"
	"LearnLoom/internal/models"
	"LearnLoom/internal/service/courselock"
	"LearnLoom/internal/service/editor"
	"LearnLoom/internal/service/progress"
	"LearnLoom/internal/service/reward"
	"LearnLoom/internal/storage/inmem"
	"LearnLoom/internal/storage/kv"
	"LearnLoom/pkg/logger"
)

type fakeSearch struct {
	indexed map[uuid.UUID]models.Course
	hits    []uuid.UUID
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{indexed: make(map[uuid.UUID]models.Course)}
}

func (f *fakeSearch) Index(_ context.Context, course models.Course) error {
	f.indexed[course.ID] = course
	return nil
}

func (f *fakeSearch) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.indexed, id)
	return nil
}

func (f *fakeSearch) Search(_ context.Context, _ string, _ int) ([]uuid.UUID, error) {
	return f.hits, nil
}

type fakeMedia struct {
	objects map[string][]byte
	deleted []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: make(map[string][]byte)}
}

func (f *fakeMedia) UploadThumbnail(_ context.Context, courseID uuid.UUID, _ string, reader io.Reader, _ int64, _ string) (string, error) {
	key := "courses/" + courseID.String() + "/thumbnail"
	data, _ := io.ReadAll(reader)
	f.objects[key] = data
	return key, nil
}

func (f *fakeMedia) UploadVideo(_ context.Context, courseID, lessonID uuid.UUID, _ string, reader io.Reader, _ int64, _ string) (string, error) {
	key := "courses/" + courseID.String() + "/lessons/" + lessonID.String() + "/video"
	data, _ := io.ReadAll(reader)
	f.objects[key] = data
	return key, nil
}

func (f *fakeMedia) GetMediaURL(_ context.Context, objectKey string) (string, error) {
	return "https://media.test/" + objectKey, nil
}

func (f *fakeMedia) DeleteMedia(_ context.Context, objectKey string) error {
	delete(f.objects, objectKey)
	f.deleted = append(f.deleted, objectKey)
	return nil
}

type fakePruner struct {
	pruned []uuid.UUID
}

func (f *fakePruner) PruneCourse(_ context.Context, courseID uuid.UUID) {
	f.pruned = append(f.pruned, courseID)
}

type fixture struct {
	catalog       *CatalogService
	courses       *inmem.CourseStore
	enrollments   *inmem.EnrollmentStore
	search        *fakeSearch
	media         *fakeMedia
	locks         *courselock.Registry
	progressPrune *fakePruner
	rewardPrune   *fakePruner
}

func newFixture() *fixture {
	f := &fixture{
		courses:       inmem.NewCourseStore(),
		enrollments:   inmem.NewEnrollmentStore(),
		search:        newFakeSearch(),
		media:         newFakeMedia(),
		locks:         courselock.NewRegistry(),
		progressPrune: &fakePruner{},
		rewardPrune:   &fakePruner{},
	}
	f.catalog = NewCatalogService(logger.Discard(), f.courses, f.enrollments, f.search, f.media, f.locks, f.progressPrune, f.rewardPrune)
	return f
}

func (f *fixture) seedCourse(t *testing.T) *models.Course {
	t.Helper()
	chapter := models.Chapter{ID: uuid.New(), Title: "Basics"}
	chapter.Lessons = []models.Lesson{
		{ID: uuid.New(), ChapterID: chapter.ID, Title: "Goroutines"},
		{ID: uuid.New(), ChapterID: chapter.ID, Title: "Channels"},
	}
	course := &models.Course{
		ID:       uuid.New(),
		Title:    "Go from zero",
		Status:   models.StatusHidden,
		Chapters: []models.Chapter{chapter},
	}
	_, err := f.courses.CreateCourse(context.Background(), course)
	require.NoError(t, err)
	return course
}

func TestCreateCourseStartsHidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	id, err := f.catalog.CreateCourse(ctx, "Go from zero", "A first course")
	require.NoError(t, err)

	course, err := f.catalog.CourseByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusHidden, course.Status)
	assert.Equal(t, "Go from zero", course.Title)
	assert.Empty(t, course.Chapters)
}

func TestUpdateCoursePatchesOnlySetFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)

	desc := "Updated description"
	course, err := f.catalog.UpdateCourse(ctx, seeded.ID, CourseUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Go from zero", course.Title)
	assert.Equal(t, desc, course.Description)

	// a hidden course is not pushed to the search index
	assert.Empty(t, f.search.indexed)
}

func TestPublishIndexesCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)

	require.NoError(t, f.catalog.Publish(ctx, seeded.ID))

	course, err := f.catalog.CourseByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublic, course.Status)
	assert.Contains(t, f.search.indexed, seeded.ID)
}

func TestHideRemovesFromIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)

	require.NoError(t, f.catalog.Publish(ctx, seeded.ID))
	require.NoError(t, f.catalog.Hide(ctx, seeded.ID))

	course, err := f.catalog.CourseByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusHidden, course.Status)
	assert.NotContains(t, f.search.indexed, seeded.ID)
}

func TestDuplicateCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)
	require.NoError(t, f.catalog.Publish(ctx, seeded.ID))

	clone, err := f.catalog.DuplicateCourse(ctx, seeded.ID)
	require.NoError(t, err)
	assert.NotEqual(t, seeded.ID, clone.ID)
	assert.Equal(t, "Go from zero (Copy)", clone.Title)
	assert.Equal(t, models.StatusHidden, clone.Status)
	assert.Equal(t, seeded.TotalLessons(), clone.TotalLessons())

	// every node in the copy has a fresh identity
	for i, ch := range clone.Chapters {
		assert.NotEqual(t, seeded.Chapters[i].ID, ch.ID)
		assert.Equal(t, clone.ID, ch.CourseID)
		for j, l := range ch.Lessons {
			assert.NotEqual(t, seeded.Chapters[i].Lessons[j].ID, l.ID)
			assert.Equal(t, ch.ID, l.ChapterID)
		}
	}

	stored, err := f.catalog.CourseByID(ctx, clone.ID)
	require.NoError(t, err)
	assert.Equal(t, clone.ID, stored.ID)
}

func TestDeleteCourseCleansCollaborators(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)
	require.NoError(t, f.catalog.Publish(ctx, seeded.ID))

	thumb := strings.NewReader("png bytes")
	_, err := f.catalog.UploadThumbnail(ctx, seeded.ID, "cover.png", thumb, int64(thumb.Len()), "image/png")
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteCourse(ctx, seeded.ID))

	_, err = f.catalog.CourseByID(ctx, seeded.ID)
	assert.ErrorIs(t, err, app_errors.ErrCourseNotFound)
	assert.NotContains(t, f.search.indexed, seeded.ID)
	assert.Empty(t, f.media.objects)
	assert.Equal(t, []uuid.UUID{seeded.ID}, f.progressPrune.pruned)
	assert.Equal(t, []uuid.UUID{seeded.ID}, f.rewardPrune.pruned)
}

func TestDeleteCourseRemovesPersistedLearnerState(t *testing.T) {
	ctx := context.Background()
	courses := inmem.NewCourseStore()
	enrollments := inmem.NewEnrollmentStore()
	store := kv.NewInMem()
	locks := courselock.NewRegistry()

	rewards := reward.NewRewardService(logger.Discard(), store, reward.DefaultPolicy())
	prog := progress.NewProgressService(logger.Discard(), courses, store, rewards)
	cat := NewCatalogService(logger.Discard(), courses, enrollments, newFakeSearch(), newFakeMedia(), locks, prog, rewards)

	chapter := models.Chapter{ID: uuid.New(), Title: "Basics"}
	chapter.Lessons = []models.Lesson{{ID: uuid.New(), ChapterID: chapter.ID, Title: "Goroutines"}}
	course := &models.Course{
		ID:       uuid.New(),
		Title:    "Go from zero",
		Status:   models.StatusPublic,
		Chapters: []models.Chapter{chapter},
	}
	_, err := courses.CreateCourse(ctx, course)
	require.NoError(t, err)

	userID := uuid.New()
	_, err = prog.MarkComplete(ctx, userID, course.ID, chapter.Lessons[0].ID)
	require.NoError(t, err)

	progressSnapshot := fmt.Sprintf("progress:%s:%s", userID, course.ID)
	rewardSnapshot := fmt.Sprintf("reward:%s:%s", userID, course.ID)
	_, err = store.Get(ctx, progressSnapshot)
	require.NoError(t, err)
	_, err = store.Get(ctx, rewardSnapshot)
	require.NoError(t, err)

	require.NoError(t, cat.DeleteCourse(ctx, course.ID))

	_, err = store.Get(ctx, progressSnapshot)
	assert.ErrorIs(t, err, app_errors.ErrKeyNotFound)
	_, err = store.Get(ctx, rewardSnapshot)
	assert.ErrorIs(t, err, app_errors.ErrKeyNotFound)
}

// Publishing rewrites the whole course tree, so it takes the same
// per-course lock as authoring. Chapters added concurrently with a
// publish/hide cycle must all survive.
func TestPublishKeepsConcurrentChapterEdits(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)

	ed := editor.NewEditorService(logger.Discard(), f.courses, nil, f.locks)

	const added = 8
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < added; i++ {
			if _, err := ed.AddChapter(ctx, seeded.ID, "Extra"); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < added; i++ {
			if err := f.catalog.Publish(ctx, seeded.ID); err != nil {
				t.Error(err)
				return
			}
			if err := f.catalog.Hide(ctx, seeded.ID); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()

	course, err := f.catalog.CourseByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Len(t, course.Chapters, 1+added)
}

func TestSearchCoursesMapsHitsToPreviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)
	f.search.hits = []uuid.UUID{seeded.ID, uuid.New()}

	previews, err := f.catalog.SearchCourses(ctx, "go", 10)
	require.NoError(t, err)
	// an id that no longer resolves is skipped, not an error
	require.Len(t, previews, 1)
	assert.Equal(t, seeded.ID, previews[0].ID)
	assert.Equal(t, 2, previews[0].LessonCount)
}

func TestEnrollUsersRequiresPublishedCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)

	err := f.catalog.EnrollUsers(ctx, seeded.ID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, app_errors.ErrCourseNotPublished)
}

func TestEnrollUsersSkipsAlreadyEnrolled(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)
	require.NoError(t, f.catalog.Publish(ctx, seeded.ID))

	userA, userB := uuid.New(), uuid.New()
	require.NoError(t, f.catalog.EnrollUsers(ctx, seeded.ID, []uuid.UUID{userA}))
	require.NoError(t, f.catalog.EnrollUsers(ctx, seeded.ID, []uuid.UUID{userA, userB}))

	list, err := f.catalog.ListEnrollments(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUploadThumbnail(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)

	body := strings.NewReader("png bytes")
	url, err := f.catalog.UploadThumbnail(ctx, seeded.ID, "cover.png", body, int64(body.Len()), "image/png")
	require.NoError(t, err)
	assert.Contains(t, url, "https://media.test/courses/"+seeded.ID.String())

	course, err := f.catalog.CourseByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, course.ThumbnailObjectKey)
}

func TestUploadThumbnailRejectsNonImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)

	body := strings.NewReader("plain text")
	_, err := f.catalog.UploadThumbnail(ctx, seeded.ID, "notes.txt", body, int64(body.Len()), "text/plain")
	assert.ErrorIs(t, err, app_errors.ErrNotImage)
}

func TestUploadLessonVideo(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)
	lessonID := seeded.Chapters[0].Lessons[0].ID

	body := strings.NewReader("mp4 bytes")
	url, err := f.catalog.UploadLessonVideo(ctx, seeded.ID, lessonID, "intro.mp4", body, int64(body.Len()), "video/mp4")
	require.NoError(t, err)
	assert.Contains(t, url, lessonID.String())

	course, err := f.catalog.CourseByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, course.Lesson(lessonID).VideoObjectKey)
}

func TestUploadLessonVideoRejectsNonVideo(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)
	lessonID := seeded.Chapters[0].Lessons[0].ID

	body := strings.NewReader("gif bytes")
	_, err := f.catalog.UploadLessonVideo(ctx, seeded.ID, lessonID, "intro.gif", body, int64(body.Len()), "image/gif")
	assert.ErrorIs(t, err, app_errors.ErrNotVideo)

	_, err = f.catalog.UploadLessonVideo(ctx, seeded.ID, uuid.New(), "intro.mp4", body, 0, "video/mp4")
	assert.ErrorIs(t, err, app_errors.ErrLessonNotFound)
}

func TestListCoursesPreviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seeded := f.seedCourse(t)

	previews, err := f.catalog.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, seeded.ID, previews[0].ID)
	assert.Equal(t, 2, previews[0].LessonCount)
	assert.Empty(t, previews[0].ThumbnailURL)
}
