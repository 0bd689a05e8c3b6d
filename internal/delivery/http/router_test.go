package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LearnLoom/internal/models"
	"LearnLoom/internal/service"
	"LearnLoom/internal/service/catalog"
	"LearnLoom/internal/service/courselock"
	"LearnLoom/internal/service/editor"
	"LearnLoom/internal/service/progress"
	"LearnLoom/internal/service/quiz"
	"LearnLoom/internal/service/reward"
	"LearnLoom/internal/storage/inmem"
	"LearnLoom/internal/storage/kv"
	"LearnLoom/pkg/logger"
)

type stubSearch struct{}

func (stubSearch) Index(context.Context, models.Course) error { return nil }

func (stubSearch) Delete(context.Context, uuid.UUID) error { return nil }

func (stubSearch) Search(context.Context, string, int) ([]uuid.UUID, error) { return nil, nil }

type stubMedia struct{}

func (stubMedia) UploadThumbnail(_ context.Context, courseID uuid.UUID, _ string, _ io.Reader, _ int64, _ string) (string, error) {
	return "courses/" + courseID.String() + "/thumbnail", nil
}

func (stubMedia) UploadVideo(_ context.Context, courseID, lessonID uuid.UUID, _ string, _ io.Reader, _ int64, _ string) (string, error) {
	return "courses/" + courseID.String() + "/lessons/" + lessonID.String() + "/video", nil
}

func (stubMedia) GetMediaURL(_ context.Context, objectKey string) (string, error) {
	return "https://media.test/" + objectKey, nil
}

func (stubMedia) DeleteMedia(context.Context, string) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	courses := inmem.NewCourseStore()
	enrollments := inmem.NewEnrollmentStore()
	store := kv.NewInMem()

	locks := courselock.NewRegistry()
	rewards := reward.NewRewardService(log, store, reward.DefaultPolicy())
	prog := progress.NewProgressService(log, courses, store, rewards)
	return InitRoutes(log, service.Collection{
		CatalogService:  catalog.NewCatalogService(log, courses, enrollments, stubSearch{}, stubMedia{}, locks, prog, rewards),
		EditorService:   editor.NewEditorService(log, courses, prog, locks),
		ProgressService: prog,
		QuizService:     quiz.NewQuizService(log, courses, rewards, prog),
		RewardService:   rewards,
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestStatusEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/v1/status", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLearnerRoutesRequireUserHeader(t *testing.T) {
	r := newTestRouter(t)
	path := "/v1/courses/" + uuid.NewString() + "/progress"

	w := doJSON(t, r, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, path, nil, "not-a-uuid")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnknownCourseIs404(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/v1/courses/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCourseLifecycle drives the authoring and learning flow end to end
// through the HTTP surface.
func TestCourseLifecycle(t *testing.T) {
	r := newTestRouter(t)
	learner := uuid.NewString()

	w := doJSON(t, r, http.MethodPost, "/v1/courses", gin.H{"title": "Go from zero"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	courseID := decode[map[string]string](t, w)["id"]
	require.NotEmpty(t, courseID)
	base := "/v1/courses/" + courseID

	w = doJSON(t, r, http.MethodPost, base+"/chapters", gin.H{"title": "Basics"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	course := decode[models.Course](t, w)
	require.Len(t, course.Chapters, 1)
	chapterID := course.Chapters[0].ID.String()

	w = doJSON(t, r, http.MethodPost, base+"/chapters/"+chapterID+"/lessons", gin.H{"title": "Goroutines"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	course = decode[models.Course](t, w)
	require.Len(t, course.Chapters[0].Lessons, 1)
	lessonID := course.Chapters[0].Lessons[0].ID.String()

	// an answer index outside the options never reaches the tree
	w = doJSON(t, r, http.MethodPut, base+"/lessons/"+lessonID+"/quiz", gin.H{
		"question":     "Which keyword starts a goroutine?",
		"options":      []string{"run", "go"},
		"answer_index": 5,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, base+"/lessons/"+lessonID+"/quiz", gin.H{
		"question":     "Which keyword starts a goroutine?",
		"options":      []string{"run", "go", "spawn"},
		"answer_index": 1,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, base+"/lessons/"+lessonID+"/complete", nil, learner)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[models.CourseProgress](t, w)
	assert.Equal(t, 1, summary.CompletedCount)
	assert.Equal(t, 100, summary.Percent)

	w = doJSON(t, r, http.MethodGet, base+"/rewards", nil, learner)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[models.RewardState](t, w)
	assert.Equal(t, 115, state.XP)
	assert.Contains(t, state.Badges, models.BadgeCourseCompleted)
}

func TestQuizSubmissionOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	learner := uuid.NewString()

	w := doJSON(t, r, http.MethodPost, "/v1/courses", gin.H{"title": "Quizzes"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	base := "/v1/courses/" + decode[map[string]string](t, w)["id"]

	w = doJSON(t, r, http.MethodPost, base+"/chapters", gin.H{"title": "Only"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	chapterID := decode[models.Course](t, w).Chapters[0].ID.String()

	w = doJSON(t, r, http.MethodPost, base+"/chapters/"+chapterID+"/lessons", gin.H{"title": "Quizzed"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	lessonID := decode[models.Course](t, w).Chapters[0].Lessons[0].ID.String()

	w = doJSON(t, r, http.MethodPut, base+"/lessons/"+lessonID+"/quiz", gin.H{
		"question":     "Pick the zero value of an int",
		"options":      []string{"0", "nil"},
		"answer_index": 0,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	quizPath := base + "/lessons/" + lessonID + "/quiz"

	w = doJSON(t, r, http.MethodGet, quizPath+"/result", nil, learner)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, quizPath+"/submit", gin.H{"chosen_index": 0}, learner)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[models.QuizResult](t, w)
	assert.True(t, result.Correct)

	// one submission per learner per session
	w = doJSON(t, r, http.MethodPost, quizPath+"/submit", gin.H{"chosen_index": 1}, learner)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, quizPath+"/result", nil, learner)
	require.Equal(t, http.StatusOK, w.Code)
	result = decode[models.QuizResult](t, w)
	assert.True(t, result.Correct)
	assert.Equal(t, 0, result.ChosenIndex)
}

func TestEnrollmentRequiresPublishedCourse(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/courses", gin.H{"title": "Hidden"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	base := "/v1/courses/" + decode[map[string]string](t, w)["id"]

	w = doJSON(t, r, http.MethodPost, base+"/enroll", gin.H{"user_ids": []string{uuid.NewString()}}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPatch, base+"/publish", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, base+"/enroll", gin.H{"user_ids": []string{uuid.NewString()}}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
