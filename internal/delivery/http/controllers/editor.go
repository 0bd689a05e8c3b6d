package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"LearnLoom/internal/models"
	"LearnLoom/pkg/logger"
)

type EditorService interface {
	AddChapter(ctx context.Context, courseID uuid.UUID, title string) (*models.Course, error)
	RenameChapter(ctx context.Context, courseID, chapterID uuid.UUID, title string) (*models.Course, error)
	DeleteChapter(ctx context.Context, courseID, chapterID uuid.UUID) (*models.Course, error)
	MoveChapter(ctx context.Context, courseID uuid.UUID, from, to int) (*models.Course, error)
	AddLesson(ctx context.Context, courseID, chapterID uuid.UUID, title string) (*models.Course, error)
	UpdateLesson(ctx context.Context, courseID, lessonID uuid.UUID, update models.LessonUpdate) (*models.Course, error)
	DeleteLesson(ctx context.Context, courseID, lessonID uuid.UUID) (*models.Course, error)
	MoveLesson(ctx context.Context, courseID, fromChapterID uuid.UUID, from int, toChapterID uuid.UUID, to int) (*models.Course, error)
	AttachQuiz(ctx context.Context, courseID, lessonID uuid.UUID, quiz models.Quiz) (*models.Course, error)
	DetachQuiz(ctx context.Context, courseID, lessonID uuid.UUID) (*models.Course, error)
	AddAttachment(ctx context.Context, courseID, lessonID uuid.UUID, name, ref string) (*models.Course, error)
	RemoveAttachment(ctx context.Context, courseID, lessonID, attachmentID uuid.UUID) (*models.Course, error)
}

type EditorHandler struct {
	log     logger.Log
	service EditorService
}

func NewEditorHandler(l logger.Log, s EditorService) *EditorHandler {
	return &EditorHandler{log: l, service: s}
}

type titleRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *EditorHandler) AddChapter(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	var input titleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.AddChapter(c.Request.Context(), courseID, input.Title)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *EditorHandler) RenameChapter(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	chapterID, ok := ParamUUID(c, "chapter_id")
	if !ok {
		return
	}
	var input titleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.RenameChapter(c.Request.Context(), courseID, chapterID, input.Title)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *EditorHandler) DeleteChapter(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	chapterID, ok := ParamUUID(c, "chapter_id")
	if !ok {
		return
	}
	course, err := h.service.DeleteChapter(c.Request.Context(), courseID, chapterID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *EditorHandler) MoveChapter(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	var input moveRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.MoveChapter(c.Request.Context(), courseID, input.From, input.To)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *EditorHandler) AddLesson(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	chapterID, ok := ParamUUID(c, "chapter_id")
	if !ok {
		return
	}
	var input titleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.AddLesson(c.Request.Context(), courseID, chapterID, input.Title)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *EditorHandler) UpdateLesson(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	var input models.LessonUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.UpdateLesson(c.Request.Context(), courseID, lessonID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *EditorHandler) DeleteLesson(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	course, err := h.service.DeleteLesson(c.Request.Context(), courseID, lessonID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

type moveLessonRequest struct {
	FromChapterID uuid.UUID `json:"from_chapter_id" binding:"required"`
	From          int       `json:"from"`
	ToChapterID   uuid.UUID `json:"to_chapter_id" binding:"required"`
	To            int       `json:"to"`
}

func (h *EditorHandler) MoveLesson(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	var input moveLessonRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.MoveLesson(
		c.Request.Context(), courseID,
		input.FromChapterID, input.From, input.ToChapterID, input.To,
	)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

type quizRequest struct {
	Question    string   `json:"question" binding:"required"`
	Options     []string `json:"options" binding:"required"`
	AnswerIndex int      `json:"answer_index"`
}

func (h *EditorHandler) AttachQuiz(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	var input quizRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.AttachQuiz(c.Request.Context(), courseID, lessonID, models.Quiz{
		Question:    input.Question,
		Options:     input.Options,
		AnswerIndex: input.AnswerIndex,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *EditorHandler) DetachQuiz(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	course, err := h.service.DetachQuiz(c.Request.Context(), courseID, lessonID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

type attachmentRequest struct {
	Name string `json:"name" binding:"required"`
	Ref  string `json:"ref" binding:"required"`
}

func (h *EditorHandler) AddAttachment(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	var input attachmentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.AddAttachment(c.Request.Context(), courseID, lessonID, input.Name, input.Ref)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *EditorHandler) RemoveAttachment(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	attachmentID, ok := ParamUUID(c, "attachment_id")
	if !ok {
		return
	}
	course, err := h.service.RemoveAttachment(c.Request.Context(), courseID, lessonID, attachmentID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}
