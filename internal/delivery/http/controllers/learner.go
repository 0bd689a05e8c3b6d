package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"LearnLoom/internal/delivery/http/controllers/middleware"
	"LearnLoom/internal/models"
	"LearnLoom/pkg/logger"
)

type ProgressService interface {
	Progress(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error)
	MarkComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error)
	MarkIncomplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error)
	ToggleComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error)
	StartLesson(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error)
	RecordVideoPosition(ctx context.Context, userID, courseID, lessonID uuid.UUID, watched float64) (*models.CourseProgress, error)
}

type QuizService interface {
	SubmitQuiz(ctx context.Context, userID, courseID, lessonID uuid.UUID, chosenIndex int) (*models.QuizResult, error)
	QuizResult(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.QuizResult, error)
}

type RewardService interface {
	RewardState(ctx context.Context, userID, courseID uuid.UUID) models.RewardState
}

type LearnerHandler struct {
	log      logger.Log
	progress ProgressService
	quiz     QuizService
	rewards  RewardService
}

func NewLearnerHandler(l logger.Log, p ProgressService, q QuizService, r RewardService) *LearnerHandler {
	return &LearnerHandler{log: l, progress: p, quiz: q, rewards: r}
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.UserIDCtx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return v.(uuid.UUID), true
}

func (h *LearnerHandler) Progress(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	summary, err := h.progress.Progress(c.Request.Context(), uid, courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *LearnerHandler) lessonAction(
	c *gin.Context,
	action func(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.CourseProgress, error),
) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	summary, err := action(c.Request.Context(), uid, courseID, lessonID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *LearnerHandler) MarkComplete(c *gin.Context) {
	h.lessonAction(c, h.progress.MarkComplete)
}

func (h *LearnerHandler) MarkIncomplete(c *gin.Context) {
	h.lessonAction(c, h.progress.MarkIncomplete)
}

func (h *LearnerHandler) ToggleComplete(c *gin.Context) {
	h.lessonAction(c, h.progress.ToggleComplete)
}

func (h *LearnerHandler) StartLesson(c *gin.Context) {
	h.lessonAction(c, h.progress.StartLesson)
}

type videoPositionRequest struct {
	Watched float64 `json:"watched"`
}

func (h *LearnerHandler) RecordVideoPosition(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	var input videoPositionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.progress.RecordVideoPosition(c.Request.Context(), uid, courseID, lessonID, input.Watched)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type submitQuizRequest struct {
	ChosenIndex *int `json:"chosen_index" binding:"required"`
}

func (h *LearnerHandler) SubmitQuiz(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	var input submitQuizRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.quiz.SubmitQuiz(c.Request.Context(), uid, courseID, lessonID, *input.ChosenIndex)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LearnerHandler) QuizResult(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	result, err := h.quiz.QuizResult(c.Request.Context(), uid, courseID, lessonID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LearnerHandler) Rewards(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	state := h.rewards.RewardState(c.Request.Context(), uid, courseID)
	c.JSON(http.StatusOK, state)
}
