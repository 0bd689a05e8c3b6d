package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"LearnLoom/internal/app_errors"
)

// RespondError maps domain sentinels onto HTTP status codes.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app_errors.ErrCourseNotFound),
		errors.Is(err, app_errors.ErrChapterNotFound),
		errors.Is(err, app_errors.ErrLessonNotFound),
		errors.Is(err, app_errors.ErrQuizNotFound),
		errors.Is(err, app_errors.ErrQuizNotTaken),
		errors.Is(err, app_errors.ErrImageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, app_errors.ErrInvalidAnswerIndex),
		errors.Is(err, app_errors.ErrNotImage),
		errors.Is(err, app_errors.ErrNotVideo),
		errors.Is(err, app_errors.ErrFileSize):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, app_errors.ErrQuizAlreadySubmitted),
		errors.Is(err, app_errors.ErrAlreadyEnrolled),
		errors.Is(err, app_errors.ErrCourseNotPublished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ParamUUID parses a uuid path parameter, writing a 400 on failure.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw, ok := c.Params.Get(name)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " is required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return uuid.Nil, false
	}
	return id, true
}
