package controllers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"LearnLoom/internal/models"
	"LearnLoom/internal/service/catalog"
	"LearnLoom/pkg/logger"
)

type CatalogService interface {
	CreateCourse(ctx context.Context, title, description string) (uuid.UUID, error)
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	ListCourses(ctx context.Context) ([]models.CoursePreview, error)
	UpdateCourse(ctx context.Context, id uuid.UUID, update catalog.CourseUpdate) (*models.Course, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	DuplicateCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
	Publish(ctx context.Context, id uuid.UUID) error
	Hide(ctx context.Context, id uuid.UUID) error
	SearchCourses(ctx context.Context, query string, size int) ([]models.CoursePreview, error)
	EnrollUsers(ctx context.Context, courseID uuid.UUID, userIDs []uuid.UUID) error
	ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error)
	UploadThumbnail(ctx context.Context, courseID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	UploadLessonVideo(ctx context.Context, courseID, lessonID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

type CatalogHandler struct {
	log     logger.Log
	service CatalogService
}

func NewCatalogHandler(l logger.Log, s CatalogService) *CatalogHandler {
	return &CatalogHandler{log: l, service: s}
}

type newCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var input newCourseRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.service.CreateCourse(c.Request.Context(), input.Title, input.Description)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *CatalogHandler) ListCourses(c *gin.Context) {
	previews, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": previews})
}

func (h *CatalogHandler) CourseByID(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	course, err := h.service.CourseByID(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	var input catalog.CourseUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.service.UpdateCourse(c.Request.Context(), courseID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	if err := h.service.DeleteCourse(c.Request.Context(), courseID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *CatalogHandler) DuplicateCourse(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	clone, err := h.service.DuplicateCourse(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clone)
}

func (h *CatalogHandler) PublishCourse(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	if err := h.service.Publish(c.Request.Context(), courseID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *CatalogHandler) HideCourse(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	if err := h.service.Hide(c.Request.Context(), courseID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *CatalogHandler) SearchCourses(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	previews, err := h.service.SearchCourses(c.Request.Context(), query, size)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": previews})
}

type enrollRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" binding:"required"`
}

func (h *CatalogHandler) EnrollUsers(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	var input enrollRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.EnrollUsers(c.Request.Context(), courseID, input.UserIDs); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *CatalogHandler) ListEnrollments(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	enrollments, err := h.service.ListEnrollments(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

func (h *CatalogHandler) UploadThumbnail(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	url, err := h.service.UploadThumbnail(
		c.Request.Context(), courseID,
		header.Filename, file, header.Size, header.Header.Get("Content-Type"),
	)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *CatalogHandler) UploadLessonVideo(c *gin.Context) {
	courseID, ok := ParamUUID(c, "course_id")
	if !ok {
		return
	}
	lessonID, ok := ParamUUID(c, "lesson_id")
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	url, err := h.service.UploadLessonVideo(
		c.Request.Context(), courseID, lessonID,
		header.Filename, file, header.Size, header.Header.Get("Content-Type"),
	)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
