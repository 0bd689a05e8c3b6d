package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"LearnLoom/internal/delivery/http/controllers"
	"LearnLoom/internal/delivery/http/controllers/middleware"
	"LearnLoom/internal/service"
	"LearnLoom/pkg/logger"
)

func InitRoutes(l logger.Log, u service.Collection) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	config := cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(config))

	statusController := controllers.NewStatusHandler()
	catalogController := controllers.NewCatalogHandler(l, u.CatalogService)
	editorController := controllers.NewEditorHandler(l, u.EditorService)
	learnerController := controllers.NewLearnerHandler(l, u.ProgressService, u.QuizService, u.RewardService)

	v1 := r.Group("/v1", controllers.LoggingMiddleware(l))
	{
		v1.GET("/status", statusController.Status)

		courses := v1.Group("/courses")
		{
			courses.GET("", catalogController.ListCourses)
			courses.GET("/search", catalogController.SearchCourses)
			courses.POST("", catalogController.CreateCourse)
			courses.GET("/:course_id", catalogController.CourseByID)
			courses.PATCH("/:course_id", catalogController.UpdateCourse)
			courses.DELETE("/:course_id", catalogController.DeleteCourse)
			courses.POST("/:course_id/duplicate", catalogController.DuplicateCourse)
			courses.PATCH("/:course_id/publish", catalogController.PublishCourse)
			courses.PATCH("/:course_id/hide", catalogController.HideCourse)
			courses.PUT("/:course_id/thumbnail", catalogController.UploadThumbnail)
			courses.POST("/:course_id/enroll", catalogController.EnrollUsers)
			courses.GET("/:course_id/enrollments", catalogController.ListEnrollments)

			courses.POST("/:course_id/chapters", editorController.AddChapter)
			courses.PATCH("/:course_id/chapters/move", editorController.MoveChapter)
			courses.PATCH("/:course_id/chapters/:chapter_id", editorController.RenameChapter)
			courses.DELETE("/:course_id/chapters/:chapter_id", editorController.DeleteChapter)
			courses.POST("/:course_id/chapters/:chapter_id/lessons", editorController.AddLesson)
			courses.PATCH("/:course_id/lessons/move", editorController.MoveLesson)
			courses.PATCH("/:course_id/lessons/:lesson_id", editorController.UpdateLesson)
			courses.DELETE("/:course_id/lessons/:lesson_id", editorController.DeleteLesson)
			courses.PUT("/:course_id/lessons/:lesson_id/quiz", editorController.AttachQuiz)
			courses.DELETE("/:course_id/lessons/:lesson_id/quiz", editorController.DetachQuiz)
			courses.POST("/:course_id/lessons/:lesson_id/attachments", editorController.AddAttachment)
			courses.DELETE("/:course_id/lessons/:lesson_id/attachments/:attachment_id", editorController.RemoveAttachment)
			courses.PUT("/:course_id/lessons/:lesson_id/video", catalogController.UploadLessonVideo)

			learner := courses.Group("", middleware.RequireUser)
			{
				learner.GET("/:course_id/progress", learnerController.Progress)
				learner.GET("/:course_id/rewards", learnerController.Rewards)
				learner.POST("/:course_id/lessons/:lesson_id/complete", learnerController.MarkComplete)
				learner.POST("/:course_id/lessons/:lesson_id/incomplete", learnerController.MarkIncomplete)
				learner.POST("/:course_id/lessons/:lesson_id/toggle", learnerController.ToggleComplete)
				learner.POST("/:course_id/lessons/:lesson_id/start", learnerController.StartLesson)
				learner.POST("/:course_id/lessons/:lesson_id/video-position", learnerController.RecordVideoPosition)
				learner.POST("/:course_id/lessons/:lesson_id/quiz/submit", learnerController.SubmitQuiz)
				learner.GET("/:course_id/lessons/:lesson_id/quiz/result", learnerController.QuizResult)
			}
		}
	}
	return r
}
