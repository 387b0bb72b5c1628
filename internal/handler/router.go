package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/exam-engine-api/internal/middleware"
	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// Handlers bundles every route handler for registration.
type Handlers struct {
	Exams      *ExamHandler
	Papers     *PaperHandler
	Marks      *MarkHandler
	Datesheets *DatesheetHandler
	Grading    *GradingHandler
	Results    *ResultHandler
}

// RegisterRoutes mounts the API surface under the given prefix. Every route
// requires a valid token; write operations are additionally role-guarded.
func RegisterRoutes(r *gin.Engine, prefix, jwtSecret string, h Handlers) {
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleTeacher)
	reviewers := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	admins := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(prefix)
	api.Use(middleware.JWT(jwtSecret))

	exams := api.Group("/exams")
	{
		exams.POST("", reviewers, h.Exams.Create)
		exams.GET("", h.Exams.List)
		exams.GET("/:id", h.Exams.Get)
		exams.PATCH("/:id/status", reviewers, h.Exams.UpdateStatus)

		exams.POST("/:id/results/generate", reviewers, h.Results.Generate)
		exams.POST("/:id/results/publish", admins, h.Results.Publish)
		exams.GET("/:id/results/:studentId", h.Results.StudentResult)
	}

	papers := api.Group("/papers")
	{
		papers.POST("", staff, h.Papers.Create)
		papers.GET("", staff, h.Papers.List)
		papers.GET("/:id", staff, h.Papers.Get)
		papers.POST("/:id/submit", staff, h.Papers.Submit)
		papers.POST("/:id/approve", reviewers, h.Papers.Approve)
		papers.POST("/:id/reject", reviewers, h.Papers.Reject)
		papers.POST("/:id/lock", reviewers, h.Papers.Lock)
		papers.POST("/:id/questions", staff, h.Papers.AddQuestion)
		papers.PUT("/questions/:questionId", staff, h.Papers.UpdateQuestion)
		papers.DELETE("/questions/:questionId", staff, h.Papers.DeleteQuestion)
	}

	marks := api.Group("/marks")
	{
		marks.POST("/draft", staff, h.Marks.SaveDraft)
		marks.POST("/submit", staff, h.Marks.Submit)
		marks.POST("/verify", reviewers, h.Marks.Verify)
		marks.POST("/lock", reviewers, h.Marks.Lock)
		marks.GET("", staff, h.Marks.List)
		marks.GET("/progress", staff, h.Marks.Progress)
		marks.GET("/students", staff, h.Marks.Students)
		marks.GET("/subjects", staff, h.Marks.Subjects)
	}

	datesheets := api.Group("/datesheets")
	{
		datesheets.POST("", reviewers, h.Datesheets.Create)
		datesheets.GET("", h.Datesheets.ListByExam)
		datesheets.GET("/:id", h.Datesheets.Get)
		datesheets.GET("/:id/entries", h.Datesheets.Entries)
		datesheets.POST("/:id/entries", reviewers, h.Datesheets.AddEntry)
		datesheets.PUT("/:id/entries/:entryId", reviewers, h.Datesheets.UpdateEntry)
		datesheets.DELETE("/:id/entries/:entryId", reviewers, h.Datesheets.DeleteEntry)
		datesheets.POST("/:id/detect-conflicts", reviewers, h.Datesheets.DetectConflicts)
	}

	grading := api.Group("/grading-rules")
	{
		grading.POST("", admins, h.Grading.Create)
		grading.PUT("/:id", admins, h.Grading.Update)
		grading.DELETE("/:id", admins, h.Grading.Delete)
		grading.GET("", staff, h.Grading.List)
		grading.GET("/resolve", staff, h.Grading.Resolve)
	}

	api.GET("/results", h.Results.List)
}
