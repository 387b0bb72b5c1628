package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	"github.com/schoolsuite/exam-engine-api/internal/service"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
	"github.com/schoolsuite/exam-engine-api/pkg/response"
)

// ResultHandler exposes result generation, listing and publication.
type ResultHandler struct {
	results       *service.ResultService
	notifications *service.NotificationService
}

// NewResultHandler constructs handler.
func NewResultHandler(results *service.ResultService, notifications *service.NotificationService) *ResultHandler {
	return &ResultHandler{results: results, notifications: notifications}
}

// Generate godoc
// @Summary Generate results for an exam
// @Tags Results
// @Produce json
// @Param id path string true "Exam id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id}/results/generate [post]
func (h *ResultHandler) Generate(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.results.Generate(c.Request.Context(), claims.SchoolID, claims.SessionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Publish godoc
// @Summary Publish an exam's computed results
// @Tags Results
// @Produce json
// @Param id path string true "Exam id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id}/results/publish [post]
func (h *ResultHandler) Publish(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	count, events, err := h.results.Publish(c.Request.Context(), claims.SchoolID, claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.notifications != nil {
		h.notifications.Dispatch(c.Request.Context(), events)
	}
	response.JSON(c, http.StatusOK, gin.H{"published": count}, nil)
}

// List godoc
// @Summary List results
// @Tags Results
// @Produce json
// @Param examId query string false "Filter by exam"
// @Param classId query string false "Filter by class"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.ResultFilter{
		SchoolID:  claims.SchoolID,
		ExamID:    c.Query("examId"),
		ClassID:   c.Query("classId"),
		StudentID: c.Query("studentId"),
		Status:    models.ResultStatus(c.Query("status")),
	}
	// Students only ever see their own published results.
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
		filter.Status = models.ResultStatusPublished
	}
	results, err := h.results.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// StudentResult godoc
// @Summary Get one student's result for an exam
// @Tags Results
// @Produce json
// @Param id path string true "Exam id"
// @Param studentId path string true "Student id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exams/{id}/results/{studentId} [get]
func (h *ResultHandler) StudentResult(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID := c.Param("studentId")
	if claims.Role == models.RoleStudent && studentID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	result, err := h.results.StudentResult(c.Request.Context(), claims.SchoolID, c.Param("id"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims.Role == models.RoleStudent && result.Status != models.ResultStatusPublished {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "result not found"))
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
