package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	"github.com/schoolsuite/exam-engine-api/internal/service"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
	"github.com/schoolsuite/exam-engine-api/pkg/response"
)

// MarkHandler exposes mark entry and the mark verification workflow.
type MarkHandler struct {
	marks         *service.MarkService
	notifications *service.NotificationService
}

// NewMarkHandler constructs handler.
func NewMarkHandler(marks *service.MarkService, notifications *service.NotificationService) *MarkHandler {
	return &MarkHandler{marks: marks, notifications: notifications}
}

// SaveDraft godoc
// @Summary Save draft marks for an exam/class/subject
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.SaveDraftMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/draft [post]
func (h *MarkHandler) SaveDraft(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SaveDraftMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	count, err := h.marks.SaveDraft(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": count}, nil)
}

// List godoc
// @Summary List marks
// @Tags Marks
// @Produce json
// @Param examId query string false "Filter by exam"
// @Param classId query string false "Filter by class"
// @Param subjectId query string false "Filter by subject"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks [get]
func (h *MarkHandler) List(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.MarkFilter{
		SchoolID:  claims.SchoolID,
		ExamID:    c.Query("examId"),
		ClassID:   c.Query("classId"),
		SectionID: c.Query("sectionId"),
		SubjectID: c.Query("subjectId"),
		StudentID: c.Query("studentId"),
		Status:    models.MarkStatus(c.Query("status")),
	}
	marks, err := h.marks.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// Progress godoc
// @Summary Summarise mark statuses for a scope
// @Tags Marks
// @Produce json
// @Param examId query string true "Exam id"
// @Param classId query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/progress [get]
func (h *MarkHandler) Progress(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.MarkFilter{
		SchoolID:  claims.SchoolID,
		ExamID:    c.Query("examId"),
		ClassID:   c.Query("classId"),
		SubjectID: c.Query("subjectId"),
	}
	progress, err := h.marks.Progress(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Submit godoc
// @Summary Submit draft marks for verification
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.BulkTransitionRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/submit [post]
func (h *MarkHandler) Submit(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, events, err := h.marks.Submit(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.notifications != nil {
		h.notifications.Dispatch(c.Request.Context(), events)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Verify godoc
// @Summary Verify submitted marks
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.BulkTransitionRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/verify [post]
func (h *MarkHandler) Verify(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.marks.Verify(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Lock godoc
// @Summary Lock verified marks
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.BulkTransitionRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/lock [post]
func (h *MarkHandler) Lock(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.marks.Lock(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Students godoc
// @Summary List the active roster for mark entry
// @Tags Marks
// @Produce json
// @Param classId query string true "Class id"
// @Param sectionId query string false "Section id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/students [get]
func (h *MarkHandler) Students(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.marks.Students(c.Request.Context(), claims.SchoolID, c.Query("classId"), c.Query("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Subjects godoc
// @Summary List an exam's subjects with paper totals
// @Tags Marks
// @Produce json
// @Param examId query string true "Exam id"
// @Param classId query string true "Class id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/subjects [get]
func (h *MarkHandler) Subjects(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, err := h.marks.Subjects(c.Request.Context(), claims.SchoolID, c.Query("examId"), c.Query("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
