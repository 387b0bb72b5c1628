package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	"github.com/schoolsuite/exam-engine-api/internal/service"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
	"github.com/schoolsuite/exam-engine-api/pkg/response"
)

// PaperHandler exposes the paper authoring and review workflow.
type PaperHandler struct {
	papers        *service.PaperService
	notifications *service.NotificationService
}

// NewPaperHandler constructs handler.
func NewPaperHandler(papers *service.PaperService, notifications *service.NotificationService) *PaperHandler {
	return &PaperHandler{papers: papers, notifications: notifications}
}

type reviewRequest struct {
	Comment *string `json:"comment"`
}

// transitionResponse reports whether a workflow action actually ran.
type transitionResponse struct {
	Transitioned bool              `json:"transitioned"`
	Paper        *models.ExamPaper `json:"paper,omitempty"`
}

// Create godoc
// @Summary Create an exam paper
// @Tags Papers
// @Accept json
// @Produce json
// @Param payload body service.CreatePaperRequest true "Paper payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /papers [post]
func (h *PaperHandler) Create(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreatePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	paper, err := h.papers.Create(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, paper)
}

// Get godoc
// @Summary Get a paper with its questions
// @Tags Papers
// @Produce json
// @Param id path string true "Paper id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /papers/{id} [get]
func (h *PaperHandler) Get(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	paper, err := h.papers.Get(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// List godoc
// @Summary List papers
// @Tags Papers
// @Produce json
// @Param examId query string false "Filter by exam"
// @Param classId query string false "Filter by class"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /papers [get]
func (h *PaperHandler) List(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.PaperFilter{
		SchoolID:  claims.SchoolID,
		ExamID:    c.Query("examId"),
		ClassID:   c.Query("classId"),
		SubjectID: c.Query("subjectId"),
		Status:    models.PaperStatus(c.Query("status")),
	}
	papers, err := h.papers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, papers, nil)
}

// Submit godoc
// @Summary Submit a paper for review
// @Tags Papers
// @Produce json
// @Param id path string true "Paper id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /papers/{id}/submit [post]
func (h *PaperHandler) Submit(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok, events, err := h.papers.SubmitForReview(c.Request.Context(), claims.SchoolID, c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dispatch(c, events)
	h.respondTransition(c, claims.SchoolID, c.Param("id"), ok)
}

// Approve godoc
// @Summary Approve a submitted paper
// @Tags Papers
// @Accept json
// @Produce json
// @Param id path string true "Paper id"
// @Param payload body reviewRequest false "Optional review comment"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /papers/{id}/approve [post]
func (h *PaperHandler) Approve(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req reviewRequest
	_ = c.ShouldBindJSON(&req)
	ok, events, err := h.papers.Approve(c.Request.Context(), claims.SchoolID, c.Param("id"), claims.UserID, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dispatch(c, events)
	h.respondTransition(c, claims.SchoolID, c.Param("id"), ok)
}

// Reject godoc
// @Summary Reject a submitted paper
// @Tags Papers
// @Accept json
// @Produce json
// @Param id path string true "Paper id"
// @Param payload body reviewRequest true "Review comment"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /papers/{id}/reject [post]
func (h *PaperHandler) Reject(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ok, events, err := h.papers.Reject(c.Request.Context(), claims.SchoolID, c.Param("id"), claims.UserID, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dispatch(c, events)
	h.respondTransition(c, claims.SchoolID, c.Param("id"), ok)
}

// Lock godoc
// @Summary Lock an approved paper
// @Tags Papers
// @Produce json
// @Param id path string true "Paper id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /papers/{id}/lock [post]
func (h *PaperHandler) Lock(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok, err := h.papers.Lock(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondTransition(c, claims.SchoolID, c.Param("id"), ok)
}

// AddQuestion godoc
// @Summary Add a question to a paper
// @Tags Papers
// @Accept json
// @Produce json
// @Param id path string true "Paper id"
// @Param payload body service.QuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /papers/{id}/questions [post]
func (h *PaperHandler) AddQuestion(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.papers.AddQuestion(c.Request.Context(), claims.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateQuestion godoc
// @Summary Update a question
// @Tags Papers
// @Accept json
// @Produce json
// @Param questionId path string true "Question id"
// @Param payload body service.QuestionRequest true "Question payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /papers/questions/{questionId} [put]
func (h *PaperHandler) UpdateQuestion(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.papers.UpdateQuestion(c.Request.Context(), claims.SchoolID, c.Param("questionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Tags Papers
// @Produce json
// @Param questionId path string true "Question id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /papers/questions/{questionId} [delete]
func (h *PaperHandler) DeleteQuestion(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.papers.DeleteQuestion(c.Request.Context(), claims.SchoolID, c.Param("questionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *PaperHandler) dispatch(c *gin.Context, events []models.NotificationEvent) {
	if h.notifications != nil {
		h.notifications.Dispatch(c.Request.Context(), events)
	}
}

func (h *PaperHandler) respondTransition(c *gin.Context, schoolID, paperID string, ok bool) {
	paper, err := h.papers.Get(c.Request.Context(), schoolID, paperID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transitionResponse{Transitioned: ok, Paper: paper}, nil)
}
