package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/exam-engine-api/internal/service"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
	"github.com/schoolsuite/exam-engine-api/pkg/response"
)

// DatesheetHandler exposes datesheet scheduling and conflict detection.
type DatesheetHandler struct {
	sheets *service.DatesheetService
}

// NewDatesheetHandler constructs handler.
func NewDatesheetHandler(sheets *service.DatesheetService) *DatesheetHandler {
	return &DatesheetHandler{sheets: sheets}
}

// Create godoc
// @Summary Create a datesheet
// @Tags Datesheets
// @Accept json
// @Produce json
// @Param payload body service.CreateDatesheetRequest true "Datesheet payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /datesheets [post]
func (h *DatesheetHandler) Create(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateDatesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.sheets.Create(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sheet)
}

// Get godoc
// @Summary Get a datesheet
// @Tags Datesheets
// @Produce json
// @Param id path string true "Datesheet id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /datesheets/{id} [get]
func (h *DatesheetHandler) Get(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sheet, err := h.sheets.Get(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// ListByExam godoc
// @Summary List an exam's datesheets
// @Tags Datesheets
// @Produce json
// @Param examId query string true "Exam id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /datesheets [get]
func (h *DatesheetHandler) ListByExam(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sheets, err := h.sheets.ListByExam(c.Request.Context(), claims.SchoolID, c.Query("examId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, nil)
}

// Entries godoc
// @Summary List a datesheet's entries with conflict flags
// @Tags Datesheets
// @Produce json
// @Param id path string true "Datesheet id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /datesheets/{id}/entries [get]
func (h *DatesheetHandler) Entries(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.sheets.Entries(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// AddEntry godoc
// @Summary Schedule a sitting
// @Tags Datesheets
// @Accept json
// @Produce json
// @Param id path string true "Datesheet id"
// @Param payload body service.DatesheetEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /datesheets/{id}/entries [post]
func (h *DatesheetHandler) AddEntry(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.DatesheetEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.sheets.AddEntry(c.Request.Context(), claims.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry godoc
// @Summary Reschedule a sitting
// @Tags Datesheets
// @Accept json
// @Produce json
// @Param id path string true "Datesheet id"
// @Param entryId path string true "Entry id"
// @Param payload body service.DatesheetEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /datesheets/{id}/entries/{entryId} [put]
func (h *DatesheetHandler) UpdateEntry(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.DatesheetEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.sheets.UpdateEntry(c.Request.Context(), claims.SchoolID, c.Param("id"), c.Param("entryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Remove a sitting
// @Tags Datesheets
// @Produce json
// @Param id path string true "Datesheet id"
// @Param entryId path string true "Entry id"
// @Success 204
// @Security BearerAuth
// @Router /datesheets/{id}/entries/{entryId} [delete]
func (h *DatesheetHandler) DeleteEntry(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.sheets.DeleteEntry(c.Request.Context(), claims.SchoolID, c.Param("id"), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DetectConflicts godoc
// @Summary Run conflict detection over a datesheet
// @Tags Datesheets
// @Produce json
// @Param id path string true "Datesheet id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /datesheets/{id}/detect-conflicts [post]
func (h *DatesheetHandler) DetectConflicts(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.sheets.DetectConflicts(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
