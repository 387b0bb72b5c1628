package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/exam-engine-api/internal/service"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
	"github.com/schoolsuite/exam-engine-api/pkg/response"
)

// GradingHandler exposes grading scale management.
type GradingHandler struct {
	grading *service.GradingService
}

// NewGradingHandler constructs handler.
func NewGradingHandler(grading *service.GradingService) *GradingHandler {
	return &GradingHandler{grading: grading}
}

// Create godoc
// @Summary Create a grading rule
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body service.GradingRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /grading-rules [post]
func (h *GradingHandler) Create(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.GradingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.grading.Create(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Update a grading rule
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Rule id"
// @Param payload body service.GradingRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grading-rules/{id} [put]
func (h *GradingHandler) Update(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.GradingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.grading.Update(c.Request.Context(), claims.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete a grading rule
// @Tags Grading
// @Produce json
// @Param id path string true "Rule id"
// @Success 204
// @Security BearerAuth
// @Router /grading-rules/{id} [delete]
func (h *GradingHandler) Delete(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.grading.Delete(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Resolve godoc
// @Summary Resolve a percentage to a grade
// @Tags Grading
// @Produce json
// @Param percentage query number true "Percentage to resolve"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grading-rules/resolve [get]
func (h *GradingHandler) Resolve(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	percentage, err := strconv.ParseFloat(c.Query("percentage"), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "percentage must be a number"))
		return
	}
	rules, err := h.grading.RulesForScope(c.Request.Context(), claims.SchoolID, claims.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	rule := h.grading.Resolve(rules, percentage)
	if rule == nil {
		response.JSON(c, http.StatusOK, gin.H{"percentage": percentage, "grade": nil}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"percentage": percentage, "grade": rule.Grade, "gpa": rule.GPA}, nil)
}

// List godoc
// @Summary List grading rules
// @Tags Grading
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grading-rules [get]
func (h *GradingHandler) List(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rules, err := h.grading.List(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}
