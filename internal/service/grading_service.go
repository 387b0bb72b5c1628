package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
)

type gradingRuleRepo interface {
	Create(ctx context.Context, rule *models.GradingRule) error
	Update(ctx context.Context, rule *models.GradingRule) error
	Delete(ctx context.Context, schoolID, id string) error
	List(ctx context.Context, schoolID string) ([]models.GradingRule, error)
	FindForScope(ctx context.Context, schoolID, sessionID string) ([]models.GradingRule, error)
}

// GradingRuleRequest carries a grading rule payload.
type GradingRuleRequest struct {
	SessionID     *string  `json:"session_id"`
	MinPercentage float64  `json:"min_percentage" validate:"gte=0,lte=100"`
	MaxPercentage float64  `json:"max_percentage" validate:"gte=0,lte=100"`
	Grade         string   `json:"grade" validate:"required"`
	GPA           *float64 `json:"gpa" validate:"omitempty,gte=0"`
}

// GradingService manages grade scales and resolves percentages to grades.
// Session-scoped rules shadow the school's global rules; if no rule covers a
// percentage the resolver returns nil, never a fabricated grade.
type GradingService struct {
	rules     gradingRuleRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingService constructs GradingService.
func NewGradingService(rules gradingRuleRepo, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{rules: rules, validator: validate, logger: logger}
}

// Create adds a rule after range sanity checks.
func (s *GradingService) Create(ctx context.Context, schoolID string, req GradingRuleRequest) (*models.GradingRule, error) {
	if err := s.validateRule(req); err != nil {
		return nil, err
	}
	rule := &models.GradingRule{
		SchoolID:      schoolID,
		SessionID:     req.SessionID,
		MinPercentage: req.MinPercentage,
		MaxPercentage: req.MaxPercentage,
		Grade:         req.Grade,
		GPA:           req.GPA,
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grading rule")
	}
	return rule, nil
}

// Update rewrites an existing rule.
func (s *GradingService) Update(ctx context.Context, schoolID, id string, req GradingRuleRequest) (*models.GradingRule, error) {
	if err := s.validateRule(req); err != nil {
		return nil, err
	}
	rule := &models.GradingRule{
		ID:            id,
		SchoolID:      schoolID,
		SessionID:     req.SessionID,
		MinPercentage: req.MinPercentage,
		MaxPercentage: req.MaxPercentage,
		Grade:         req.Grade,
		GPA:           req.GPA,
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grading rule")
	}
	return rule, nil
}

// Delete removes a rule.
func (s *GradingService) Delete(ctx context.Context, schoolID, id string) error {
	if err := s.rules.Delete(ctx, schoolID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grading rule")
	}
	return nil
}

// List returns a school's rules.
func (s *GradingService) List(ctx context.Context, schoolID string) ([]models.GradingRule, error) {
	rules, err := s.rules.List(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grading rules")
	}
	return rules, nil
}

// RulesForScope loads the rules the resolver would consult for a session.
// The slice is ordered so that the first covering rule wins: session-scoped
// rules before globals, higher ranges first.
func (s *GradingService) RulesForScope(ctx context.Context, schoolID, sessionID string) ([]models.GradingRule, error) {
	rules, err := s.rules.FindForScope(ctx, schoolID, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading rules")
	}
	return rules, nil
}

// Resolve maps a percentage onto an ordered rule slice. Returns nil when no
// rule covers the value.
func (s *GradingService) Resolve(rules []models.GradingRule, percentage float64) *models.GradingRule {
	for i := range rules {
		if rules[i].Covers(percentage) {
			return &rules[i]
		}
	}
	return nil
}

func (s *GradingService) validateRule(req GradingRuleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading rule payload")
	}
	if req.MinPercentage > req.MaxPercentage {
		return appErrors.Clone(appErrors.ErrValidation, "min_percentage must not exceed max_percentage")
	}
	return nil
}
