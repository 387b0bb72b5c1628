package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
)

type mockGradingRuleRepo struct {
	rules   []models.GradingRule
	created *models.GradingRule
	deleted string
}

func (m *mockGradingRuleRepo) Create(_ context.Context, rule *models.GradingRule) error {
	rule.ID = "rule-new"
	m.created = rule
	return nil
}

func (m *mockGradingRuleRepo) Update(_ context.Context, _ *models.GradingRule) error {
	return nil
}

func (m *mockGradingRuleRepo) Delete(_ context.Context, _, id string) error {
	m.deleted = id
	return nil
}

func (m *mockGradingRuleRepo) List(_ context.Context, _ string) ([]models.GradingRule, error) {
	return m.rules, nil
}

func (m *mockGradingRuleRepo) FindForScope(_ context.Context, _, _ string) ([]models.GradingRule, error) {
	return m.rules, nil
}

func TestGradingServiceCreateValidatesRange(t *testing.T) {
	svc := NewGradingService(&mockGradingRuleRepo{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", GradingRuleRequest{
		MinPercentage: 80, MaxPercentage: 60, Grade: "A",
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	rule, err := svc.Create(context.Background(), "school-1", GradingRuleRequest{
		MinPercentage: 80, MaxPercentage: 100, Grade: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "rule-new", rule.ID)
	assert.Equal(t, "school-1", rule.SchoolID)
}

func TestGradingServiceResolveFirstCoveringRuleWins(t *testing.T) {
	svc := NewGradingService(&mockGradingRuleRepo{}, nil, zap.NewNop())
	sessionID := "session-1"

	// Session rules sort before globals; the resolver takes the first hit.
	rules := []models.GradingRule{
		{SessionID: &sessionID, MinPercentage: 80, MaxPercentage: 100, Grade: "A+"},
		{MinPercentage: 80, MaxPercentage: 100, Grade: "A"},
		{MinPercentage: 0, MaxPercentage: 79.99, Grade: "B"},
	}

	hit := svc.Resolve(rules, 85)
	require.NotNil(t, hit)
	assert.Equal(t, "A+", hit.Grade)

	hit = svc.Resolve(rules, 50)
	require.NotNil(t, hit)
	assert.Equal(t, "B", hit.Grade)
}

func TestGradingServiceResolveBoundsAreInclusive(t *testing.T) {
	svc := NewGradingService(&mockGradingRuleRepo{}, nil, zap.NewNop())
	rules := []models.GradingRule{{MinPercentage: 33, MaxPercentage: 59.99, Grade: "C"}}

	require.NotNil(t, svc.Resolve(rules, 33))
	require.NotNil(t, svc.Resolve(rules, 59.99))
	assert.Nil(t, svc.Resolve(rules, 32.99))
	assert.Nil(t, svc.Resolve(rules, 60))
}

func TestGradingServiceResolveNilWhenUncovered(t *testing.T) {
	svc := NewGradingService(&mockGradingRuleRepo{}, nil, zap.NewNop())
	assert.Nil(t, svc.Resolve(nil, 50))
}
