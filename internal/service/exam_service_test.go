package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
)

type mockExamRepo struct {
	exams map[string]*models.Exam
	total int

	updatedStatus models.ExamStatus
}

func (m *mockExamRepo) Create(_ context.Context, exam *models.Exam) error {
	exam.ID = "exam-new"
	return nil
}

func (m *mockExamRepo) FindByID(_ context.Context, schoolID, id string) (*models.Exam, error) {
	exam, ok := m.exams[id]
	if !ok || exam.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copied := *exam
	return &copied, nil
}

func (m *mockExamRepo) List(_ context.Context, _ models.ExamFilter) ([]models.Exam, int, error) {
	var out []models.Exam
	for _, e := range m.exams {
		out = append(out, *e)
	}
	return out, m.total, nil
}

func (m *mockExamRepo) UpdateStatus(_ context.Context, _, id string, status models.ExamStatus) error {
	m.updatedStatus = status
	if exam, ok := m.exams[id]; ok {
		exam.Status = status
	}
	return nil
}

func TestExamServiceCreateValidatesDates(t *testing.T) {
	svc := NewExamService(&mockExamRepo{}, nil, zap.NewNop())
	start, end := "2026-03-10", "2026-03-01"

	_, err := svc.Create(context.Background(), "school-1", "session-1", CreateExamRequest{
		Name: "Finals", Term: "TERM2", StartDate: &start, EndDate: &end,
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	end = "2026-03-20"
	exam, err := svc.Create(context.Background(), "school-1", "session-1", CreateExamRequest{
		Name: "Finals", Term: "TERM2", StartDate: &start, EndDate: &end,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusDraft, exam.Status)
	assert.Equal(t, "session-1", exam.SessionID)
}

func TestExamServiceUpdateStatusRejectsUnknown(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]*models.Exam{
		"exam-1": {ID: "exam-1", SchoolID: "school-1", Status: models.ExamStatusDraft},
	}}
	svc := NewExamService(repo, nil, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "school-1", "exam-1", "BOGUS")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	exam, err := svc.UpdateStatus(context.Background(), "school-1", "exam-1", models.ExamStatusRunning)
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusRunning, exam.Status)
}

func TestExamServiceListPagination(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]*models.Exam{}, total: 45}
	svc := NewExamService(repo, nil, zap.NewNop())

	_, pagination, err := svc.List(context.Background(), models.ExamFilter{SchoolID: "school-1", Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 45, pagination.TotalItems)
	assert.Equal(t, 3, pagination.TotalPages)
}
