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

type mockPaperRepo struct {
	papers    map[string]*models.ExamPaper
	questions map[string]*models.ExamQuestion
	total     float64

	createErr   error
	workflowErr error
	updated     *models.ExamPaper
}

func (m *mockPaperRepo) Create(_ context.Context, paper *models.ExamPaper) error {
	if m.createErr != nil {
		return m.createErr
	}
	paper.ID = "paper-1"
	return nil
}

func (m *mockPaperRepo) FindByID(_ context.Context, schoolID, id string) (*models.ExamPaper, error) {
	paper, ok := m.papers[id]
	if !ok || paper.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copied := *paper
	return &copied, nil
}

func (m *mockPaperRepo) List(_ context.Context, _ models.PaperFilter) ([]models.ExamPaper, error) {
	var out []models.ExamPaper
	for _, p := range m.papers {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPaperRepo) UpdateWorkflow(_ context.Context, paper *models.ExamPaper) error {
	if m.workflowErr != nil {
		return m.workflowErr
	}
	copied := *paper
	m.updated = &copied
	m.papers[paper.ID] = &copied
	return nil
}

func (m *mockPaperRepo) FindQuestion(_ context.Context, id string) (*models.ExamQuestion, error) {
	question, ok := m.questions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *question
	return &copied, nil
}

func (m *mockPaperRepo) AddQuestion(_ context.Context, question *models.ExamQuestion) (float64, error) {
	question.ID = "question-new"
	return m.total, nil
}

func (m *mockPaperRepo) UpdateQuestion(_ context.Context, _ *models.ExamQuestion) (float64, error) {
	return m.total, nil
}

func (m *mockPaperRepo) DeleteQuestion(_ context.Context, _, _ string) (float64, error) {
	return m.total, nil
}

func draftPaper(status models.PaperStatus) *models.ExamPaper {
	return &models.ExamPaper{
		ID:           "paper-1",
		SchoolID:     "school-1",
		ExamID:       "exam-1",
		ClassID:      "class-1",
		SubjectID:    "subject-1",
		Status:       status,
		PaperVersion: 1,
		CreatedBy:    "teacher-1",
	}
}

func TestPaperServiceSubmitFromDraft(t *testing.T) {
	repo := &mockPaperRepo{papers: map[string]*models.ExamPaper{"paper-1": draftPaper(models.PaperStatusDraft)}}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	ok, events, err := svc.SubmitForReview(context.Background(), "school-1", "paper-1", "teacher-1")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationPaperSubmitted, events[0].Type)
	assert.Equal(t, models.PaperStatusSubmitted, repo.updated.Status)
	assert.Equal(t, 1, repo.updated.PaperVersion)
}

func TestPaperServiceResubmitBumpsVersion(t *testing.T) {
	paper := draftPaper(models.PaperStatusRejected)
	comment := "fix section B"
	paper.ReviewComment = &comment
	repo := &mockPaperRepo{papers: map[string]*models.ExamPaper{"paper-1": paper}}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	ok, _, err := svc.SubmitForReview(context.Background(), "school-1", "paper-1", "teacher-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, repo.updated.PaperVersion)
	assert.Nil(t, repo.updated.ReviewComment)
}

func TestPaperServiceSubmitWrongStateIsNoOp(t *testing.T) {
	repo := &mockPaperRepo{papers: map[string]*models.ExamPaper{"paper-1": draftPaper(models.PaperStatusApproved)}}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	ok, events, err := svc.SubmitForReview(context.Background(), "school-1", "paper-1", "teacher-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, events)
	assert.Nil(t, repo.updated)
}

func TestPaperServiceApproveRecordsReviewer(t *testing.T) {
	repo := &mockPaperRepo{papers: map[string]*models.ExamPaper{"paper-1": draftPaper(models.PaperStatusSubmitted)}}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	ok, events, err := svc.Approve(context.Background(), "school-1", "paper-1", "coordinator-1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationPaperApproved, events[0].Type)
	require.NotNil(t, events[0].RecipientID)
	assert.Equal(t, "teacher-1", *events[0].RecipientID)
	require.NotNil(t, repo.updated.ReviewedBy)
	assert.Equal(t, "coordinator-1", *repo.updated.ReviewedBy)
	assert.NotNil(t, repo.updated.ReviewedAt)
}

func TestPaperServiceRejectRequiresComment(t *testing.T) {
	repo := &mockPaperRepo{papers: map[string]*models.ExamPaper{"paper-1": draftPaper(models.PaperStatusSubmitted)}}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	_, _, err := svc.Reject(context.Background(), "school-1", "paper-1", "coordinator-1", nil)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	comment := "answer key missing"
	ok, events, err := svc.Reject(context.Background(), "school-1", "paper-1", "coordinator-1", &comment)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.NotificationPaperRejected, events[0].Type)
	assert.Equal(t, models.PaperStatusRejected, repo.updated.Status)
}

func TestPaperServiceLockOnlyFromApproved(t *testing.T) {
	repo := &mockPaperRepo{papers: map[string]*models.ExamPaper{"paper-1": draftPaper(models.PaperStatusApproved)}}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	ok, err := svc.Lock(context.Background(), "school-1", "paper-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.PaperStatusLocked, repo.updated.Status)

	// A second lock attempt finds the paper already locked.
	ok, err = svc.Lock(context.Background(), "school-1", "paper-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPaperServiceQuestionMutationRequiresEditableState(t *testing.T) {
	repo := &mockPaperRepo{
		papers:    map[string]*models.ExamPaper{"paper-1": draftPaper(models.PaperStatusSubmitted)},
		questions: map[string]*models.ExamQuestion{"question-1": {ID: "question-1", PaperID: "paper-1"}},
	}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	req := QuestionRequest{SectionName: "A", Type: "MCQ", QuestionText: "2+2?", Marks: 1}
	_, err := svc.AddQuestion(context.Background(), "school-1", "paper-1", req)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotEditable.Code, appErr.Code)

	_, err = svc.UpdateQuestion(context.Background(), "school-1", "question-1", req)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotEditable.Code, appErr.Code)

	_, err = svc.DeleteQuestion(context.Background(), "school-1", "question-1")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotEditable.Code, appErr.Code)
}

func TestPaperServiceAddQuestionReturnsRecomputedTotal(t *testing.T) {
	repo := &mockPaperRepo{
		papers: map[string]*models.ExamPaper{"paper-1": draftPaper(models.PaperStatusDraft)},
		total:  42.5,
	}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	result, err := svc.AddQuestion(context.Background(), "school-1", "paper-1", QuestionRequest{
		SectionName: "A", Type: "SHORT", QuestionText: "Define osmosis.", Marks: 2.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 42.5, result.TotalMarks)
	assert.Equal(t, "question-new", result.Question.ID)
}

func TestPaperServiceGetScopedBySchool(t *testing.T) {
	repo := &mockPaperRepo{papers: map[string]*models.ExamPaper{"paper-1": draftPaper(models.PaperStatusDraft)}}
	svc := NewPaperService(repo, nil, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "other-school", "paper-1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
