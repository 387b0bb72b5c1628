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

type mockMarkRepo struct {
	marks         []models.ExamMark
	transitionIDs []string

	upserted       []models.ExamMark
	lastFilter     models.MarkFilter
	lastAction     models.MarkAction
	upsertErr      error
	transitionErr  error
	listErr        error
	transitionCall int
}

func (m *mockMarkRepo) UpsertDraft(_ context.Context, marks []models.ExamMark) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = marks
	return nil
}

func (m *mockMarkRepo) List(_ context.Context, filter models.MarkFilter) ([]models.ExamMark, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.ExamMark
	for _, mark := range m.marks {
		if filter.Status != "" && mark.Status != filter.Status {
			continue
		}
		out = append(out, mark)
	}
	return out, nil
}

func (m *mockMarkRepo) BulkTransition(_ context.Context, filter models.MarkFilter, action models.MarkAction, _ string) ([]string, error) {
	m.transitionCall++
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	m.lastFilter = filter
	m.lastAction = action
	return m.transitionIDs, nil
}

func (m *mockMarkRepo) Progress(_ context.Context, _ models.MarkFilter) (*models.MarkProgress, error) {
	return &models.MarkProgress{Total: len(m.marks)}, nil
}

type mockRosterRepo struct {
	students []models.StudentRow
	subjects []models.SubjectRow
}

func (m *mockRosterRepo) FetchStudents(_ context.Context, _, _, _ string) ([]models.StudentRow, error) {
	return m.students, nil
}

func (m *mockRosterRepo) FetchSubjects(_ context.Context, _, _, _ string) ([]models.SubjectRow, error) {
	return m.subjects, nil
}

type mockTotalsRepo struct {
	totals models.PaperTotals
	err    error
}

func (m *mockTotalsRepo) TotalsByExamClass(_ context.Context, _, _, _ string) (models.PaperTotals, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.totals, nil
}

func draftSaveRequest() SaveDraftMarksRequest {
	return SaveDraftMarksRequest{
		ExamID:    "exam-1",
		ClassID:   "class-1",
		SubjectID: "subject-1",
		Entries: []MarkEntry{
			{StudentID: "student-1", MarksObtained: 72},
			{StudentID: "student-2", IsAbsent: true, MarksObtained: 40},
		},
	}
}

func TestMarkServiceSaveDraftForcesDraftStatus(t *testing.T) {
	repo := &mockMarkRepo{}
	totals := &mockTotalsRepo{totals: models.PaperTotals{"subject-1": 100}}
	svc := NewMarkService(repo, &mockRosterRepo{}, totals, nil, nil, zap.NewNop())

	count, err := svc.SaveDraft(context.Background(), "school-1", "teacher-1", draftSaveRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, repo.upserted, 2)
	for _, mark := range repo.upserted {
		assert.Equal(t, models.MarkStatusDraft, mark.Status)
		assert.Equal(t, "school-1", mark.SchoolID)
	}
	// Absent students carry zero marks regardless of the payload.
	assert.True(t, repo.upserted[1].IsAbsent)
	assert.Zero(t, repo.upserted[1].MarksObtained)
}

func TestMarkServiceSaveDraftRejectsMarksAboveTotal(t *testing.T) {
	totals := &mockTotalsRepo{totals: models.PaperTotals{"subject-1": 50}}
	svc := NewMarkService(&mockMarkRepo{}, &mockRosterRepo{}, totals, nil, nil, zap.NewNop())

	_, err := svc.SaveDraft(context.Background(), "school-1", "teacher-1", draftSaveRequest())
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMarkServiceSaveDraftRequiresPaper(t *testing.T) {
	totals := &mockTotalsRepo{totals: models.PaperTotals{}}
	svc := NewMarkService(&mockMarkRepo{}, &mockRosterRepo{}, totals, nil, nil, zap.NewNop())

	_, err := svc.SaveDraft(context.Background(), "school-1", "teacher-1", draftSaveRequest())
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestMarkServiceSaveDraftRefusesLockedStudents(t *testing.T) {
	repo := &mockMarkRepo{marks: []models.ExamMark{
		{StudentID: "student-1", Status: models.MarkStatusLocked},
	}}
	totals := &mockTotalsRepo{totals: models.PaperTotals{"subject-1": 100}}
	svc := NewMarkService(repo, &mockRosterRepo{}, totals, nil, nil, zap.NewNop())

	_, err := svc.SaveDraft(context.Background(), "school-1", "teacher-1", draftSaveRequest())
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrLocked.Code, appErr.Code)
	assert.Empty(t, repo.upserted)
}

func TestMarkServiceSubmitEmitsEventPerTransitionedRecord(t *testing.T) {
	repo := &mockMarkRepo{transitionIDs: []string{"mark-1", "mark-2"}}
	svc := NewMarkService(repo, &mockRosterRepo{}, &mockTotalsRepo{}, nil, nil, zap.NewNop())

	result, events, err := svc.Submit(context.Background(), "school-1", "teacher-1", BulkTransitionRequest{ExamID: "exam-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Transitioned)
	require.Len(t, events, len(result.IDs))
	for i, event := range events {
		assert.Equal(t, models.NotificationMarksSubmitted, event.Type)
		assert.Equal(t, "exam_mark", event.ReferenceType)
		assert.Equal(t, result.IDs[i], event.ReferenceID)
	}
	assert.Equal(t, models.MarkActionSubmit, repo.lastAction)

	repo.transitionIDs = nil
	result, events, err = svc.Submit(context.Background(), "school-1", "teacher-1", BulkTransitionRequest{ExamID: "exam-1"})
	require.NoError(t, err)
	assert.Zero(t, result.Transitioned)
	assert.Empty(t, events)
}

func TestMarkServiceVerifyPassesFilterThrough(t *testing.T) {
	repo := &mockMarkRepo{transitionIDs: []string{"mark-1"}}
	svc := NewMarkService(repo, &mockRosterRepo{}, &mockTotalsRepo{}, nil, nil, zap.NewNop())

	result, err := svc.Verify(context.Background(), "school-1", "coordinator-1", BulkTransitionRequest{
		ExamID:  "exam-1",
		ClassID: "class-1",
		MarkIDs: []string{"mark-1", "mark-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Transitioned)
	assert.Equal(t, models.MarkActionVerify, repo.lastAction)
	assert.Equal(t, "school-1", repo.lastFilter.SchoolID)
	assert.Equal(t, []string{"mark-1", "mark-9"}, repo.lastFilter.IDs)
}

func TestMarkServiceLockUsesLockAction(t *testing.T) {
	repo := &mockMarkRepo{transitionIDs: []string{"mark-1"}}
	svc := NewMarkService(repo, &mockRosterRepo{}, &mockTotalsRepo{}, nil, nil, zap.NewNop())

	result, err := svc.Lock(context.Background(), "school-1", "admin-1", BulkTransitionRequest{ExamID: "exam-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Transitioned)
	assert.Equal(t, models.MarkActionLock, repo.lastAction)
}
