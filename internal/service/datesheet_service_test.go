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
	"github.com/schoolsuite/exam-engine-api/pkg/lock"
)

type mockDatesheetRepo struct {
	sheet   *models.ExamDatesheet
	details []models.DatesheetEntryDetail
	entries []models.ExamDatesheetEntry

	replacedDetails map[string][]models.ScheduleConflict
	replacedCount   int
	replaceCalls    int
	replaceErr      error
}

func (m *mockDatesheetRepo) Create(_ context.Context, sheet *models.ExamDatesheet) error {
	sheet.ID = "sheet-1"
	return nil
}

func (m *mockDatesheetRepo) FindByID(_ context.Context, schoolID, id string) (*models.ExamDatesheet, error) {
	if m.sheet == nil || m.sheet.ID != id || m.sheet.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copied := *m.sheet
	return &copied, nil
}

func (m *mockDatesheetRepo) ListByExam(_ context.Context, _, _ string) ([]models.ExamDatesheet, error) {
	if m.sheet == nil {
		return nil, nil
	}
	return []models.ExamDatesheet{*m.sheet}, nil
}

func (m *mockDatesheetRepo) AddEntry(_ context.Context, entry *models.ExamDatesheetEntry) error {
	entry.ID = "entry-new"
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockDatesheetRepo) UpdateEntry(_ context.Context, _ *models.ExamDatesheetEntry) error {
	return nil
}

func (m *mockDatesheetRepo) DeleteEntry(_ context.Context, _, _ string) error {
	return nil
}

func (m *mockDatesheetRepo) ListEntries(_ context.Context, _ string) ([]models.ExamDatesheetEntry, error) {
	return m.entries, nil
}

func (m *mockDatesheetRepo) ListEntryDetails(_ context.Context, _ string) ([]models.DatesheetEntryDetail, error) {
	return m.details, nil
}

func (m *mockDatesheetRepo) ReplaceConflictFlags(_ context.Context, _ string, details map[string][]models.ScheduleConflict, count int) error {
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replacedDetails = details
	m.replacedCount = count
	return nil
}

type mockLockManager struct {
	held     bool
	acquires int
	err      error
}

func (m *mockLockManager) Acquire(_ context.Context, _ string) (*lock.Lease, bool, error) {
	m.acquires++
	if m.err != nil {
		return nil, false, m.err
	}
	if m.held {
		return nil, false, nil
	}
	return nil, true, nil
}

func testSheet() *models.ExamDatesheet {
	return &models.ExamDatesheet{ID: "sheet-1", SchoolID: "school-1", ExamID: "exam-1", Name: "Finals"}
}

func TestDatesheetServiceDetectConflictsRewritesFlags(t *testing.T) {
	repo := &mockDatesheetRepo{
		sheet: testSheet(),
		details: []models.DatesheetEntryDetail{
			entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", ptr("room-1"), nil, nil),
			entry("b", "class-2", nil, "2026-03-02", "10:00", "12:00", ptr("room-1"), nil, nil),
			entry("c", "class-3", nil, "2026-03-02", "10:00", "12:00", ptr("room-2"), nil, nil),
		},
	}
	svc := NewDatesheetService(repo, nil, &mockLockManager{}, nil, nil, zap.NewNop())

	report, err := svc.DetectConflicts(context.Background(), "school-1", "sheet-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.ConflictCount)
	assert.Equal(t, 2, report.ConflictedEntries)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictTypeRoom, report.Conflicts[0].Type)

	assert.Equal(t, 1, repo.replaceCalls)
	assert.Equal(t, 1, repo.replacedCount)
	assert.Len(t, repo.replacedDetails, 2)
	assert.NotContains(t, repo.replacedDetails, "c")
}

func TestDatesheetServiceDetectConflictsCleanRunClearsEverything(t *testing.T) {
	repo := &mockDatesheetRepo{
		sheet: testSheet(),
		details: []models.DatesheetEntryDetail{
			entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", nil, nil, nil),
		},
	}
	svc := NewDatesheetService(repo, nil, &mockLockManager{}, nil, nil, zap.NewNop())

	report, err := svc.DetectConflicts(context.Background(), "school-1", "sheet-1")
	require.NoError(t, err)
	assert.Zero(t, report.ConflictCount)
	// The full-replace pass still runs so stale flags get cleared.
	assert.Equal(t, 1, repo.replaceCalls)
	assert.Zero(t, repo.replacedCount)
	assert.Empty(t, repo.replacedDetails)
}

func TestDatesheetServiceDetectConflictsRefusedWhileLocked(t *testing.T) {
	repo := &mockDatesheetRepo{sheet: testSheet()}
	locks := &mockLockManager{held: true}
	svc := NewDatesheetService(repo, nil, locks, nil, nil, zap.NewNop())

	_, err := svc.DetectConflicts(context.Background(), "school-1", "sheet-1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrLockUnavailable.Code, appErr.Code)
	assert.Zero(t, repo.replaceCalls)
}

func TestDatesheetServiceAddEntryValidatesWindow(t *testing.T) {
	repo := &mockDatesheetRepo{sheet: testSheet()}
	svc := NewDatesheetService(repo, nil, &mockLockManager{}, nil, nil, zap.NewNop())

	req := DatesheetEntryRequest{
		ClassID:   "class-1",
		SubjectID: "subject-1",
		ExamDate:  "2026-03-02",
		StartTime: "11:00",
		EndTime:   "09:00",
	}
	_, err := svc.AddEntry(context.Background(), "school-1", "sheet-1", req)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	req.EndTime = "13:00"
	created, err := svc.AddEntry(context.Background(), "school-1", "sheet-1", req)
	require.NoError(t, err)
	assert.Equal(t, "entry-new", created.ID)
	assert.False(t, created.HasConflict)
}

func TestDatesheetServiceUnknownSheetIsNotFound(t *testing.T) {
	svc := NewDatesheetService(&mockDatesheetRepo{}, nil, &mockLockManager{}, nil, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "school-1", "missing")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
