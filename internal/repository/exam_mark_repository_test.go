package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamMarkRepositoryUpsertDraftForcesDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamMarkRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_marks")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	marks := []models.ExamMark{{
		SchoolID:  "school-1",
		ExamID:    "exam-1",
		ClassID:   "class-1",
		SubjectID: "subject-1",
		StudentID: "student-1",
		Status:    models.MarkStatusSubmitted,
	}}
	require.NoError(t, repo.UpsertDraft(context.Background(), marks))
	// The repository resets the status regardless of the input.
	require.Equal(t, models.MarkStatusDraft, marks[0].Status)
	require.NotEmpty(t, marks[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamMarkRepositoryBulkTransitionFiltersOnSourceState(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamMarkRepository(db)
	rows := sqlmock.NewRows([]string{"id"}).AddRow("mark-1").AddRow("mark-2")
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE exam_marks SET")).
		WithArgs(
			models.MarkStatusSubmitted, sqlmock.AnyArg(), "teacher-1",
			models.MarkStatusDraft, "school-1", "exam-1", "class-1", "subject-1",
		).
		WillReturnRows(rows)

	ids, err := repo.BulkTransition(context.Background(), models.MarkFilter{
		SchoolID:  "school-1",
		ExamID:    "exam-1",
		ClassID:   "class-1",
		SubjectID: "subject-1",
	}, models.MarkActionSubmit, "teacher-1")
	require.NoError(t, err)
	require.Equal(t, []string{"mark-1", "mark-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamMarkRepositoryBulkTransitionByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamMarkRepository(db)
	// Only one of the two requested rows is in the source state.
	rows := sqlmock.NewRows([]string{"id"}).AddRow("mark-1")
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE exam_marks SET")).
		WithArgs(
			models.MarkStatusVerified, sqlmock.AnyArg(), "coordinator-1",
			models.MarkStatusSubmitted, "school-1", "mark-1", "mark-9",
		).
		WillReturnRows(rows)

	ids, err := repo.BulkTransition(context.Background(), models.MarkFilter{
		SchoolID: "school-1",
		IDs:      []string{"mark-1", "mark-9"},
	}, models.MarkActionVerify, "coordinator-1")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamMarkRepositoryBulkTransitionRejectsUnknownAction(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamMarkRepository(db)
	_, err := repo.BulkTransition(context.Background(), models.MarkFilter{}, models.MarkAction("BOGUS"), "actor")
	require.Error(t, err)
}

func TestExamMarkRepositoryCountDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamMarkRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM exam_marks")).
		WithArgs("school-1", "exam-1", models.MarkStatusDraft).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountDraft(context.Background(), "school-1", "exam-1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
