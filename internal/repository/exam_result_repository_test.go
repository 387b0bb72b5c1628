package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

func TestExamResultRepositoryUpsertBatchSingleTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamResultRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_results")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_results")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	results := []models.ExamResult{
		{SchoolID: "school-1", ExamID: "exam-1", ClassID: "class-1", StudentID: "student-1", Percentage: 77.5, Status: models.ResultStatusComputed},
		{SchoolID: "school-1", ExamID: "exam-1", ClassID: "class-1", StudentID: "student-2", Percentage: 64.0, Status: models.ResultStatusComputed},
	}
	require.NoError(t, repo.UpsertBatch(context.Background(), results))
	require.NotEmpty(t, results[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultRepositoryUpsertBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamResultRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_results")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.UpsertBatch(context.Background(), []models.ExamResult{
		{SchoolID: "school-1", ExamID: "exam-1", StudentID: "student-1"},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultRepositoryUpdateRanksSequential(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamResultRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_results SET rank_in_class")).
		WithArgs(1, sqlmock.AnyArg(), "result-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_results SET rank_in_class")).
		WithArgs(2, sqlmock.AnyArg(), "result-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateRanks(context.Background(), []string{"result-1", "result-2"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultRepositoryPublishReturnsCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamResultRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE exam_results SET status")).
		WithArgs(models.ResultStatusPublished, sqlmock.AnyArg(), "school-1", "exam-1", models.ResultStatusComputed).
		WillReturnResult(sqlmock.NewResult(0, 12))

	count, err := repo.Publish(context.Background(), "school-1", "exam-1")
	require.NoError(t, err)
	require.Equal(t, 12, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
