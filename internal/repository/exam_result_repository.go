package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// ExamResultRepository persists computed results. Rows are keyed uniquely by
// (exam, student) and overwritten on recomputation.
type ExamResultRepository struct {
	db *sqlx.DB
}

// NewExamResultRepository creates a new result repository.
func NewExamResultRepository(db *sqlx.DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

const resultColumns = `id, school_id, exam_id, class_id, student_id, total_obtained, total_marks, percentage,
        grade, gpa, rank_in_class, snapshot, status, computed_at, created_at, updated_at`

// UpsertBatch writes a generation pass's results in one transaction, all or
// nothing. Recomputation overwrites the existing row for each (exam, student)
// key; ranks reset until the ranking pass runs.
func (r *ExamResultRepository) UpsertBatch(ctx context.Context, results []models.ExamResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result upsert: %w", err)
	}
	const query = `INSERT INTO exam_results (id, school_id, exam_id, class_id, student_id, total_obtained, total_marks,
                percentage, grade, gpa, snapshot, status, computed_at, created_at, updated_at)
        VALUES (:id, :school_id, :exam_id, :class_id, :student_id, :total_obtained, :total_marks,
                :percentage, :grade, :gpa, :snapshot, :status, :computed_at, :created_at, :updated_at)
        ON CONFLICT (exam_id, student_id)
        DO UPDATE SET class_id = EXCLUDED.class_id, total_obtained = EXCLUDED.total_obtained,
                total_marks = EXCLUDED.total_marks, percentage = EXCLUDED.percentage, grade = EXCLUDED.grade,
                gpa = EXCLUDED.gpa, snapshot = EXCLUDED.snapshot, status = EXCLUDED.status,
                rank_in_class = NULL, computed_at = EXCLUDED.computed_at, updated_at = EXCLUDED.updated_at`
	for i := range results {
		if results[i].ID == "" {
			results[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if results[i].CreatedAt.IsZero() {
			results[i].CreatedAt = now
		}
		results[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, results[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// ListClassOrdered returns a class's results in ranking order: percentage
// descending, then total obtained descending.
func (r *ExamResultRepository) ListClassOrdered(ctx context.Context, schoolID, examID, classID string) ([]models.ExamResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_results WHERE school_id = $1 AND exam_id = $2 AND class_id = $3
        ORDER BY percentage DESC, total_obtained DESC`, resultColumns)
	var results []models.ExamResult
	if err := r.db.SelectContext(ctx, &results, query, schoolID, examID, classID); err != nil {
		return nil, fmt.Errorf("list class results: %w", err)
	}
	return results, nil
}

// UpdateRanks writes rank 1..N for the given result ids, in order, inside one
// transaction.
func (r *ExamResultRepository) UpdateRanks(ctx context.Context, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rank update: %w", err)
	}
	now := time.Now().UTC()
	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx,
			"UPDATE exam_results SET rank_in_class = $1, updated_at = $2 WHERE id = $3", i+1, now, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("update rank: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ranks: %w", err)
	}
	return nil
}

// FindByExamStudent loads one student's result.
func (r *ExamResultRepository) FindByExamStudent(ctx context.Context, schoolID, examID, studentID string) (*models.ExamResult, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_results WHERE school_id = $1 AND exam_id = $2 AND student_id = $3", resultColumns)
	var result models.ExamResult
	if err := r.db.GetContext(ctx, &result, query, schoolID, examID, studentID); err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns results matching the filter.
func (r *ExamResultRepository) List(ctx context.Context, filter models.ResultFilter) ([]models.ExamResult, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{filter.SchoolID}
	if filter.ExamID != "" {
		conditions = append(conditions, fmt.Sprintf("exam_id = $%d", len(args)+1))
		args = append(args, filter.ExamID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	query := fmt.Sprintf("SELECT %s FROM exam_results WHERE %s ORDER BY class_id, rank_in_class NULLS LAST",
		resultColumns, strings.Join(conditions, " AND "))
	var results []models.ExamResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// Publish flips every computed result of the exam to PUBLISHED.
func (r *ExamResultRepository) Publish(ctx context.Context, schoolID, examID string) (int, error) {
	const query = `UPDATE exam_results SET status = $1, updated_at = $2
        WHERE school_id = $3 AND exam_id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, models.ResultStatusPublished, time.Now().UTC(), schoolID, examID, models.ResultStatusComputed)
	if err != nil {
		return 0, fmt.Errorf("publish results: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish results rows: %w", err)
	}
	return int(affected), nil
}
