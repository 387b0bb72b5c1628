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

// ExamMarkRepository persists per-student mark records. Bulk transitions are
// single UPDATE statements filtered on the source state, so the selection
// filter and the state change are one atomic operation and the returned count
// is exactly the number of rows that moved.
type ExamMarkRepository struct {
	db *sqlx.DB
}

// NewExamMarkRepository creates a new mark repository.
func NewExamMarkRepository(db *sqlx.DB) *ExamMarkRepository {
	return &ExamMarkRepository{db: db}
}

const markColumns = `id, school_id, exam_id, class_id, section_id, subject_id, student_id, marks_obtained, is_absent,
        status, entered_by, submitted_by, submitted_at, verified_by, verified_at, created_at, updated_at`

// UpsertDraft writes mark rows keyed by (exam, class, subject, student).
// Every write forces the status back to DRAFT and stamps the acting teacher,
// even when the row was already submitted or verified: saving drafts is an
// intentional re-open of previously submitted marks. Runs in one transaction.
func (r *ExamMarkRepository) UpsertDraft(ctx context.Context, marks []models.ExamMark) error {
	if len(marks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin draft upsert: %w", err)
	}
	const query = `INSERT INTO exam_marks (id, school_id, exam_id, class_id, section_id, subject_id, student_id,
                marks_obtained, is_absent, status, entered_by, created_at, updated_at)
        VALUES (:id, :school_id, :exam_id, :class_id, :section_id, :subject_id, :student_id,
                :marks_obtained, :is_absent, :status, :entered_by, :created_at, :updated_at)
        ON CONFLICT (exam_id, class_id, subject_id, student_id)
        DO UPDATE SET marks_obtained = EXCLUDED.marks_obtained, is_absent = EXCLUDED.is_absent,
                status = EXCLUDED.status, entered_by = EXCLUDED.entered_by, section_id = EXCLUDED.section_id,
                submitted_by = NULL, submitted_at = NULL, verified_by = NULL, verified_at = NULL,
                updated_at = EXCLUDED.updated_at`
	for i := range marks {
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if marks[i].CreatedAt.IsZero() {
			marks[i].CreatedAt = now
		}
		marks[i].UpdatedAt = now
		marks[i].Status = models.MarkStatusDraft
		if _, err := tx.NamedExecContext(ctx, query, marks[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert draft mark: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit draft marks: %w", err)
	}
	return nil
}

// List returns marks matching the filter.
func (r *ExamMarkRepository) List(ctx context.Context, filter models.MarkFilter) ([]models.ExamMark, error) {
	query, args := buildMarkQuery(fmt.Sprintf("SELECT %s FROM exam_marks", markColumns), filter)
	query += " ORDER BY class_id, subject_id, student_id"
	var marks []models.ExamMark
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// BulkTransition moves every matching record currently in the source state to
// the target state, stamping the audit fields for the action. Records in any
// other state are left untouched. Returns the ids of the rows that changed,
// so callers can report an exact count and notify per record.
func (r *ExamMarkRepository) BulkTransition(ctx context.Context, filter models.MarkFilter, action models.MarkAction, actorID string) ([]string, error) {
	source, ok := models.MarkActionSource(action)
	if !ok {
		return nil, fmt.Errorf("bulk transition: unknown action %s", action)
	}
	target, _ := models.MarkTransition(source, action)

	var set string
	now := time.Now().UTC()
	args := []interface{}{target, now}
	switch action {
	case models.MarkActionSubmit:
		set = "status = $1, updated_at = $2, submitted_by = $3, submitted_at = $2"
		args = append(args, actorID)
	case models.MarkActionVerify:
		set = "status = $1, updated_at = $2, verified_by = $3, verified_at = $2"
		args = append(args, actorID)
	default:
		set = "status = $1, updated_at = $2"
	}

	where := []string{fmt.Sprintf("status = $%d", len(args)+1)}
	args = append(args, source)
	if filter.SchoolID != "" {
		where = append(where, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if len(filter.IDs) > 0 {
		placeholders := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		where = append(where, fmt.Sprintf("id IN (%s)", strings.Join(placeholders, ",")))
	} else {
		if filter.ExamID != "" {
			where = append(where, fmt.Sprintf("exam_id = $%d", len(args)+1))
			args = append(args, filter.ExamID)
		}
		if filter.ClassID != "" {
			where = append(where, fmt.Sprintf("class_id = $%d", len(args)+1))
			args = append(args, filter.ClassID)
		}
		if filter.SectionID != "" {
			where = append(where, fmt.Sprintf("section_id = $%d", len(args)+1))
			args = append(args, filter.SectionID)
		}
		if filter.SubjectID != "" {
			where = append(where, fmt.Sprintf("subject_id = $%d", len(args)+1))
			args = append(args, filter.SubjectID)
		}
	}

	query := fmt.Sprintf("UPDATE exam_marks SET %s WHERE %s RETURNING id", set, strings.Join(where, " AND "))
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("bulk transition marks: %w", err)
	}
	return ids, nil
}

// CountDraft counts marks still in DRAFT for an exam. The results engine uses
// this as its readiness predicate.
func (r *ExamMarkRepository) CountDraft(ctx context.Context, schoolID, examID string) (int, error) {
	const query = `SELECT COUNT(*) FROM exam_marks WHERE school_id = $1 AND exam_id = $2 AND status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, schoolID, examID, models.MarkStatusDraft); err != nil {
		return 0, fmt.Errorf("count draft marks: %w", err)
	}
	return count, nil
}

// ListNonDraftByExam returns every mark for the exam that has left DRAFT,
// the input set for result computation.
func (r *ExamMarkRepository) ListNonDraftByExam(ctx context.Context, schoolID, examID string) ([]models.ExamMark, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_marks WHERE school_id = $1 AND exam_id = $2 AND status <> $3
        ORDER BY class_id, student_id, subject_id`, markColumns)
	var marks []models.ExamMark
	if err := r.db.SelectContext(ctx, &marks, query, schoolID, examID, models.MarkStatusDraft); err != nil {
		return nil, fmt.Errorf("list non-draft marks: %w", err)
	}
	return marks, nil
}

// Progress returns status counts for progress reporting.
func (r *ExamMarkRepository) Progress(ctx context.Context, filter models.MarkFilter) (*models.MarkProgress, error) {
	base := `SELECT
        COUNT(*) FILTER (WHERE status = 'DRAFT') AS draft,
        COUNT(*) FILTER (WHERE status = 'SUBMITTED') AS submitted,
        COUNT(*) FILTER (WHERE status = 'VERIFIED') AS verified,
        COUNT(*) FILTER (WHERE status = 'LOCKED') AS locked,
        COUNT(*) AS total
        FROM exam_marks`
	query, args := buildMarkQuery(base, filter)
	var progress models.MarkProgress
	if err := r.db.GetContext(ctx, &progress, query, args...); err != nil {
		return nil, fmt.Errorf("mark progress: %w", err)
	}
	return &progress, nil
}

// buildMarkQuery appends the filter's WHERE clause to a base query.
func buildMarkQuery(base string, filter models.MarkFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	var args []interface{}
	add := func(column string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	if filter.SchoolID != "" {
		add("school_id", filter.SchoolID)
	}
	if filter.ExamID != "" {
		add("exam_id", filter.ExamID)
	}
	if filter.ClassID != "" {
		add("class_id", filter.ClassID)
	}
	if filter.SectionID != "" {
		add("section_id", filter.SectionID)
	}
	if filter.SubjectID != "" {
		add("subject_id", filter.SubjectID)
	}
	if filter.StudentID != "" {
		add("student_id", filter.StudentID)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}
	if len(filter.IDs) > 0 {
		placeholders := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		conditions = append(conditions, fmt.Sprintf("id IN (%s)", strings.Join(placeholders, ",")))
	}
	return base + " WHERE " + strings.Join(conditions, " AND "), args
}
