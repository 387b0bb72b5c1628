package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// ExamPaperRepository persists papers and their question sets. Question
// mutations recompute the paper's derived total inside the same transaction
// so total_marks never drifts from the sum of question marks.
type ExamPaperRepository struct {
	db *sqlx.DB
}

// NewExamPaperRepository creates a new paper repository.
func NewExamPaperRepository(db *sqlx.DB) *ExamPaperRepository {
	return &ExamPaperRepository{db: db}
}

const paperColumns = `id, school_id, exam_id, class_id, subject_id, status, paper_version, total_marks, passing_marks,
        created_by, reviewed_by, reviewed_at, review_comment, created_at, updated_at`

const questionColumns = "id, paper_id, section_name, type, question_text, marks, order_index, created_at, updated_at"

// Create inserts a paper. The (exam, class, subject) key is unique; a second
// paper for the same scope fails with a constraint violation.
func (r *ExamPaperRepository) Create(ctx context.Context, paper *models.ExamPaper) error {
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	paper.CreatedAt = now
	paper.UpdatedAt = now
	if paper.Status == "" {
		paper.Status = models.PaperStatusDraft
	}
	if paper.PaperVersion == 0 {
		paper.PaperVersion = 1
	}
	const query = `INSERT INTO exam_papers (id, school_id, exam_id, class_id, subject_id, status, paper_version, total_marks,
                passing_marks, created_by, created_at, updated_at)
        VALUES (:id, :school_id, :exam_id, :class_id, :subject_id, :status, :paper_version, :total_marks,
                :passing_marks, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, paper); err != nil {
		return fmt.Errorf("create paper: %w", err)
	}
	return nil
}

// FindByID loads a paper with its questions ordered by order_index.
func (r *ExamPaperRepository) FindByID(ctx context.Context, schoolID, id string) (*models.ExamPaper, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_papers WHERE school_id = $1 AND id = $2", paperColumns)
	var paper models.ExamPaper
	if err := r.db.GetContext(ctx, &paper, query, schoolID, id); err != nil {
		return nil, err
	}
	questions, err := r.ListQuestions(ctx, paper.ID)
	if err != nil {
		return nil, err
	}
	paper.Questions = questions
	return &paper, nil
}

// List returns papers matching the filter.
func (r *ExamPaperRepository) List(ctx context.Context, filter models.PaperFilter) ([]models.ExamPaper, error) {
	base := fmt.Sprintf("SELECT %s FROM exam_papers WHERE school_id = $1", paperColumns)
	args := []interface{}{filter.SchoolID}
	if filter.ExamID != "" {
		base += fmt.Sprintf(" AND exam_id = $%d", len(args)+1)
		args = append(args, filter.ExamID)
	}
	if filter.ClassID != "" {
		base += fmt.Sprintf(" AND class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		base += fmt.Sprintf(" AND subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	base += " ORDER BY class_id, subject_id"
	var papers []models.ExamPaper
	if err := r.db.SelectContext(ctx, &papers, base, args...); err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return papers, nil
}

// UpdateWorkflow persists a workflow transition: status, version and reviewer
// metadata in one statement.
func (r *ExamPaperRepository) UpdateWorkflow(ctx context.Context, paper *models.ExamPaper) error {
	paper.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_papers SET status = :status, paper_version = :paper_version, reviewed_by = :reviewed_by,
                reviewed_at = :reviewed_at, review_comment = :review_comment, updated_at = :updated_at
        WHERE school_id = :school_id AND id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, paper); err != nil {
		return fmt.Errorf("update paper workflow: %w", err)
	}
	return nil
}

// ListQuestions returns the ordered question set of a paper.
func (r *ExamPaperRepository) ListQuestions(ctx context.Context, paperID string) ([]models.ExamQuestion, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_questions WHERE paper_id = $1 ORDER BY order_index, created_at", questionColumns)
	var questions []models.ExamQuestion
	if err := r.db.SelectContext(ctx, &questions, query, paperID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// FindQuestion loads a single question.
func (r *ExamPaperRepository) FindQuestion(ctx context.Context, id string) (*models.ExamQuestion, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_questions WHERE id = $1", questionColumns)
	var question models.ExamQuestion
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		return nil, err
	}
	return &question, nil
}

// AddQuestion inserts a question and recomputes the paper total atomically.
func (r *ExamPaperRepository) AddQuestion(ctx context.Context, question *models.ExamQuestion) (float64, error) {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	question.CreatedAt = now
	question.UpdatedAt = now
	const query = `INSERT INTO exam_questions (id, paper_id, section_name, type, question_text, marks, order_index, created_at, updated_at)
        VALUES (:id, :paper_id, :section_name, :type, :question_text, :marks, :order_index, :created_at, :updated_at)`
	return r.mutateQuestion(ctx, question.PaperID, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, query, question)
		return err
	})
}

// UpdateQuestion updates a question and recomputes the paper total atomically.
func (r *ExamPaperRepository) UpdateQuestion(ctx context.Context, question *models.ExamQuestion) (float64, error) {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_questions SET section_name = :section_name, type = :type, question_text = :question_text,
                marks = :marks, order_index = :order_index, updated_at = :updated_at
        WHERE id = :id AND paper_id = :paper_id`
	return r.mutateQuestion(ctx, question.PaperID, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, query, question)
		return err
	})
}

// DeleteQuestion removes a question and recomputes the paper total atomically.
func (r *ExamPaperRepository) DeleteQuestion(ctx context.Context, paperID, questionID string) (float64, error) {
	return r.mutateQuestion(ctx, paperID, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM exam_questions WHERE id = $1 AND paper_id = $2", questionID, paperID)
		return err
	})
}

// mutateQuestion runs the mutation and the total recompute in one
// transaction, returning the fresh total.
func (r *ExamPaperRepository) mutateQuestion(ctx context.Context, paperID string, mutate func(tx *sqlx.Tx) error) (float64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin question mutation: %w", err)
	}
	if err := mutate(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("mutate question: %w", err)
	}
	const recompute = `UPDATE exam_papers
        SET total_marks = (SELECT COALESCE(SUM(marks), 0) FROM exam_questions WHERE paper_id = $1), updated_at = $2
        WHERE id = $1
        RETURNING total_marks`
	var total float64
	if err := tx.GetContext(ctx, &total, recompute, paperID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("recompute paper total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit question mutation: %w", err)
	}
	return total, nil
}

// TotalsByExamClass returns subject id -> paper total for one exam and class,
// used by the results engine as the percentage denominator source.
func (r *ExamPaperRepository) TotalsByExamClass(ctx context.Context, schoolID, examID, classID string) (models.PaperTotals, error) {
	const query = `SELECT subject_id, total_marks FROM exam_papers WHERE school_id = $1 AND exam_id = $2 AND class_id = $3`
	rows, err := r.db.QueryxContext(ctx, query, schoolID, examID, classID)
	if err != nil {
		return nil, fmt.Errorf("paper totals: %w", err)
	}
	defer rows.Close()
	totals := make(models.PaperTotals)
	for rows.Next() {
		var subjectID string
		var total float64
		if err := rows.Scan(&subjectID, &total); err != nil {
			return nil, fmt.Errorf("scan paper total: %w", err)
		}
		totals[subjectID] = total
	}
	return totals, rows.Err()
}
