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

// ExamRepository handles exam cycle persistence.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository creates a new exam repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = "id, school_id, session_id, name, term, status, start_date, end_date, created_at, updated_at"

// Create inserts a new exam cycle.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now
	if exam.Status == "" {
		exam.Status = models.ExamStatusDraft
	}
	const query = `INSERT INTO exams (id, school_id, session_id, name, term, status, start_date, end_date, created_at, updated_at)
        VALUES (:id, :school_id, :session_id, :name, :term, :status, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// FindByID loads an exam scoped to a school.
func (r *ExamRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE school_id = $1 AND id = $2", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, schoolID, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// List returns exams matching the filter with pagination.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	base := "FROM exams WHERE school_id = $1"
	args := []interface{}{filter.SchoolID}
	if filter.SessionID != "" {
		base += fmt.Sprintf(" AND session_id = $%d", len(args)+1)
		args = append(args, filter.SessionID)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "term": true, "start_date": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", examColumns, base, sortBy, order, size, offset)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}
	return exams, total, nil
}

// UpdateStatus moves the exam to a new status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, schoolID, id string, status models.ExamStatus) error {
	const query = `UPDATE exams SET status = $1, updated_at = $2 WHERE school_id = $3 AND id = $4`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), schoolID, id)
	if err != nil {
		return fmt.Errorf("update exam status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update exam status: exam %s not found", id)
	}
	return nil
}
