package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// RosterRepository exposes the read-only student and subject projections the
// mark entry screens rely on. Rosters are owned by the surrounding student
// information system; this API only reads them.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository creates a new roster repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// FetchStudents lists active students for a class, optionally narrowed to a
// section.
func (r *RosterRepository) FetchStudents(ctx context.Context, schoolID, classID, sectionID string) ([]models.StudentRow, error) {
	query := `SELECT s.id AS student_id, s.full_name AS student_name, s.roll_number, e.class_id, e.section_id
        FROM students s
        JOIN enrollments e ON e.student_id = s.id
        WHERE s.school_id = $1 AND e.class_id = $2 AND e.status = 'ACTIVE'`
	args := []interface{}{schoolID, classID}
	if sectionID != "" {
		query += " AND e.section_id = $3"
		args = append(args, sectionID)
	}
	query += " ORDER BY s.roll_number NULLS LAST, s.full_name"
	var students []models.StudentRow
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("fetch students: %w", err)
	}
	return students, nil
}

// FetchSubjects lists the subjects on the exam's roster for a class, i.e. the
// subjects a paper exists for, with each paper's derived total.
func (r *RosterRepository) FetchSubjects(ctx context.Context, schoolID, examID, classID string) ([]models.SubjectRow, error) {
	const query = `SELECT p.subject_id, sub.name AS subject_name, p.class_id, p.total_marks
        FROM exam_papers p
        JOIN subjects sub ON sub.id = p.subject_id
        WHERE p.school_id = $1 AND p.exam_id = $2 AND p.class_id = $3
        ORDER BY sub.name`
	var subjects []models.SubjectRow
	if err := r.db.SelectContext(ctx, &subjects, query, schoolID, examID, classID); err != nil {
		return nil, fmt.Errorf("fetch subjects: %w", err)
	}
	return subjects, nil
}
