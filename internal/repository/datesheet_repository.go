package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// DatesheetRepository persists datesheets and their entries, including the
// full-replace conflict-flag rewrite the detector performs.
type DatesheetRepository struct {
	db *sqlx.DB
}

// NewDatesheetRepository creates a new datesheet repository.
func NewDatesheetRepository(db *sqlx.DB) *DatesheetRepository {
	return &DatesheetRepository{db: db}
}

const datesheetColumns = "id, school_id, exam_id, name, published_at, conflict_count, created_at, updated_at"

var entryColumnList = []string{
	"id", "datesheet_id", "class_id", "section_id", "subject_id", "paper_id",
	"exam_date", "start_time", "end_time", "room_id", "supervisor_id",
	"invigilator_id", "has_conflict", "conflict_details", "created_at", "updated_at",
}

var entryColumns = strings.Join(entryColumnList, ", ")

// qualifiedEntryColumns prefixes every entry column for use in joins.
func qualifiedEntryColumns(alias string) string {
	return alias + "." + strings.Join(entryColumnList, ", "+alias+".")
}

// Create inserts a datesheet.
func (r *DatesheetRepository) Create(ctx context.Context, sheet *models.ExamDatesheet) error {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sheet.CreatedAt = now
	sheet.UpdatedAt = now
	const query = `INSERT INTO exam_datesheets (id, school_id, exam_id, name, conflict_count, created_at, updated_at)
        VALUES (:id, :school_id, :exam_id, :name, :conflict_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sheet); err != nil {
		return fmt.Errorf("create datesheet: %w", err)
	}
	return nil
}

// FindByID loads a datesheet scoped to a school.
func (r *DatesheetRepository) FindByID(ctx context.Context, schoolID, id string) (*models.ExamDatesheet, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_datesheets WHERE school_id = $1 AND id = $2", datesheetColumns)
	var sheet models.ExamDatesheet
	if err := r.db.GetContext(ctx, &sheet, query, schoolID, id); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// ListByExam returns every datesheet of one exam.
func (r *DatesheetRepository) ListByExam(ctx context.Context, schoolID, examID string) ([]models.ExamDatesheet, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_datesheets WHERE school_id = $1 AND exam_id = $2 ORDER BY created_at", datesheetColumns)
	var sheets []models.ExamDatesheet
	if err := r.db.SelectContext(ctx, &sheets, query, schoolID, examID); err != nil {
		return nil, fmt.Errorf("list datesheets: %w", err)
	}
	return sheets, nil
}

// AddEntry inserts a scheduled sitting.
func (r *DatesheetRepository) AddEntry(ctx context.Context, entry *models.ExamDatesheetEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	const query = `INSERT INTO exam_datesheet_entries (id, datesheet_id, class_id, section_id, subject_id, paper_id,
                exam_date, start_time, end_time, room_id, supervisor_id, invigilator_id, has_conflict, created_at, updated_at)
        VALUES (:id, :datesheet_id, :class_id, :section_id, :subject_id, :paper_id,
                :exam_date, :start_time, :end_time, :room_id, :supervisor_id, :invigilator_id, false, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("add datesheet entry: %w", err)
	}
	return nil
}

// UpdateEntry rewrites an entry's schedulable fields. Conflict flags are not
// touched here; only the detection pass writes them.
func (r *DatesheetRepository) UpdateEntry(ctx context.Context, entry *models.ExamDatesheetEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_datesheet_entries SET class_id = :class_id, section_id = :section_id,
                subject_id = :subject_id, paper_id = :paper_id, exam_date = :exam_date, start_time = :start_time,
                end_time = :end_time, room_id = :room_id, supervisor_id = :supervisor_id,
                invigilator_id = :invigilator_id, updated_at = :updated_at
        WHERE id = :id AND datesheet_id = :datesheet_id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update datesheet entry: %w", err)
	}
	return nil
}

// DeleteEntry removes an entry.
func (r *DatesheetRepository) DeleteEntry(ctx context.Context, datesheetID, entryID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM exam_datesheet_entries WHERE id = $1 AND datesheet_id = $2", entryID, datesheetID); err != nil {
		return fmt.Errorf("delete datesheet entry: %w", err)
	}
	return nil
}

// ListEntries returns a datesheet's raw entries.
func (r *DatesheetRepository) ListEntries(ctx context.Context, datesheetID string) ([]models.ExamDatesheetEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_datesheet_entries WHERE datesheet_id = $1 ORDER BY exam_date, start_time", entryColumns)
	var entries []models.ExamDatesheetEntry
	if err := r.db.SelectContext(ctx, &entries, query, datesheetID); err != nil {
		return nil, fmt.Errorf("list datesheet entries: %w", err)
	}
	return entries, nil
}

// ListEntryDetails returns entries joined with display labels for the
// conflict detector's reporting snapshots.
func (r *DatesheetRepository) ListEntryDetails(ctx context.Context, datesheetID string) ([]models.DatesheetEntryDetail, error) {
	query := fmt.Sprintf(`SELECT %s,
        c.name AS class_name, sec.name AS section_name, sub.name AS subject_name,
        rm.name AS room_name, sup.full_name AS supervisor_name, inv.full_name AS invigilator_name
        FROM exam_datesheet_entries e
        JOIN classes c ON c.id = e.class_id
        LEFT JOIN sections sec ON sec.id = e.section_id
        JOIN subjects sub ON sub.id = e.subject_id
        LEFT JOIN rooms rm ON rm.id = e.room_id
        LEFT JOIN staff sup ON sup.id = e.supervisor_id
        LEFT JOIN staff inv ON inv.id = e.invigilator_id
        WHERE e.datesheet_id = $1
        ORDER BY e.exam_date, e.start_time`, qualifiedEntryColumns("e"))
	var entries []models.DatesheetEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, datesheetID); err != nil {
		return nil, fmt.Errorf("list datesheet entry details: %w", err)
	}
	return entries, nil
}

// ReplaceConflictFlags applies a detection pass in one transaction: clear
// every entry's flags, set the flagged entries' details, then mirror the
// total conflict count onto the datesheet.
func (r *DatesheetRepository) ReplaceConflictFlags(ctx context.Context, datesheetID string, details map[string][]models.ScheduleConflict, conflictCount int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin conflict rewrite: %w", err)
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE exam_datesheet_entries SET has_conflict = false, conflict_details = NULL, updated_at = $2 WHERE datesheet_id = $1`,
		datesheetID, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear conflict flags: %w", err)
	}
	for entryID, conflicts := range details {
		payload, err := json.Marshal(conflicts)
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("marshal conflict details: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE exam_datesheet_entries SET has_conflict = true, conflict_details = $3, updated_at = $4 WHERE datesheet_id = $1 AND id = $2`,
			datesheetID, entryID, payload, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("set conflict flags: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE exam_datesheets SET conflict_count = $2, updated_at = $3 WHERE id = $1`,
		datesheetID, conflictCount, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update conflict count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conflict rewrite: %w", err)
	}
	return nil
}
