package models

import "time"

// ExamMark is one student's mark for one subject in an exam. Uniquely keyed
// by (exam, class, subject, student); writes to an existing key update in
// place, never duplicate.
type ExamMark struct {
	ID            string     `db:"id" json:"id"`
	SchoolID      string     `db:"school_id" json:"school_id"`
	ExamID        string     `db:"exam_id" json:"exam_id"`
	ClassID       string     `db:"class_id" json:"class_id"`
	SectionID     *string    `db:"section_id" json:"section_id,omitempty"`
	SubjectID     string     `db:"subject_id" json:"subject_id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	MarksObtained float64    `db:"marks_obtained" json:"marks_obtained"`
	IsAbsent      bool       `db:"is_absent" json:"is_absent"`
	Status        MarkStatus `db:"status" json:"status"`
	EnteredBy     *string    `db:"entered_by" json:"entered_by,omitempty"`
	SubmittedBy   *string    `db:"submitted_by" json:"submitted_by,omitempty"`
	SubmittedAt   *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	VerifiedBy    *string    `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt    *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// MarkFilter scopes mark queries and bulk transitions. IDs takes precedence
// over the field filters when both are supplied.
type MarkFilter struct {
	SchoolID  string
	ExamID    string
	ClassID   string
	SectionID string
	SubjectID string
	StudentID string
	Status    MarkStatus
	IDs       []string
}

// MarkProgress summarises mark statuses for progress reporting.
type MarkProgress struct {
	Draft     int `db:"draft" json:"draft"`
	Submitted int `db:"submitted" json:"submitted"`
	Verified  int `db:"verified" json:"verified"`
	Locked    int `db:"locked" json:"locked"`
	Total     int `db:"total" json:"total"`
}

// StudentRow is a read-only roster projection used by mark entry screens.
type StudentRow struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	RollNumber  *string `db:"roll_number" json:"roll_number,omitempty"`
	ClassID     string  `db:"class_id" json:"class_id"`
	SectionID   *string `db:"section_id" json:"section_id,omitempty"`
}

// SubjectRow is a read-only projection of the exam's subject roster.
type SubjectRow struct {
	SubjectID   string  `db:"subject_id" json:"subject_id"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	ClassID     string  `db:"class_id" json:"class_id"`
	TotalMarks  float64 `db:"total_marks" json:"total_marks"`
}
