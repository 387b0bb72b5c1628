package models

import (
	"encoding/json"
	"time"
)

// ResultStatus tracks publication of a computed result.
type ResultStatus string

// Result publication states.
const (
	ResultStatusComputed  ResultStatus = "COMPUTED"
	ResultStatusPublished ResultStatus = "PUBLISHED"
)

// ExamResult is the derived per-student outcome of an exam. Fully
// recomputable from marks and paper totals; overwritten, never appended, on
// recomputation.
type ExamResult struct {
	ID            string          `db:"id" json:"id"`
	SchoolID      string          `db:"school_id" json:"school_id"`
	ExamID        string          `db:"exam_id" json:"exam_id"`
	ClassID       string          `db:"class_id" json:"class_id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	TotalObtained float64         `db:"total_obtained" json:"total_obtained"`
	TotalMarks    float64         `db:"total_marks" json:"total_marks"`
	Percentage    float64         `db:"percentage" json:"percentage"`
	Grade         *string         `db:"grade" json:"grade,omitempty"`
	GPA           *float64        `db:"gpa" json:"gpa,omitempty"`
	RankInClass   *int            `db:"rank_in_class" json:"rank_in_class,omitempty"`
	Snapshot      json.RawMessage `db:"snapshot" json:"snapshot,omitempty"`
	Status        ResultStatus    `db:"status" json:"status"`
	ComputedAt    time.Time       `db:"computed_at" json:"computed_at"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ResultSubjectLine is one subject row inside the result snapshot.
type ResultSubjectLine struct {
	SubjectID     string  `json:"subject_id"`
	MarksObtained float64 `json:"marks_obtained"`
	TotalMarks    float64 `json:"total_marks"`
	IsAbsent      bool    `json:"is_absent"`
}

// ResultSnapshot is the audit payload stored alongside each result.
type ResultSnapshot struct {
	Subjects   []ResultSubjectLine `json:"subjects"`
	ComputedAt time.Time           `json:"computed_at"`
}

// ResultFilter scopes result queries.
type ResultFilter struct {
	SchoolID  string
	ExamID    string
	ClassID   string
	StudentID string
	Status    ResultStatus
}

// GenerateResultsSummary reports counts from one generation pass.
type GenerateResultsSummary struct {
	Computed int `json:"computed"`
	Skipped  int `json:"skipped"`
	Classes  int `json:"classes"`
}
