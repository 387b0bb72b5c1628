package models

import "time"

// QuestionType classifies a paper question.
type QuestionType string

// Supported question types.
const (
	QuestionTypeMCQ   QuestionType = "MCQ"
	QuestionTypeShort QuestionType = "SHORT"
	QuestionTypeLong  QuestionType = "LONG"
)

// Valid reports whether the question type is known.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeShort, QuestionTypeLong:
		return true
	}
	return false
}

// ExamPaper is the authored question paper for one exam/class/subject. There
// is at most one paper per (exam, class, subject). TotalMarks is derived from
// the question set and only ever written by the recompute pass.
type ExamPaper struct {
	ID            string      `db:"id" json:"id"`
	SchoolID      string      `db:"school_id" json:"school_id"`
	ExamID        string      `db:"exam_id" json:"exam_id"`
	ClassID       string      `db:"class_id" json:"class_id"`
	SubjectID     string      `db:"subject_id" json:"subject_id"`
	Status        PaperStatus `db:"status" json:"status"`
	PaperVersion  int         `db:"paper_version" json:"paper_version"`
	TotalMarks    float64     `db:"total_marks" json:"total_marks"`
	PassingMarks  float64     `db:"passing_marks" json:"passing_marks"`
	CreatedBy     string      `db:"created_by" json:"created_by"`
	ReviewedBy    *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewComment *string     `db:"review_comment" json:"review_comment,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
	Questions     []ExamQuestion `json:"questions,omitempty"`
}

// ExamQuestion belongs to exactly one paper and has no lifecycle of its own
// beyond the parent paper's edit window.
type ExamQuestion struct {
	ID          string       `db:"id" json:"id"`
	PaperID     string       `db:"paper_id" json:"paper_id"`
	SectionName string       `db:"section_name" json:"section_name"`
	Type        QuestionType `db:"type" json:"type"`
	QuestionText string      `db:"question_text" json:"question_text"`
	Marks       float64      `db:"marks" json:"marks"`
	OrderIndex  int          `db:"order_index" json:"order_index"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// PaperFilter describes query params for listing papers.
type PaperFilter struct {
	SchoolID  string
	ExamID    string
	ClassID   string
	SubjectID string
	Status    PaperStatus
}

// PaperTotals maps subject id to the paper's derived total marks, used by the
// results engine to look up denominators per subject.
type PaperTotals map[string]float64
