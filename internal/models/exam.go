package models

import "time"

// ExamStatus represents the lifecycle of an exam cycle.
type ExamStatus string

// Possible exam statuses. The exam status is independent of the states of
// its papers, marks and datesheets.
const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusRunning   ExamStatus = "RUNNING"
	ExamStatusLocked    ExamStatus = "LOCKED"
	ExamStatusPublished ExamStatus = "PUBLISHED"
)

// Valid reports whether the status is a known exam status.
func (s ExamStatus) Valid() bool {
	switch s {
	case ExamStatusDraft, ExamStatusRunning, ExamStatusLocked, ExamStatusPublished:
		return true
	}
	return false
}

// Exam identifies one examination cycle for a school and academic session.
type Exam struct {
	ID        string     `db:"id" json:"id"`
	SchoolID  string     `db:"school_id" json:"school_id"`
	SessionID string     `db:"session_id" json:"session_id"`
	Name      string     `db:"name" json:"name"`
	Term      string     `db:"term" json:"term"`
	Status    ExamStatus `db:"status" json:"status"`
	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ExamFilter describes query params for listing exams.
type ExamFilter struct {
	SchoolID  string
	SessionID string
	Status    ExamStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
