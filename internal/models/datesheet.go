package models

import (
	"encoding/json"
	"time"
)

// ExamDatesheet is a named collection of scheduled sittings for one exam.
// ConflictCount mirrors the number of conflict records found by the last
// detection pass; it is derived and only written by that pass.
type ExamDatesheet struct {
	ID            string    `db:"id" json:"id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	ExamID        string    `db:"exam_id" json:"exam_id"`
	Name          string    `db:"name" json:"name"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at,omitempty"`
	ConflictCount int       `db:"conflict_count" json:"conflict_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ExamDatesheetEntry is one scheduled sitting. HasConflict and
// ConflictDetails are derived flags fully recomputed on every detection run.
type ExamDatesheetEntry struct {
	ID              string          `db:"id" json:"id"`
	DatesheetID     string          `db:"datesheet_id" json:"datesheet_id"`
	ClassID         string          `db:"class_id" json:"class_id"`
	SectionID       *string         `db:"section_id" json:"section_id,omitempty"`
	SubjectID       string          `db:"subject_id" json:"subject_id"`
	PaperID         *string         `db:"paper_id" json:"paper_id,omitempty"`
	ExamDate        time.Time       `db:"exam_date" json:"exam_date"`
	StartTime       string          `db:"start_time" json:"start_time"`
	EndTime         string          `db:"end_time" json:"end_time"`
	RoomID          *string         `db:"room_id" json:"room_id,omitempty"`
	SupervisorID    *string         `db:"supervisor_id" json:"supervisor_id,omitempty"`
	InvigilatorID   *string         `db:"invigilator_id" json:"invigilator_id,omitempty"`
	HasConflict     bool            `db:"has_conflict" json:"has_conflict"`
	ConflictDetails json.RawMessage `db:"conflict_details" json:"conflict_details,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// DatesheetEntryDetail enriches an entry with display labels for conflict
// reporting.
type DatesheetEntryDetail struct {
	ExamDatesheetEntry
	ClassName       string  `db:"class_name" json:"class_name"`
	SectionName     *string `db:"section_name" json:"section_name,omitempty"`
	SubjectName     string  `db:"subject_name" json:"subject_name"`
	RoomName        *string `db:"room_name" json:"room_name,omitempty"`
	SupervisorName  *string `db:"supervisor_name" json:"supervisor_name,omitempty"`
	InvigilatorName *string `db:"invigilator_name" json:"invigilator_name,omitempty"`
}

// ConflictType classifies a pairwise schedule conflict.
type ConflictType string

// Conflict dimensions checked by the detector.
const (
	ConflictTypeClassSection ConflictType = "CLASS_SECTION"
	ConflictTypeRoom         ConflictType = "ROOM"
	ConflictTypeSupervisor   ConflictType = "SUPERVISOR"
	ConflictTypeInvigilator  ConflictType = "INVIGILATOR"
)

// ConflictEntrySnapshot captures the descriptive state of one entry at
// detection time for reporting.
type ConflictEntrySnapshot struct {
	EntryID     string  `json:"entry_id"`
	ClassName   string  `json:"class_name"`
	SectionName *string `json:"section_name,omitempty"`
	SubjectName string  `json:"subject_name"`
	ExamDate    string  `json:"exam_date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	RoomName    *string `json:"room_name,omitempty"`
}

// ScheduleConflict is one detected conflict between two overlapping entries.
type ScheduleConflict struct {
	Type       ConflictType          `json:"type"`
	First      ConflictEntrySnapshot `json:"first"`
	Second     ConflictEntrySnapshot `json:"second"`
	Reason     string                `json:"reason"`
	Suggestion string                `json:"suggestion"`
}

// ConflictReport is the outcome of one detection pass over a datesheet.
type ConflictReport struct {
	DatesheetID      string             `json:"datesheet_id"`
	ConflictCount    int                `json:"conflict_count"`
	ConflictedEntries int               `json:"conflicted_entries"`
	Conflicts        []ScheduleConflict `json:"conflicts"`
	DetectedAt       time.Time          `json:"detected_at"`
}
