package models

import "time"

// GradingRule maps a percentage range to a grade for one school. Rules with a
// session id take precedence over session-null (global) rules for the same
// school.
type GradingRule struct {
	ID            string    `db:"id" json:"id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	SessionID     *string   `db:"session_id" json:"session_id,omitempty"`
	MinPercentage float64   `db:"min_percentage" json:"min_percentage"`
	MaxPercentage float64   `db:"max_percentage" json:"max_percentage"`
	Grade         string    `db:"grade" json:"grade"`
	GPA           *float64  `db:"gpa" json:"gpa,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the rule's range includes the percentage. Ranges are
// inclusive on both bounds.
func (r GradingRule) Covers(percentage float64) bool {
	return percentage >= r.MinPercentage && percentage <= r.MaxPercentage
}
