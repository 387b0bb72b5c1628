package models

import "time"

// NotificationType identifies the workflow event being announced.
type NotificationType string

// Notification types emitted by the exam workflows.
const (
	NotificationPaperSubmitted NotificationType = "paper_submitted"
	NotificationPaperApproved  NotificationType = "paper_approved"
	NotificationPaperRejected  NotificationType = "paper_rejected"
	NotificationMarksSubmitted NotificationType = "marks_submitted"
	NotificationResultsReady   NotificationType = "results_ready"
)

// NotificationStatus tracks dispatch of a persisted event.
type NotificationStatus string

// Dispatch states.
const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// NotificationEvent is produced by workflow transitions as plain data and
// dispatched after the owning transaction commits. Delivery failure never
// affects the workflow state that produced the event.
type NotificationEvent struct {
	ID            string             `db:"id" json:"id"`
	SchoolID      string             `db:"school_id" json:"school_id"`
	Type          NotificationType   `db:"type" json:"type"`
	ReferenceType string             `db:"reference_type" json:"reference_type"`
	ReferenceID   string             `db:"reference_id" json:"reference_id"`
	Trigger       string             `db:"trigger" json:"trigger"`
	RecipientRole *UserRole          `db:"recipient_role" json:"recipient_role,omitempty"`
	RecipientID   *string            `db:"recipient_id" json:"recipient_id,omitempty"`
	Status        NotificationStatus `db:"status" json:"status"`
	ScheduledAt   time.Time          `db:"scheduled_at" json:"scheduled_at"`
	SentAt        *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}
