package models

// PaperStatus represents the review lifecycle of an exam paper.
type PaperStatus string

// Paper workflow states.
const (
	PaperStatusDraft     PaperStatus = "DRAFT"
	PaperStatusSubmitted PaperStatus = "SUBMITTED"
	PaperStatusApproved  PaperStatus = "APPROVED"
	PaperStatusRejected  PaperStatus = "REJECTED"
	PaperStatusLocked    PaperStatus = "LOCKED"
)

// PaperAction is a transition request against the paper workflow.
type PaperAction string

// Paper workflow actions.
const (
	PaperActionSubmit  PaperAction = "SUBMIT"
	PaperActionApprove PaperAction = "APPROVE"
	PaperActionReject  PaperAction = "REJECT"
	PaperActionLock    PaperAction = "LOCK"
)

// paperTransitions is the single source of truth for the paper state machine.
// A rejected paper goes through the same submit gate as a draft one.
var paperTransitions = map[PaperStatus]map[PaperAction]PaperStatus{
	PaperStatusDraft: {
		PaperActionSubmit: PaperStatusSubmitted,
	},
	PaperStatusRejected: {
		PaperActionSubmit: PaperStatusSubmitted,
	},
	PaperStatusSubmitted: {
		PaperActionApprove: PaperStatusApproved,
		PaperActionReject:  PaperStatusRejected,
	},
	PaperStatusApproved: {
		PaperActionLock: PaperStatusLocked,
	},
}

// PaperTransition resolves the target state for an action, reporting whether
// the transition is allowed from the given state.
func PaperTransition(from PaperStatus, action PaperAction) (PaperStatus, bool) {
	to, ok := paperTransitions[from][action]
	return to, ok
}

// Editable reports whether question mutations are allowed in this state.
// Both freshly drafted and rejected papers are editable.
func (s PaperStatus) Editable() bool {
	return s == PaperStatusDraft || s == PaperStatusRejected
}

// MarkStatus represents the verification lifecycle of a mark record.
type MarkStatus string

// Mark workflow states. The chain is strictly linear with no rejection path.
const (
	MarkStatusDraft     MarkStatus = "DRAFT"
	MarkStatusSubmitted MarkStatus = "SUBMITTED"
	MarkStatusVerified  MarkStatus = "VERIFIED"
	MarkStatusLocked    MarkStatus = "LOCKED"
)

// MarkAction is a transition request against the marks workflow.
type MarkAction string

// Mark workflow actions.
const (
	MarkActionSubmit MarkAction = "SUBMIT"
	MarkActionVerify MarkAction = "VERIFY"
	MarkActionLock   MarkAction = "LOCK"
)

var markTransitions = map[MarkStatus]map[MarkAction]MarkStatus{
	MarkStatusDraft: {
		MarkActionSubmit: MarkStatusSubmitted,
	},
	MarkStatusSubmitted: {
		MarkActionVerify: MarkStatusVerified,
	},
	MarkStatusVerified: {
		MarkActionLock: MarkStatusLocked,
	},
}

// MarkTransition resolves the target state for an action, reporting whether
// the transition is allowed from the given state.
func MarkTransition(from MarkStatus, action MarkAction) (MarkStatus, bool) {
	to, ok := markTransitions[from][action]
	return to, ok
}

// MarkActionSource returns the required source state for a bulk action. Bulk
// transitions select rows in this state and silently skip the rest.
func MarkActionSource(action MarkAction) (MarkStatus, bool) {
	switch action {
	case MarkActionSubmit:
		return MarkStatusDraft, true
	case MarkActionVerify:
		return MarkStatusSubmitted, true
	case MarkActionLock:
		return MarkStatusVerified, true
	}
	return "", false
}
