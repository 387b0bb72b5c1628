package service

import (
	"fmt"
	"time"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// ConflictDetector runs the pairwise overlap checks over a datesheet's
// entries. It is pure: it reads the entry slice and produces conflict
// records; persistence of the flags is the caller's job.
type ConflictDetector struct{}

// NewConflictDetector constructs ConflictDetector.
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// Detect compares every pair of entries on the same date. Two entries
// overlap when their half-open time windows intersect, that is
// start_a < end_b and start_b < end_a; touching boundaries do not count.
// Each overlapping pair is checked on four independent dimensions, so one
// pair can yield up to four conflict records.
func (d *ConflictDetector) Detect(entries []models.DatesheetEntryDetail) []models.ScheduleConflict {
	var conflicts []models.ScheduleConflict
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := &entries[i], &entries[j]
			if !sameDay(a.ExamDate, b.ExamDate) || !timesOverlap(a, b) {
				continue
			}
			conflicts = append(conflicts, d.checkPair(a, b)...)
		}
	}
	return conflicts
}

func (d *ConflictDetector) checkPair(a, b *models.DatesheetEntryDetail) []models.ScheduleConflict {
	var out []models.ScheduleConflict
	if cohortsCollide(a, b) {
		out = append(out, conflict(models.ConflictTypeClassSection, a, b,
			fmt.Sprintf("students of %s cannot sit two exams at once", cohortLabel(a)),
			"move one of the sittings to a different date or time"))
	}
	if bothEqual(a.RoomID, b.RoomID) {
		out = append(out, conflict(models.ConflictTypeRoom, a, b,
			fmt.Sprintf("room %s is double-booked", deref(a.RoomName)),
			"assign a different room to one of the sittings"))
	}
	if bothEqual(a.SupervisorID, b.SupervisorID) {
		out = append(out, conflict(models.ConflictTypeSupervisor, a, b,
			fmt.Sprintf("supervisor %s is assigned to both sittings", deref(a.SupervisorName)),
			"assign a different supervisor to one of the sittings"))
	}
	if bothEqual(a.InvigilatorID, b.InvigilatorID) {
		out = append(out, conflict(models.ConflictTypeInvigilator, a, b,
			fmt.Sprintf("invigilator %s is assigned to both sittings", deref(a.InvigilatorName)),
			"assign a different invigilator to one of the sittings"))
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// timesOverlap compares the zero-padded HH:MM strings lexically, which
// orders them the same way the clock does.
func timesOverlap(a, b *models.DatesheetEntryDetail) bool {
	return a.StartTime < b.EndTime && b.StartTime < a.EndTime
}

// cohortsCollide reports whether the two entries target the same cohort.
// Two class-wide sittings of one class collide, as do two sittings of the
// same section. A class-wide entry and a section entry are different scopes
// and never collide, nor do two distinct sections.
func cohortsCollide(a, b *models.DatesheetEntryDetail) bool {
	if a.ClassID != b.ClassID {
		return false
	}
	if a.SectionID == nil && b.SectionID == nil {
		return true
	}
	return a.SectionID != nil && b.SectionID != nil && *a.SectionID == *b.SectionID
}

// bothEqual reports whether two optional ids are both set and identical.
// Unassigned resources never conflict.
func bothEqual(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func conflict(t models.ConflictType, a, b *models.DatesheetEntryDetail, reason, suggestion string) models.ScheduleConflict {
	return models.ScheduleConflict{
		Type:       t,
		First:      snapshot(a),
		Second:     snapshot(b),
		Reason:     reason,
		Suggestion: suggestion,
	}
}

func snapshot(e *models.DatesheetEntryDetail) models.ConflictEntrySnapshot {
	return models.ConflictEntrySnapshot{
		EntryID:     e.ID,
		ClassName:   e.ClassName,
		SectionName: e.SectionName,
		SubjectName: e.SubjectName,
		ExamDate:    e.ExamDate.Format("2006-01-02"),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		RoomName:    e.RoomName,
	}
}

func cohortLabel(e *models.DatesheetEntryDetail) string {
	if e.SectionName != nil {
		return e.ClassName + " " + *e.SectionName
	}
	return e.ClassName
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
