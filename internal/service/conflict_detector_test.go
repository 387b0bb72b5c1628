package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

func entry(id, classID string, sectionID *string, date, start, end string, roomID, supervisorID, invigilatorID *string) models.DatesheetEntryDetail {
	day, _ := time.Parse("2006-01-02", date)
	return models.DatesheetEntryDetail{
		ExamDatesheetEntry: models.ExamDatesheetEntry{
			ID:            id,
			ClassID:       classID,
			SectionID:     sectionID,
			SubjectID:     "subject-" + id,
			ExamDate:      day,
			StartTime:     start,
			EndTime:       end,
			RoomID:        roomID,
			SupervisorID:  supervisorID,
			InvigilatorID: invigilatorID,
		},
		ClassName:   "Class " + classID,
		SubjectName: "Subject " + id,
	}
}

func ptr(s string) *string { return &s }

func TestDetectNoOverlapNoConflict(t *testing.T) {
	detector := NewConflictDetector()
	entries := []models.DatesheetEntryDetail{
		entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", ptr("room-1"), nil, nil),
		entry("b", "class-1", nil, "2026-03-02", "11:00", "13:00", ptr("room-1"), nil, nil),
	}
	// Back-to-back sittings share a boundary minute but not a window.
	assert.Empty(t, detector.Detect(entries))
}

func TestDetectDifferentDatesNeverConflict(t *testing.T) {
	detector := NewConflictDetector()
	entries := []models.DatesheetEntryDetail{
		entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", ptr("room-1"), ptr("staff-1"), nil),
		entry("b", "class-1", nil, "2026-03-03", "09:00", "11:00", ptr("room-1"), ptr("staff-1"), nil),
	}
	assert.Empty(t, detector.Detect(entries))
}

func TestDetectClassSectionScope(t *testing.T) {
	detector := NewConflictDetector()

	// Two whole-class sittings of one class collide.
	conflicts := detector.Detect([]models.DatesheetEntryDetail{
		entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", nil, nil, nil),
		entry("b", "class-1", nil, "2026-03-02", "10:00", "12:00", nil, nil, nil),
	})
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTypeClassSection, conflicts[0].Type)

	// So do two sittings of the same section.
	conflicts = detector.Detect([]models.DatesheetEntryDetail{
		entry("a", "class-1", ptr("sec-a"), "2026-03-02", "09:00", "11:00", nil, nil, nil),
		entry("b", "class-1", ptr("sec-a"), "2026-03-02", "10:00", "12:00", nil, nil, nil),
	})
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTypeClassSection, conflicts[0].Type)

	// A class-wide entry and a section entry are different scopes.
	conflicts = detector.Detect([]models.DatesheetEntryDetail{
		entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", nil, nil, nil),
		entry("b", "class-1", ptr("sec-a"), "2026-03-02", "10:00", "12:00", nil, nil, nil),
	})
	assert.Empty(t, conflicts)

	// Two distinct sections of one class may sit in parallel.
	conflicts = detector.Detect([]models.DatesheetEntryDetail{
		entry("a", "class-1", ptr("sec-a"), "2026-03-02", "09:00", "11:00", nil, nil, nil),
		entry("b", "class-1", ptr("sec-b"), "2026-03-02", "09:00", "11:00", nil, nil, nil),
	})
	assert.Empty(t, conflicts)
}

func TestDetectRoomAndStaffDimensions(t *testing.T) {
	detector := NewConflictDetector()
	conflicts := detector.Detect([]models.DatesheetEntryDetail{
		entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", ptr("room-1"), ptr("staff-1"), ptr("staff-2")),
		entry("b", "class-2", nil, "2026-03-02", "10:00", "12:00", ptr("room-1"), ptr("staff-1"), ptr("staff-2")),
	})
	require.Len(t, conflicts, 3)
	types := map[models.ConflictType]bool{}
	for _, c := range conflicts {
		types[c.Type] = true
	}
	assert.True(t, types[models.ConflictTypeRoom])
	assert.True(t, types[models.ConflictTypeSupervisor])
	assert.True(t, types[models.ConflictTypeInvigilator])
}

func TestDetectUnassignedResourcesNeverConflict(t *testing.T) {
	detector := NewConflictDetector()
	conflicts := detector.Detect([]models.DatesheetEntryDetail{
		entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", nil, nil, nil),
		entry("b", "class-2", nil, "2026-03-02", "09:00", "11:00", nil, nil, nil),
	})
	assert.Empty(t, conflicts)
}

func TestDetectOnePairCanYieldMultipleRecords(t *testing.T) {
	detector := NewConflictDetector()
	conflicts := detector.Detect([]models.DatesheetEntryDetail{
		entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", ptr("room-1"), ptr("staff-1"), nil),
		entry("b", "class-1", nil, "2026-03-02", "09:30", "10:30", ptr("room-1"), ptr("staff-1"), nil),
	})
	// Same cohort, same room, same supervisor: three records for one pair.
	assert.Len(t, conflicts, 3)
}

func TestDetectSnapshotsCarryBothEntries(t *testing.T) {
	detector := NewConflictDetector()
	conflicts := detector.Detect([]models.DatesheetEntryDetail{
		entry("a", "class-1", nil, "2026-03-02", "09:00", "11:00", ptr("room-1"), nil, nil),
		entry("b", "class-2", nil, "2026-03-02", "09:00", "11:00", ptr("room-1"), nil, nil),
	})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a", conflicts[0].First.EntryID)
	assert.Equal(t, "b", conflicts[0].Second.EntryID)
	assert.Equal(t, "2026-03-02", conflicts[0].First.ExamDate)
	assert.NotEmpty(t, conflicts[0].Reason)
	assert.NotEmpty(t, conflicts[0].Suggestion)
}
