package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
	"github.com/schoolsuite/exam-engine-api/pkg/lock"
)

type datesheetRepo interface {
	Create(ctx context.Context, sheet *models.ExamDatesheet) error
	FindByID(ctx context.Context, schoolID, id string) (*models.ExamDatesheet, error)
	ListByExam(ctx context.Context, schoolID, examID string) ([]models.ExamDatesheet, error)
	AddEntry(ctx context.Context, entry *models.ExamDatesheetEntry) error
	UpdateEntry(ctx context.Context, entry *models.ExamDatesheetEntry) error
	DeleteEntry(ctx context.Context, datesheetID, entryID string) error
	ListEntries(ctx context.Context, datesheetID string) ([]models.ExamDatesheetEntry, error)
	ListEntryDetails(ctx context.Context, datesheetID string) ([]models.DatesheetEntryDetail, error)
	ReplaceConflictFlags(ctx context.Context, datesheetID string, details map[string][]models.ScheduleConflict, conflictCount int) error
}

type lockManager interface {
	Acquire(ctx context.Context, key string) (*lock.Lease, bool, error)
}

// CreateDatesheetRequest declares a new datesheet for an exam.
type CreateDatesheetRequest struct {
	ExamID string `json:"exam_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

// DatesheetEntryRequest carries one sitting's schedule payload. Times are
// zero-padded HH:MM strings.
type DatesheetEntryRequest struct {
	ClassID       string  `json:"class_id" validate:"required"`
	SectionID     *string `json:"section_id"`
	SubjectID     string  `json:"subject_id" validate:"required"`
	PaperID       *string `json:"paper_id"`
	ExamDate      string  `json:"exam_date" validate:"required,datetime=2006-01-02"`
	StartTime     string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime       string  `json:"end_time" validate:"required,datetime=15:04"`
	RoomID        *string `json:"room_id"`
	SupervisorID  *string `json:"supervisor_id"`
	InvigilatorID *string `json:"invigilator_id"`
}

// DatesheetService manages datesheets and runs conflict detection. Detection
// is serialized per datesheet with a Redis advisory lock so concurrent runs
// cannot interleave the clear-then-set flag rewrite.
type DatesheetService struct {
	sheets    datesheetRepo
	detector  *ConflictDetector
	locks     lockManager
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewDatesheetService constructs DatesheetService.
func NewDatesheetService(sheets datesheetRepo, detector *ConflictDetector, locks lockManager, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *DatesheetService {
	if detector == nil {
		detector = NewConflictDetector()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatesheetService{sheets: sheets, detector: detector, locks: locks, validator: validate, metrics: metrics, logger: logger}
}

// Create declares a datesheet with no entries and no conflicts.
func (s *DatesheetService) Create(ctx context.Context, schoolID string, req CreateDatesheetRequest) (*models.ExamDatesheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid datesheet payload")
	}
	sheet := &models.ExamDatesheet{
		SchoolID: schoolID,
		ExamID:   req.ExamID,
		Name:     req.Name,
	}
	if err := s.sheets.Create(ctx, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create datesheet")
	}
	return sheet, nil
}

// Get loads a datesheet.
func (s *DatesheetService) Get(ctx context.Context, schoolID, id string) (*models.ExamDatesheet, error) {
	sheet, err := s.sheets.FindByID(ctx, schoolID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "datesheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load datesheet")
	}
	return sheet, nil
}

// ListByExam returns an exam's datesheets.
func (s *DatesheetService) ListByExam(ctx context.Context, schoolID, examID string) ([]models.ExamDatesheet, error) {
	sheets, err := s.sheets.ListByExam(ctx, schoolID, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list datesheets")
	}
	return sheets, nil
}

// Entries returns a datesheet's sittings with their current conflict flags.
func (s *DatesheetService) Entries(ctx context.Context, schoolID, datesheetID string) ([]models.ExamDatesheetEntry, error) {
	if _, err := s.Get(ctx, schoolID, datesheetID); err != nil {
		return nil, err
	}
	entries, err := s.sheets.ListEntries(ctx, datesheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	return entries, nil
}

// AddEntry schedules a sitting. The new entry starts unflagged; flags become
// current again on the next detection run.
func (s *DatesheetService) AddEntry(ctx context.Context, schoolID, datesheetID string, req DatesheetEntryRequest) (*models.ExamDatesheetEntry, error) {
	entry, err := s.entryFromRequest(ctx, schoolID, datesheetID, req)
	if err != nil {
		return nil, err
	}
	if err := s.sheets.AddEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add entry")
	}
	return entry, nil
}

// UpdateEntry rewrites a sitting's schedule.
func (s *DatesheetService) UpdateEntry(ctx context.Context, schoolID, datesheetID, entryID string, req DatesheetEntryRequest) (*models.ExamDatesheetEntry, error) {
	entry, err := s.entryFromRequest(ctx, schoolID, datesheetID, req)
	if err != nil {
		return nil, err
	}
	entry.ID = entryID
	if err := s.sheets.UpdateEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update entry")
	}
	return entry, nil
}

// DeleteEntry removes a sitting.
func (s *DatesheetService) DeleteEntry(ctx context.Context, schoolID, datesheetID, entryID string) error {
	if _, err := s.Get(ctx, schoolID, datesheetID); err != nil {
		return err
	}
	if err := s.sheets.DeleteEntry(ctx, datesheetID, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete entry")
	}
	return nil
}

// DetectConflicts runs a full detection pass: every entry's flags are
// rewritten from scratch and the datesheet's conflict_count becomes the
// total number of conflict records. A concurrent run on the same datesheet
// is refused rather than queued.
func (s *DatesheetService) DetectConflicts(ctx context.Context, schoolID, datesheetID string) (*models.ConflictReport, error) {
	sheet, err := s.Get(ctx, schoolID, datesheetID)
	if err != nil {
		return nil, err
	}

	lease, acquired, err := s.locks.Acquire(ctx, "datesheet:"+sheet.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire detection lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrLockUnavailable, "conflict detection already running for this datesheet")
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			s.logger.Warn("failed to release detection lock", zap.String("datesheet_id", sheet.ID), zap.Error(err))
		}
	}()

	started := time.Now()
	entries, err := s.sheets.ListEntryDetails(ctx, datesheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}

	conflicts := s.detector.Detect(entries)
	perEntry := make(map[string][]models.ScheduleConflict)
	for _, c := range conflicts {
		perEntry[c.First.EntryID] = append(perEntry[c.First.EntryID], c)
		perEntry[c.Second.EntryID] = append(perEntry[c.Second.EntryID], c)
	}

	if err := s.sheets.ReplaceConflictFlags(ctx, datesheetID, perEntry, len(conflicts)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist conflict flags")
	}
	if s.metrics != nil {
		s.metrics.ObserveConflictDetection(time.Since(started))
	}
	s.logger.Info("conflict detection completed",
		zap.String("datesheet_id", datesheetID),
		zap.Int("entries", len(entries)),
		zap.Int("conflicts", len(conflicts)))

	return &models.ConflictReport{
		DatesheetID:       datesheetID,
		ConflictCount:     len(conflicts),
		ConflictedEntries: len(perEntry),
		Conflicts:         conflicts,
		DetectedAt:        time.Now().UTC(),
	}, nil
}

func (s *DatesheetService) entryFromRequest(ctx context.Context, schoolID, datesheetID string, req DatesheetEntryRequest) (*models.ExamDatesheetEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}
	if req.EndTime <= req.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	if _, err := s.Get(ctx, schoolID, datesheetID); err != nil {
		return nil, err
	}
	examDate, err := time.Parse("2006-01-02", req.ExamDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid exam_date")
	}
	return &models.ExamDatesheetEntry{
		DatesheetID:   datesheetID,
		ClassID:       req.ClassID,
		SectionID:     req.SectionID,
		SubjectID:     req.SubjectID,
		PaperID:       req.PaperID,
		ExamDate:      examDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		RoomID:        req.RoomID,
		SupervisorID:  req.SupervisorID,
		InvigilatorID: req.InvigilatorID,
	}, nil
}
