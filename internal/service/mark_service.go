package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
)

type markRepo interface {
	UpsertDraft(ctx context.Context, marks []models.ExamMark) error
	List(ctx context.Context, filter models.MarkFilter) ([]models.ExamMark, error)
	BulkTransition(ctx context.Context, filter models.MarkFilter, action models.MarkAction, actorID string) ([]string, error)
	Progress(ctx context.Context, filter models.MarkFilter) (*models.MarkProgress, error)
}

type rosterRepo interface {
	FetchStudents(ctx context.Context, schoolID, classID, sectionID string) ([]models.StudentRow, error)
	FetchSubjects(ctx context.Context, schoolID, examID, classID string) ([]models.SubjectRow, error)
}

type paperTotalsRepo interface {
	TotalsByExamClass(ctx context.Context, schoolID, examID, classID string) (models.PaperTotals, error)
}

// MarkEntry is one student's mark in a draft save request.
type MarkEntry struct {
	StudentID     string  `json:"student_id" validate:"required"`
	MarksObtained float64 `json:"marks_obtained" validate:"gte=0"`
	IsAbsent      bool    `json:"is_absent"`
}

// SaveDraftMarksRequest upserts a batch of marks for one exam/class/subject.
type SaveDraftMarksRequest struct {
	ExamID    string      `json:"exam_id" validate:"required"`
	ClassID   string      `json:"class_id" validate:"required"`
	SectionID *string     `json:"section_id"`
	SubjectID string      `json:"subject_id" validate:"required"`
	Entries   []MarkEntry `json:"entries" validate:"required,min=1,dive"`
}

// BulkTransitionRequest selects marks for a bulk workflow action. Records not
// in the action's source state are skipped, not failed.
type BulkTransitionRequest struct {
	ExamID    string   `json:"exam_id" validate:"required"`
	ClassID   string   `json:"class_id"`
	SectionID *string  `json:"section_id"`
	SubjectID string   `json:"subject_id"`
	MarkIDs   []string `json:"mark_ids"`
}

// BulkTransitionResult reports how many records actually moved.
type BulkTransitionResult struct {
	Transitioned int      `json:"transitioned"`
	IDs          []string `json:"ids"`
}

// MarkService drives mark entry and the linear submit/verify/lock chain.
// Saving a draft over an already submitted mark intentionally re-opens it;
// only locked marks are immutable.
type MarkService struct {
	marks     markRepo
	roster    rosterRepo
	papers    paperTotalsRepo
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewMarkService constructs MarkService.
func NewMarkService(marks markRepo, roster rosterRepo, papers paperTotalsRepo, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{marks: marks, roster: roster, papers: papers, validator: validate, metrics: metrics, logger: logger}
}

// SaveDraft upserts mark rows in DRAFT. Every touched row lands in DRAFT
// regardless of its previous state, except locked rows which are rejected up
// front. Marks above the paper's total are rejected.
func (s *MarkService) SaveDraft(ctx context.Context, schoolID, actorID string, req SaveDraftMarksRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	totals, err := s.papers.TotalsByExamClass(ctx, schoolID, req.ExamID, req.ClassID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper totals")
	}
	maxMarks, ok := totals[req.SubjectID]
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "no paper exists for this subject")
	}

	locked, err := s.marks.List(ctx, models.MarkFilter{
		SchoolID:  schoolID,
		ExamID:    req.ExamID,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		Status:    models.MarkStatusLocked,
	})
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check locked marks")
	}
	lockedStudents := make(map[string]struct{}, len(locked))
	for _, m := range locked {
		lockedStudents[m.StudentID] = struct{}{}
	}

	entered := actorID
	rows := make([]models.ExamMark, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if _, isLocked := lockedStudents[entry.StudentID]; isLocked {
			return 0, appErrors.Clone(appErrors.ErrLocked, "marks for student "+entry.StudentID+" are locked")
		}
		if !entry.IsAbsent && entry.MarksObtained > maxMarks {
			return 0, appErrors.Clone(appErrors.ErrValidation, "marks for student "+entry.StudentID+" exceed the paper total")
		}
		obtained := entry.MarksObtained
		if entry.IsAbsent {
			obtained = 0
		}
		rows = append(rows, models.ExamMark{
			SchoolID:      schoolID,
			ExamID:        req.ExamID,
			ClassID:       req.ClassID,
			SectionID:     req.SectionID,
			SubjectID:     req.SubjectID,
			StudentID:     entry.StudentID,
			MarksObtained: obtained,
			IsAbsent:      entry.IsAbsent,
			Status:        models.MarkStatusDraft,
			EnteredBy:     &entered,
		})
	}

	if err := s.marks.UpsertDraft(ctx, rows); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	return len(rows), nil
}

// List returns marks matching the filter.
func (s *MarkService) List(ctx context.Context, filter models.MarkFilter) ([]models.ExamMark, error) {
	marks, err := s.marks.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return marks, nil
}

// Progress summarises mark statuses in the filtered scope.
func (s *MarkService) Progress(ctx context.Context, filter models.MarkFilter) (*models.MarkProgress, error) {
	progress, err := s.marks.Progress(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute mark progress")
	}
	return progress, nil
}

// Submit moves matching DRAFT marks to SUBMITTED in one statement and emits
// a marks_submitted event for every record that moved.
func (s *MarkService) Submit(ctx context.Context, schoolID, actorID string, req BulkTransitionRequest) (*BulkTransitionResult, []models.NotificationEvent, error) {
	result, err := s.transition(ctx, schoolID, actorID, req, models.MarkActionSubmit)
	if err != nil {
		return nil, nil, err
	}
	role := models.RoleCoordinator
	events := make([]models.NotificationEvent, 0, len(result.IDs))
	for _, markID := range result.IDs {
		events = append(events, models.NotificationEvent{
			SchoolID:      schoolID,
			Type:          models.NotificationMarksSubmitted,
			ReferenceType: "exam_mark",
			ReferenceID:   markID,
			Trigger:       actorID,
			RecipientRole: &role,
		})
	}
	return result, events, nil
}

// Verify moves matching SUBMITTED marks to VERIFIED.
func (s *MarkService) Verify(ctx context.Context, schoolID, actorID string, req BulkTransitionRequest) (*BulkTransitionResult, error) {
	return s.transition(ctx, schoolID, actorID, req, models.MarkActionVerify)
}

// Lock moves matching VERIFIED marks to LOCKED.
func (s *MarkService) Lock(ctx context.Context, schoolID, actorID string, req BulkTransitionRequest) (*BulkTransitionResult, error) {
	return s.transition(ctx, schoolID, actorID, req, models.MarkActionLock)
}

func (s *MarkService) transition(ctx context.Context, schoolID, actorID string, req BulkTransitionRequest, action models.MarkAction) (*BulkTransitionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	filter := models.MarkFilter{
		SchoolID:  schoolID,
		ExamID:    req.ExamID,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		IDs:       req.MarkIDs,
	}
	if req.SectionID != nil {
		filter.SectionID = *req.SectionID
	}
	ids, err := s.marks.BulkTransition(ctx, filter, action, actorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition marks")
	}
	if len(ids) > 0 && s.metrics != nil {
		s.metrics.IncWorkflowTransition("mark", string(action))
	}
	return &BulkTransitionResult{Transitioned: len(ids), IDs: ids}, nil
}

// Students returns the active roster for a class or section.
func (s *MarkService) Students(ctx context.Context, schoolID, classID, sectionID string) ([]models.StudentRow, error) {
	students, err := s.roster.FetchStudents(ctx, schoolID, classID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	return students, nil
}

// Subjects returns an exam's class subjects with their paper totals.
func (s *MarkService) Subjects(ctx context.Context, schoolID, examID, classID string) ([]models.SubjectRow, error) {
	subjects, err := s.roster.FetchSubjects(ctx, schoolID, examID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	return subjects, nil
}
