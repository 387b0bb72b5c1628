package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
)

type paperRepo interface {
	Create(ctx context.Context, paper *models.ExamPaper) error
	FindByID(ctx context.Context, schoolID, id string) (*models.ExamPaper, error)
	List(ctx context.Context, filter models.PaperFilter) ([]models.ExamPaper, error)
	UpdateWorkflow(ctx context.Context, paper *models.ExamPaper) error
	FindQuestion(ctx context.Context, id string) (*models.ExamQuestion, error)
	AddQuestion(ctx context.Context, question *models.ExamQuestion) (float64, error)
	UpdateQuestion(ctx context.Context, question *models.ExamQuestion) (float64, error)
	DeleteQuestion(ctx context.Context, paperID, questionID string) (float64, error)
}

// CreatePaperRequest declares a new paper for an exam/class/subject scope.
type CreatePaperRequest struct {
	ExamID       string  `json:"exam_id" validate:"required"`
	ClassID      string  `json:"class_id" validate:"required"`
	SubjectID    string  `json:"subject_id" validate:"required"`
	PassingMarks float64 `json:"passing_marks" validate:"gte=0"`
}

// QuestionRequest carries one question's payload.
type QuestionRequest struct {
	SectionName  string  `json:"section_name" validate:"required"`
	Type         string  `json:"type" validate:"required,oneof=MCQ SHORT LONG"`
	QuestionText string  `json:"question_text" validate:"required"`
	Marks        float64 `json:"marks" validate:"gt=0"`
	OrderIndex   int     `json:"order_index" validate:"gte=0"`
}

// QuestionResult pairs a mutated question with the paper's fresh total.
type QuestionResult struct {
	Question   *models.ExamQuestion `json:"question,omitempty"`
	TotalMarks float64              `json:"total_marks"`
}

// PaperService drives the paper authoring and review workflow. Transitions
// attempted from a wrong state return ok=false rather than an error: that is
// an expected race, not caller misuse. Editing a paper outside its edit
// window is misuse and fails hard.
type PaperService struct {
	papers    paperRepo
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewPaperService constructs PaperService.
func NewPaperService(papers paperRepo, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *PaperService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaperService{papers: papers, validator: validate, metrics: metrics, logger: logger}
}

// Create declares a paper in DRAFT with an empty question set.
func (s *PaperService) Create(ctx context.Context, schoolID, actorID string, req CreatePaperRequest) (*models.ExamPaper, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid paper payload")
	}
	paper := &models.ExamPaper{
		SchoolID:     schoolID,
		ExamID:       req.ExamID,
		ClassID:      req.ClassID,
		SubjectID:    req.SubjectID,
		Status:       models.PaperStatusDraft,
		PaperVersion: 1,
		PassingMarks: req.PassingMarks,
		CreatedBy:    actorID,
	}
	if err := s.papers.Create(ctx, paper); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create paper")
	}
	return paper, nil
}

// Get loads a paper with its questions.
func (s *PaperService) Get(ctx context.Context, schoolID, paperID string) (*models.ExamPaper, error) {
	paper, err := s.papers.FindByID(ctx, schoolID, paperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}
	return paper, nil
}

// List returns papers matching the filter.
func (s *PaperService) List(ctx context.Context, filter models.PaperFilter) ([]models.ExamPaper, error) {
	papers, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list papers")
	}
	return papers, nil
}

// SubmitForReview moves an editable paper to SUBMITTED. Resubmission after a
// rejection bumps the paper version. Returns ok=false as a no-op when the
// paper is not editable.
func (s *PaperService) SubmitForReview(ctx context.Context, schoolID, paperID, actorID string) (bool, []models.NotificationEvent, error) {
	paper, err := s.Get(ctx, schoolID, paperID)
	if err != nil {
		return false, nil, err
	}
	next, allowed := models.PaperTransition(paper.Status, models.PaperActionSubmit)
	if !allowed {
		return false, nil, nil
	}
	if paper.Status == models.PaperStatusRejected {
		paper.PaperVersion++
	}
	paper.Status = next
	paper.ReviewedBy = nil
	paper.ReviewedAt = nil
	paper.ReviewComment = nil
	if err := s.papers.UpdateWorkflow(ctx, paper); err != nil {
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit paper")
	}
	s.countTransition("paper", "submit")
	reviewRole := models.RoleCoordinator
	events := []models.NotificationEvent{{
		SchoolID:      schoolID,
		Type:          models.NotificationPaperSubmitted,
		ReferenceType: "exam_paper",
		ReferenceID:   paper.ID,
		Trigger:       actorID,
		RecipientRole: &reviewRole,
	}}
	return true, events, nil
}

// Approve moves a submitted paper to APPROVED and records the reviewer.
func (s *PaperService) Approve(ctx context.Context, schoolID, paperID, reviewerID string, comment *string) (bool, []models.NotificationEvent, error) {
	return s.review(ctx, schoolID, paperID, reviewerID, comment, models.PaperActionApprove, models.NotificationPaperApproved)
}

// Reject moves a submitted paper to REJECTED. The review comment is
// mandatory: a teacher needs to know what to fix.
func (s *PaperService) Reject(ctx context.Context, schoolID, paperID, reviewerID string, comment *string) (bool, []models.NotificationEvent, error) {
	if comment == nil || *comment == "" {
		return false, nil, appErrors.Clone(appErrors.ErrValidation, "rejection comment is required")
	}
	return s.review(ctx, schoolID, paperID, reviewerID, comment, models.PaperActionReject, models.NotificationPaperRejected)
}

func (s *PaperService) review(ctx context.Context, schoolID, paperID, reviewerID string, comment *string, action models.PaperAction, eventType models.NotificationType) (bool, []models.NotificationEvent, error) {
	paper, err := s.Get(ctx, schoolID, paperID)
	if err != nil {
		return false, nil, err
	}
	next, allowed := models.PaperTransition(paper.Status, action)
	if !allowed {
		return false, nil, nil
	}
	now := time.Now().UTC()
	paper.Status = next
	paper.ReviewedBy = &reviewerID
	paper.ReviewedAt = &now
	paper.ReviewComment = comment
	if err := s.papers.UpdateWorkflow(ctx, paper); err != nil {
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review paper")
	}
	s.countTransition("paper", string(action))
	creator := paper.CreatedBy
	events := []models.NotificationEvent{{
		SchoolID:      schoolID,
		Type:          eventType,
		ReferenceType: "exam_paper",
		ReferenceID:   paper.ID,
		Trigger:       reviewerID,
		RecipientID:   &creator,
	}}
	return true, events, nil
}

// Lock freezes an approved paper. Locked papers are immutable.
func (s *PaperService) Lock(ctx context.Context, schoolID, paperID string) (bool, error) {
	paper, err := s.Get(ctx, schoolID, paperID)
	if err != nil {
		return false, err
	}
	next, allowed := models.PaperTransition(paper.Status, models.PaperActionLock)
	if !allowed {
		return false, nil
	}
	paper.Status = next
	if err := s.papers.UpdateWorkflow(ctx, paper); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock paper")
	}
	s.countTransition("paper", "lock")
	return true, nil
}

// AddQuestion appends a question to an editable paper. The paper total is
// recomputed in the same transaction as the insert.
func (s *PaperService) AddQuestion(ctx context.Context, schoolID, paperID string, req QuestionRequest) (*QuestionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	if _, err := s.editablePaper(ctx, schoolID, paperID); err != nil {
		return nil, err
	}
	question := &models.ExamQuestion{
		PaperID:      paperID,
		SectionName:  req.SectionName,
		Type:         models.QuestionType(req.Type),
		QuestionText: req.QuestionText,
		Marks:        req.Marks,
		OrderIndex:   req.OrderIndex,
	}
	total, err := s.papers.AddQuestion(ctx, question)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add question")
	}
	return &QuestionResult{Question: question, TotalMarks: total}, nil
}

// UpdateQuestion rewrites a question on an editable paper and recomputes the
// total.
func (s *PaperService) UpdateQuestion(ctx context.Context, schoolID, questionID string, req QuestionRequest) (*QuestionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	question, err := s.papers.FindQuestion(ctx, questionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if _, err := s.editablePaper(ctx, schoolID, question.PaperID); err != nil {
		return nil, err
	}
	question.SectionName = req.SectionName
	question.Type = models.QuestionType(req.Type)
	question.QuestionText = req.QuestionText
	question.Marks = req.Marks
	question.OrderIndex = req.OrderIndex
	total, err := s.papers.UpdateQuestion(ctx, question)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}
	return &QuestionResult{Question: question, TotalMarks: total}, nil
}

// DeleteQuestion removes a question from an editable paper and recomputes
// the total.
func (s *PaperService) DeleteQuestion(ctx context.Context, schoolID, questionID string) (*QuestionResult, error) {
	question, err := s.papers.FindQuestion(ctx, questionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if _, err := s.editablePaper(ctx, schoolID, question.PaperID); err != nil {
		return nil, err
	}
	total, err := s.papers.DeleteQuestion(ctx, question.PaperID, question.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return &QuestionResult{TotalMarks: total}, nil
}

func (s *PaperService) editablePaper(ctx context.Context, schoolID, paperID string) (*models.ExamPaper, error) {
	paper, err := s.Get(ctx, schoolID, paperID)
	if err != nil {
		return nil, err
	}
	if !paper.Status.Editable() {
		return nil, appErrors.Clone(appErrors.ErrNotEditable, "paper is not editable in status "+string(paper.Status))
	}
	return paper, nil
}

func (s *PaperService) countTransition(entity, action string) {
	if s.metrics != nil {
		s.metrics.IncWorkflowTransition(entity, action)
	}
}
