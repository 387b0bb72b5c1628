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

type examRepo interface {
	Create(ctx context.Context, exam *models.Exam) error
	FindByID(ctx context.Context, schoolID, id string) (*models.Exam, error)
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error)
	UpdateStatus(ctx context.Context, schoolID, id string, status models.ExamStatus) error
}

// CreateExamRequest declares a new exam cycle.
type CreateExamRequest struct {
	Name      string  `json:"name" validate:"required"`
	Term      string  `json:"term" validate:"required"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// ExamService manages exam cycles. The exam status is an administrative
// label; paper, mark and datesheet workflows run independently of it.
type ExamService struct {
	exams     examRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs ExamService.
func NewExamService(exams examRepo, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{exams: exams, validator: validate, logger: logger}
}

// Create declares an exam in DRAFT for a school and session.
func (s *ExamService) Create(ctx context.Context, schoolID, sessionID string, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	exam := &models.Exam{
		SchoolID:  schoolID,
		SessionID: sessionID,
		Name:      req.Name,
		Term:      req.Term,
		Status:    models.ExamStatusDraft,
	}
	if req.StartDate != nil {
		start, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_date")
		}
		exam.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_date")
		}
		exam.EndDate = &end
	}
	if exam.StartDate != nil && exam.EndDate != nil && exam.EndDate.Before(*exam.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	return exam, nil
}

// Get loads an exam.
func (s *ExamService) Get(ctx context.Context, schoolID, id string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, schoolID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}

// List returns exams for the filter plus pagination metadata.
func (s *ExamService) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, *models.Pagination, error) {
	exams, total, err := s.exams.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pages := (total + size - 1) / size
	return exams, &models.Pagination{Page: page, PageSize: size, TotalItems: total, TotalPages: pages}, nil
}

// UpdateStatus sets an exam's administrative status.
func (s *ExamService) UpdateStatus(ctx context.Context, schoolID, id string, status models.ExamStatus) (*models.Exam, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown exam status")
	}
	if _, err := s.Get(ctx, schoolID, id); err != nil {
		return nil, err
	}
	if err := s.exams.UpdateStatus(ctx, schoolID, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam status")
	}
	return s.Get(ctx, schoolID, id)
}
