package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
)

type resultRepo interface {
	UpsertBatch(ctx context.Context, results []models.ExamResult) error
	ListClassOrdered(ctx context.Context, schoolID, examID, classID string) ([]models.ExamResult, error)
	UpdateRanks(ctx context.Context, orderedIDs []string) error
	FindByExamStudent(ctx context.Context, schoolID, examID, studentID string) (*models.ExamResult, error)
	List(ctx context.Context, filter models.ResultFilter) ([]models.ExamResult, error)
	Publish(ctx context.Context, schoolID, examID string) (int, error)
}

type resultMarksRepo interface {
	CountDraft(ctx context.Context, schoolID, examID string) (int, error)
	ListNonDraftByExam(ctx context.Context, schoolID, examID string) ([]models.ExamMark, error)
}

type gradeResolver interface {
	RulesForScope(ctx context.Context, schoolID, sessionID string) ([]models.GradingRule, error)
	Resolve(rules []models.GradingRule, percentage float64) *models.GradingRule
}

type resultCache interface {
	GetStudent(ctx context.Context, schoolID, examID, studentID string) (*models.ExamResult, bool, error)
	SetStudent(ctx context.Context, result *models.ExamResult, ttl time.Duration) error
	InvalidateExam(ctx context.Context, schoolID, examID string) error
}

// ResultService computes, ranks and publishes exam results. Results are a
// pure derivation of marks and paper totals: regeneration overwrites the
// previous rows for an exam rather than appending to them.
type ResultService struct {
	results  resultRepo
	marks    resultMarksRepo
	papers   paperTotalsRepo
	grading  gradeResolver
	cache    resultCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewResultService constructs ResultService. A nil cache disables read-side
// result caching.
func NewResultService(results resultRepo, marks resultMarksRepo, papers paperTotalsRepo, grading gradeResolver, cache resultCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{results: results, marks: marks, papers: papers, grading: grading, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// Generate runs a full generation pass for an exam. It refuses to run while
// any mark of the exam is still in DRAFT. Students with no marks at all, or
// whose subjects sum to a zero total, are skipped rather than given a zero
// result. Grades come from the school's rules for the session; when no rule
// covers a percentage the grade stays nil. Ranks are strict sequential 1..N
// per class, ties broken by the class ordering.
func (s *ResultService) Generate(ctx context.Context, schoolID, sessionID, examID string) (*models.GenerateResultsSummary, error) {
	drafts, err := s.marks.CountDraft(ctx, schoolID, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count draft marks")
	}
	if drafts > 0 {
		return nil, appErrors.Clone(appErrors.ErrResultsNotReady, "exam has marks still in draft")
	}

	started := time.Now()
	marks, err := s.marks.ListNonDraftByExam(ctx, schoolID, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}

	rules, err := s.grading.RulesForScope(ctx, schoolID, sessionID)
	if err != nil {
		return nil, err
	}

	byClass := make(map[string][]models.ExamMark)
	for _, m := range marks {
		byClass[m.ClassID] = append(byClass[m.ClassID], m)
	}

	summary := &models.GenerateResultsSummary{}
	var batch []models.ExamResult
	computedAt := time.Now().UTC()

	classIDs := make([]string, 0, len(byClass))
	for classID := range byClass {
		classIDs = append(classIDs, classID)
	}
	sort.Strings(classIDs)

	for _, classID := range classIDs {
		totals, err := s.papers.TotalsByExamClass(ctx, schoolID, examID, classID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper totals")
		}
		results, skipped := s.computeClass(schoolID, examID, classID, byClass[classID], totals, rules, computedAt)
		batch = append(batch, results...)
		summary.Computed += len(results)
		summary.Skipped += skipped
		summary.Classes++
	}

	if err := s.results.UpsertBatch(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store results")
	}

	for _, classID := range classIDs {
		ordered, err := s.results.ListClassOrdered(ctx, schoolID, examID, classID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to order class results")
		}
		ids := make([]string, len(ordered))
		for i, r := range ordered {
			ids[i] = r.ID
		}
		if err := s.results.UpdateRanks(ctx, ids); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign ranks")
		}
	}

	s.evictExam(ctx, schoolID, examID)

	if s.metrics != nil {
		s.metrics.ObserveResultsGeneration(time.Since(started))
	}
	s.logger.Info("results generated",
		zap.String("exam_id", examID),
		zap.Int("computed", summary.Computed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("classes", summary.Classes))
	return summary, nil
}

// computeClass folds one class's marks into per-student results. A skipped
// student is one whose subjects carry a zero combined total.
func (s *ResultService) computeClass(schoolID, examID, classID string, marks []models.ExamMark, totals models.PaperTotals, rules []models.GradingRule, computedAt time.Time) ([]models.ExamResult, int) {
	byStudent := make(map[string][]models.ExamMark)
	studentIDs := make([]string, 0)
	for _, m := range marks {
		if _, seen := byStudent[m.StudentID]; !seen {
			studentIDs = append(studentIDs, m.StudentID)
		}
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
	}
	sort.Strings(studentIDs)

	results := make([]models.ExamResult, 0, len(studentIDs))
	skipped := 0
	for _, studentID := range studentIDs {
		var obtained, total float64
		lines := make([]models.ResultSubjectLine, 0, len(byStudent[studentID]))
		for _, m := range byStudent[studentID] {
			subjectTotal := totals[m.SubjectID]
			total += subjectTotal
			if !m.IsAbsent {
				obtained += m.MarksObtained
			}
			lines = append(lines, models.ResultSubjectLine{
				SubjectID:     m.SubjectID,
				MarksObtained: m.MarksObtained,
				TotalMarks:    subjectTotal,
				IsAbsent:      m.IsAbsent,
			})
		}
		if total == 0 {
			skipped++
			continue
		}

		percentage := roundPercent(obtained / total * 100)
		result := models.ExamResult{
			SchoolID:      schoolID,
			ExamID:        examID,
			ClassID:       classID,
			StudentID:     studentID,
			TotalObtained: obtained,
			TotalMarks:    total,
			Percentage:    percentage,
			Status:        models.ResultStatusComputed,
			ComputedAt:    computedAt,
		}
		if rule := s.grading.Resolve(rules, percentage); rule != nil {
			grade := rule.Grade
			result.Grade = &grade
			result.GPA = rule.GPA
		}
		snapshot, err := json.Marshal(models.ResultSnapshot{Subjects: lines, ComputedAt: computedAt})
		if err == nil {
			result.Snapshot = snapshot
		}
		results = append(results, result)
	}
	return results, skipped
}

// Publish flips the exam's computed results to PUBLISHED and announces them.
// Publishing an exam with nothing computed is a no-op with a zero count.
func (s *ResultService) Publish(ctx context.Context, schoolID, actorID, examID string) (int, []models.NotificationEvent, error) {
	count, err := s.results.Publish(ctx, schoolID, examID)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish results")
	}
	s.evictExam(ctx, schoolID, examID)
	var events []models.NotificationEvent
	if count > 0 {
		if s.metrics != nil {
			s.metrics.IncWorkflowTransition("result", "publish")
		}
		role := models.RoleStudent
		events = append(events, models.NotificationEvent{
			SchoolID:      schoolID,
			Type:          models.NotificationResultsReady,
			ReferenceType: "exam",
			ReferenceID:   examID,
			Trigger:       actorID,
			RecipientRole: &role,
		})
	}
	return count, events, nil
}

// List returns results matching the filter.
func (s *ResultService) List(ctx context.Context, filter models.ResultFilter) ([]models.ExamResult, error) {
	results, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// StudentResult loads one student's result for an exam, consulting the cache
// first. Cache failures fall through to the database.
func (s *ResultService) StudentResult(ctx context.Context, schoolID, examID, studentID string) (*models.ExamResult, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetStudent(ctx, schoolID, examID, studentID)
		if err != nil {
			s.logger.Warn("result cache read failed", zap.String("exam_id", examID), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}
	result, err := s.results.FindByExamStudent(ctx, schoolID, examID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	if s.cache != nil {
		if err := s.cache.SetStudent(ctx, result, s.cacheTTL); err != nil {
			s.logger.Warn("result cache write failed", zap.String("exam_id", examID), zap.Error(err))
		}
	}
	return result, nil
}

// evictExam drops the exam's cached results after any pass that rewrites them.
func (s *ResultService) evictExam(ctx context.Context, schoolID, examID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateExam(ctx, schoolID, examID); err != nil {
		s.logger.Warn("result cache invalidation failed", zap.String("exam_id", examID), zap.Error(err))
	}
}

// roundPercent rounds half away from zero to two decimal places.
func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
