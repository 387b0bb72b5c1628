package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// GradingRuleRepository persists percentage-to-grade range rules.
type GradingRuleRepository struct {
	db *sqlx.DB
}

// NewGradingRuleRepository creates a new grading rule repository.
func NewGradingRuleRepository(db *sqlx.DB) *GradingRuleRepository {
	return &GradingRuleRepository{db: db}
}

const gradingRuleColumns = "id, school_id, session_id, min_percentage, max_percentage, grade, gpa, created_at, updated_at"

// Create inserts a rule.
func (r *GradingRuleRepository) Create(ctx context.Context, rule *models.GradingRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	const query = `INSERT INTO grading_rules (id, school_id, session_id, min_percentage, max_percentage, grade, gpa, created_at, updated_at)
        VALUES (:id, :school_id, :session_id, :min_percentage, :max_percentage, :grade, :gpa, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create grading rule: %w", err)
	}
	return nil
}

// Update rewrites a rule's range and grade.
func (r *GradingRuleRepository) Update(ctx context.Context, rule *models.GradingRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grading_rules SET session_id = :session_id, min_percentage = :min_percentage,
                max_percentage = :max_percentage, grade = :grade, gpa = :gpa, updated_at = :updated_at
        WHERE school_id = :school_id AND id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update grading rule: %w", err)
	}
	return nil
}

// Delete removes a rule.
func (r *GradingRuleRepository) Delete(ctx context.Context, schoolID, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM grading_rules WHERE school_id = $1 AND id = $2", schoolID, id); err != nil {
		return fmt.Errorf("delete grading rule: %w", err)
	}
	return nil
}

// List returns a school's rules, session-scoped rules first, then by range.
func (r *GradingRuleRepository) List(ctx context.Context, schoolID string) ([]models.GradingRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM grading_rules WHERE school_id = $1
        ORDER BY session_id NULLS LAST, min_percentage DESC`, gradingRuleColumns)
	var rules []models.GradingRule
	if err := r.db.SelectContext(ctx, &rules, query, schoolID); err != nil {
		return nil, fmt.Errorf("list grading rules: %w", err)
	}
	return rules, nil
}

// FindForScope returns the rules applicable to a school+session: rules bound
// to the session plus the school's session-null globals. Session rows sort
// first so the resolver's first range hit wins.
func (r *GradingRuleRepository) FindForScope(ctx context.Context, schoolID, sessionID string) ([]models.GradingRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM grading_rules
        WHERE school_id = $1 AND (session_id = $2 OR session_id IS NULL)
        ORDER BY session_id NULLS LAST, min_percentage DESC`, gradingRuleColumns)
	var rules []models.GradingRule
	if err := r.db.SelectContext(ctx, &rules, query, schoolID, sessionID); err != nil {
		return nil, fmt.Errorf("find grading rules: %w", err)
	}
	return rules, nil
}
