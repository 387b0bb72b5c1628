package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// ResultCacheRepository keeps published result rows in Redis so report-card
// reads do not hit Postgres on every refresh. Entries are invalidated
// wholesale per exam whenever a generation or publish pass runs.
type ResultCacheRepository struct {
	client *redis.Client
}

// NewResultCacheRepository constructs a ResultCacheRepository.
func NewResultCacheRepository(client *redis.Client) *ResultCacheRepository {
	return &ResultCacheRepository{client: client}
}

func resultCacheKey(schoolID, examID, studentID string) string {
	return fmt.Sprintf("results:%s:%s:%s", schoolID, examID, studentID)
}

// GetStudent returns the cached result for one student, with a hit flag.
// Cache trouble is reported as an error, never as a stale hit.
func (r *ResultCacheRepository) GetStudent(ctx context.Context, schoolID, examID, studentID string) (*models.ExamResult, bool, error) {
	if r.client == nil {
		return nil, false, nil
	}
	raw, err := r.client.Get(ctx, resultCacheKey(schoolID, examID, studentID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached result: %w", err)
	}
	var result models.ExamResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

// SetStudent caches one student's result for the given TTL.
func (r *ResultCacheRepository) SetStudent(ctx context.Context, result *models.ExamResult, ttl time.Duration) error {
	if r.client == nil || result == nil {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result for cache: %w", err)
	}
	key := resultCacheKey(result.SchoolID, result.ExamID, result.StudentID)
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache result %s: %w", key, err)
	}
	return nil
}

// InvalidateExam drops every cached result of one exam.
func (r *ResultCacheRepository) InvalidateExam(ctx context.Context, schoolID, examID string) error {
	if r.client == nil {
		return nil
	}
	pattern := fmt.Sprintf("results:%s:%s:*", schoolID, examID)
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("evict cached result %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached results for exam %s: %w", examID, err)
	}
	return nil
}
