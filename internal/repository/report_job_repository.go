package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/punch-attendance/internal/models"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
)

// ReportJobStore is implemented by the memory and redis backed job stores.
type ReportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params models.UpdateReportJobParams) error
	Delete(ctx context.Context, id string) error
	ListPending(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

var (
	_ ReportJobStore = (*MemoryReportJobRepository)(nil)
	_ ReportJobStore = (*RedisReportJobRepository)(nil)
)

func prepareJob(job *models.ReportJob) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
}

func jobNotFound(id string) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("report job %s not found", id))
}

func pending(job models.ReportJob) bool {
	return job.Status == models.ReportStatusQueued || job.Status == models.ReportStatusProcessing
}

func finishedBefore(job models.ReportJob, cutoff time.Time) bool {
	if job.Status != models.ReportStatusFinished && job.Status != models.ReportStatusFailed {
		return false
	}
	return job.FinishedAt != nil && job.FinishedAt.Before(cutoff)
}

// MemoryReportJobRepository keeps report jobs in process memory.
type MemoryReportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ReportJob
}

// NewMemoryReportJobRepository constructs an empty in-memory store.
func NewMemoryReportJobRepository() *MemoryReportJobRepository {
	return &MemoryReportJobRepository{jobs: make(map[string]models.ReportJob)}
}

// Create stores a new job, filling in ID, status and creation time when unset.
func (r *MemoryReportJobRepository) Create(ctx context.Context, job *models.ReportJob) error {
	prepareJob(job)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("create report job: duplicate id %s", job.ID)
	}
	r.jobs[job.ID] = *job
	return nil
}

// GetByID returns a copy of the job.
func (r *MemoryReportJobRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, jobNotFound(id)
	}
	return &job, nil
}

// Update applies the non-nil fields of params.
func (r *MemoryReportJobRepository) Update(ctx context.Context, id string, params models.UpdateReportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return jobNotFound(id)
	}
	params.Apply(&job)
	r.jobs[id] = job
	return nil
}

// Delete drops a job; unknown ids are ignored.
func (r *MemoryReportJobRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

// ListPending returns jobs that are queued or were left processing, oldest first.
func (r *MemoryReportJobRepository) ListPending(ctx context.Context, limit int) ([]models.ReportJob, error) {
	return r.list(limit, pending), nil
}

// ListFinishedBefore returns terminal jobs that finished before cutoff, oldest first.
func (r *MemoryReportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return r.list(limit, func(job models.ReportJob) bool { return finishedBefore(job, cutoff) }), nil
}

func (r *MemoryReportJobRepository) list(limit int, keep func(models.ReportJob) bool) []models.ReportJob {
	r.mu.RLock()
	out := make([]models.ReportJob, 0)
	for _, job := range r.jobs {
		if keep(job) {
			out = append(out, job)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

const (
	reportJobKeyPrefix = "report_job:"
	reportJobIndex     = "report_jobs"
)

// RedisReportJobRepository stores report jobs as JSON documents that expire after ttl.
type RedisReportJobRepository struct {
	cache  *CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisReportJobRepository constructs the shared store.
func NewRedisReportJobRepository(cache *CacheRepository, ttl time.Duration, logger *zap.Logger) *RedisReportJobRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisReportJobRepository{cache: cache, ttl: ttl, logger: logger}
}

func reportJobKey(id string) string {
	return reportJobKeyPrefix + id
}

// Create stores a new job and indexes it by creation time.
func (r *RedisReportJobRepository) Create(ctx context.Context, job *models.ReportJob) error {
	prepareJob(job)
	if err := r.cache.Set(ctx, reportJobKey(job.ID), job, r.ttl); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	if err := r.cache.Index(ctx, reportJobIndex, job.ID, float64(job.CreatedAt.UnixMicro())); err != nil {
		return fmt.Errorf("index report job: %w", err)
	}
	return nil
}

// GetByID loads a job document.
func (r *RedisReportJobRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.cache.Get(ctx, reportJobKey(id), &job); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, jobNotFound(id)
		}
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// Update applies params atomically with respect to other writers.
func (r *RedisReportJobRepository) Update(ctx context.Context, id string, params models.UpdateReportJobParams) error {
	var job models.ReportJob
	err := r.cache.Mutate(ctx, reportJobKey(id), &job, r.ttl, func() error {
		params.Apply(&job)
		return nil
	})
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return jobNotFound(id)
	}
	if err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}

// Delete removes the job document and its index entry.
func (r *RedisReportJobRepository) Delete(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, reportJobKey(id)); err != nil {
		return err
	}
	return r.cache.Unindex(ctx, reportJobIndex, id)
}

// ListPending returns jobs that are queued or were left processing, oldest first.
func (r *RedisReportJobRepository) ListPending(ctx context.Context, limit int) ([]models.ReportJob, error) {
	return r.list(ctx, limit, pending)
}

// ListFinishedBefore returns terminal jobs that finished before cutoff, oldest first.
func (r *RedisReportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return r.list(ctx, limit, func(job models.ReportJob) bool { return finishedBefore(job, cutoff) })
}

// list walks the index in creation order. Index entries whose document has expired are pruned.
func (r *RedisReportJobRepository) list(ctx context.Context, limit int, keep func(models.ReportJob) bool) ([]models.ReportJob, error) {
	ids, err := r.cache.IndexMembers(ctx, reportJobIndex)
	if err != nil {
		return nil, err
	}
	out := make([]models.ReportJob, 0)
	var stale []string
	for _, id := range ids {
		var job models.ReportJob
		if err := r.cache.Get(ctx, reportJobKey(id), &job); err != nil {
			if errors.Is(err, appErrors.ErrCacheMiss) {
				stale = append(stale, id)
				continue
			}
			return nil, err
		}
		if !keep(job) {
			continue
		}
		out = append(out, job)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if len(stale) > 0 {
		if err := r.cache.Unindex(ctx, reportJobIndex, stale...); err != nil {
			r.logger.Warn("failed to prune expired report jobs from index", zap.Int("count", len(stale)), zap.Error(err))
		}
	}
	return out, nil
}
