package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/punch-attendance/internal/models"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params models.UpdateReportJobParams) error
	Delete(ctx context.Context, id string) error
	ListPending(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

func newRedisStore(t *testing.T) (*RedisReportJobRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisReportJobRepository(NewCacheRepository(client, zap.NewNop()), time.Hour, zap.NewNop()), srv
}

func stores(t *testing.T) map[string]reportJobStore {
	redisStore, _ := newRedisStore(t)
	return map[string]reportJobStore{
		"memory": NewMemoryReportJobRepository(),
		"redis":  redisStore,
	}
}

func TestReportJobStoreLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := &models.ReportJob{Params: models.ReportJobParams{SourceName: "punches.csv", Format: models.ReportFormatCSV}}
			require.NoError(t, store.Create(ctx, job))
			require.NotEmpty(t, job.ID)
			assert.Equal(t, models.ReportStatusQueued, job.Status)

			status := models.ReportStatusFinished
			url := "/api/v1/export/token"
			emailStatus := models.EmailStatusSkipped
			now := time.Now().UTC()
			require.NoError(t, store.Update(ctx, job.ID, models.UpdateReportJobParams{
				Status:      &status,
				ResultURL:   &url,
				EmailStatus: &emailStatus,
				FinishedAt:  &now,
			}))

			fetched, err := store.GetByID(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ReportStatusFinished, fetched.Status)
			require.NotNil(t, fetched.ResultURL)
			assert.Equal(t, url, *fetched.ResultURL)
			assert.Equal(t, models.EmailStatusSkipped, fetched.EmailStatus)
			assert.Equal(t, "punches.csv", fetched.Params.SourceName)

			require.NoError(t, store.Delete(ctx, job.ID))
			_, err = store.GetByID(ctx, job.ID)
			assert.True(t, errors.Is(err, appErrors.ErrNotFound))
		})
	}
}

func TestReportJobStoreUpdateMissing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			progress := 50
			err := store.Update(context.Background(), "missing", models.UpdateReportJobParams{Progress: &progress})
			assert.True(t, errors.Is(err, appErrors.ErrNotFound))
		})
	}
}

func TestReportJobStoreListings(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().UTC().Add(-time.Hour)
			old := base.Add(-48 * time.Hour)
			jobs := []*models.ReportJob{
				{ID: "q1", CreatedAt: base},
				{ID: "q2", CreatedAt: base.Add(time.Minute), Status: models.ReportStatusProcessing},
				{ID: "failed", CreatedAt: base.Add(90 * time.Second), Status: models.ReportStatusFailed, FinishedAt: &base},
				{ID: "done", CreatedAt: base.Add(2 * time.Minute), Status: models.ReportStatusFinished, FinishedAt: &old},
				{ID: "fresh", CreatedAt: base.Add(3 * time.Minute), Status: models.ReportStatusFinished, FinishedAt: &base},
			}
			for _, job := range jobs {
				require.NoError(t, store.Create(ctx, job))
			}

			pending, err := store.ListPending(ctx, 10)
			require.NoError(t, err)
			require.Len(t, pending, 2)
			assert.Equal(t, "q1", pending[0].ID)
			assert.Equal(t, "q2", pending[1].ID)
			assert.Equal(t, models.ReportStatusProcessing, pending[1].Status)

			limited, err := store.ListPending(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, limited, 1)

			finished, err := store.ListFinishedBefore(ctx, time.Now().Add(-24*time.Hour), 10)
			require.NoError(t, err)
			require.Len(t, finished, 1)
			assert.Equal(t, "done", finished[0].ID)
		})
	}
}

func TestRedisReportJobRepositoryExpiry(t *testing.T) {
	store, srv := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &models.ReportJob{ID: "short"}))

	srv.FastForward(2 * time.Hour)

	_, err := store.GetByID(ctx, "short")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	members, err := srv.ZMembers(reportJobIndex)
	if err == nil {
		assert.Empty(t, members)
	}
}
