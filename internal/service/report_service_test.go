package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/punch-attendance/internal/dto"
	"github.com/noah-isme/punch-attendance/internal/models"
	"github.com/noah-isme/punch-attendance/internal/repository"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/jobs"
	"github.com/noah-isme/punch-attendance/pkg/mailer"
)

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type mailerStub struct {
	err  error
	to   []string
	sent []mailer.Attachment
}

func (m *mailerStub) SendReport(ctx context.Context, to string, attachment mailer.Attachment) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, attachment)
	return nil
}

type reportHarness struct {
	repo    *repository.MemoryReportJobRepository
	queue   *queueStub
	mail    *mailerStub
	service *ReportService
	worker  *ReportWorker
}

func newReportHarness(t *testing.T) *reportHarness {
	t.Helper()
	exporter, _ := newExportServiceForTest(t)
	attendance := NewAttendanceService(time.UTC, nil, nil, zap.NewNop())
	h := &reportHarness{
		repo:  repository.NewMemoryReportJobRepository(),
		queue: &queueStub{},
		mail:  &mailerStub{},
	}
	h.service = NewReportService(h.repo, attendance, h.queue, exporter, nil, nil, zap.NewNop(), ReportServiceConfig{ResultTTL: time.Hour})
	h.worker = NewReportWorker(h.repo, attendance, exporter, h.mail, nil, zap.NewNop())
	return h
}

const punchCSV = "Name,Date/Time\nA,2024-03-04 08:00:00\nA,2024-03-04 12:15:00\nB,bad\n"

func TestReportServiceCreateAndProcess(t *testing.T) {
	h := newReportHarness(t)
	ctx := context.Background()

	resp, err := h.service.CreateJob(ctx, dto.ReportRequest{Format: "csv", Category: "full-time", Recipient: "hr@example.com"}, "punches.csv", []byte(punchCSV))
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, h.queue.jobs, 1)

	require.NoError(t, h.worker.Handle(ctx, h.queue.jobs[0]))

	status, err := h.service.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, 1, status.SummaryCount)
	assert.Equal(t, 1, status.SkippedRows)
	assert.Equal(t, models.EmailStatusSent, status.EmailStatus)
	require.NotNil(t, status.ResultURL)

	require.Len(t, h.mail.sent, 1)
	assert.Equal(t, []string{"hr@example.com"}, h.mail.to)
	assert.Equal(t, "text/csv", h.mail.sent[0].ContentType)
	assert.Contains(t, string(h.mail.sent[0].Data), "Leave Early")

	download, err := h.service.ResolveDownload(ctx, extractToken(*status.ResultURL))
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "A,2024-03-04,08:00:00,12:15:00")
	assert.Equal(t, models.ReportFormatCSV, download.Format)
}

func TestReportServiceCreateValidation(t *testing.T) {
	h := newReportHarness(t)
	ctx := context.Background()

	_, err := h.service.CreateJob(ctx, dto.ReportRequest{Format: "docx", Category: "Full-Time"}, "p.csv", []byte(punchCSV))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = h.service.CreateJob(ctx, dto.ReportRequest{Recipient: "not-an-email", Category: "Full-Time"}, "p.csv", []byte(punchCSV))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = h.service.CreateJob(ctx, dto.ReportRequest{}, "p.csv", []byte(punchCSV))
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCategory))

	_, err = h.service.CreateJob(ctx, dto.ReportRequest{Category: "Part-Time"}, "p.csv", []byte("Badge,When\n1,2\n"))
	assert.True(t, errors.Is(err, appErrors.ErrSchema))

	_, err = h.service.CreateJob(ctx, dto.ReportRequest{Category: "Part-Time"}, "p.xls", []byte(punchCSV))
	assert.True(t, errors.Is(err, appErrors.ErrUnsupportedFormat))

	assert.Empty(t, h.queue.jobs)
}

func TestReportServiceEnqueueFailureMarksJobFailed(t *testing.T) {
	h := newReportHarness(t)
	h.queue.err = errors.New("queue closed")

	_, err := h.service.CreateJob(context.Background(), dto.ReportRequest{Category: "Full-Time"}, "p.csv", []byte(punchCSV))
	require.Error(t, err)

	pending, err := h.repo.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReportWorkerEmailSkippedAndFailed(t *testing.T) {
	h := newReportHarness(t)
	ctx := context.Background()

	h.mail.err = mailer.ErrNotConfigured
	resp, err := h.service.CreateJob(ctx, dto.ReportRequest{Category: "Full-Time", Recipient: "hr@example.com"}, "p.csv", []byte(punchCSV))
	require.NoError(t, err)
	require.NoError(t, h.worker.Handle(ctx, h.queue.jobs[0]))
	status, err := h.service.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmailStatusSkipped, status.EmailStatus)
	assert.Equal(t, models.ReportFormatXLSX, status.Format)

	h.mail.err = errors.New("smtp down")
	resp, err = h.service.CreateJob(ctx, dto.ReportRequest{Category: "Full-Time", Recipient: "hr@example.com"}, "p.csv", []byte(punchCSV))
	require.NoError(t, err)
	require.NoError(t, h.worker.Handle(ctx, h.queue.jobs[1]))
	status, err = h.service.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, status.Status)
	assert.Equal(t, models.EmailStatusFailed, status.EmailStatus)
}

func TestReportWorkerTransientFailureRequeues(t *testing.T) {
	h := newReportHarness(t)
	ctx := context.Background()
	resp, err := h.service.CreateJob(ctx, dto.ReportRequest{Category: "Full-Time"}, "p.csv", []byte(punchCSV))
	require.NoError(t, err)

	job, err := h.repo.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.NoError(t, h.service.exporter.Delete(job.Params.UploadPath))

	err = h.worker.Handle(ctx, h.queue.jobs[0])
	require.Error(t, err)
	status, err := h.service.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, status.Status)
	require.NotNil(t, status.Error)

	h.service.HandleDiscarded(ctx, h.queue.jobs[0], errors.New("gave up"))
	status, err = h.service.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, status.Status)
	assert.Equal(t, "gave up", *status.Error)

	// Terminal jobs are not processed again.
	require.NoError(t, h.worker.Handle(ctx, h.queue.jobs[0]))
}

func TestReportServiceDownloadRejectsBadTokens(t *testing.T) {
	h := newReportHarness(t)
	_, err := h.service.ResolveDownload(context.Background(), "garbage")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = h.service.GetStatus(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReportServiceRecoverInterruptedJob(t *testing.T) {
	h := newReportHarness(t)
	ctx := context.Background()
	resp, err := h.service.CreateJob(ctx, dto.ReportRequest{Category: "Full-Time"}, "p.csv", []byte(punchCSV))
	require.NoError(t, err)

	processing, progress := models.ReportStatusProcessing, 40
	require.NoError(t, h.repo.Update(ctx, resp.ID, models.UpdateReportJobParams{Status: &processing, Progress: &progress}))
	h.queue.jobs = nil

	h.service.RecoverPendingJobs(ctx)
	require.Len(t, h.queue.jobs, 1)
	assert.Equal(t, resp.ID, h.queue.jobs[0].ID)

	job, err := h.repo.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.Equal(t, 0, job.Progress)

	require.NoError(t, h.worker.Handle(ctx, h.queue.jobs[0]))
	job, err = h.repo.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, job.Status)
}

func TestReportServiceRecoverAndCleanup(t *testing.T) {
	h := newReportHarness(t)
	ctx := context.Background()
	resp, err := h.service.CreateJob(ctx, dto.ReportRequest{Category: "Full-Time"}, "p.csv", []byte(punchCSV))
	require.NoError(t, err)

	h.service.RecoverPendingJobs(ctx)
	require.Len(t, h.queue.jobs, 2)
	assert.Equal(t, resp.ID, h.queue.jobs[1].ID)

	require.NoError(t, h.worker.Handle(ctx, h.queue.jobs[0]))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, h.repo.Update(ctx, resp.ID, models.UpdateReportJobParams{FinishedAt: &old}))

	h.service.CleanupExpired(ctx)
	_, err = h.service.GetStatus(ctx, resp.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
