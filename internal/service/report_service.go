package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/punch-attendance/internal/dto"
	"github.com/noah-isme/punch-attendance/internal/models"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/ingest"
	"github.com/noah-isme/punch-attendance/pkg/jobs"
	"github.com/noah-isme/punch-attendance/pkg/mailer"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params models.UpdateReportJobParams) error
	Delete(ctx context.Context, id string) error
	ListPending(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type punchProcessor interface {
	ResolveDefaultCategory(table ingest.Table, raw string) (string, error)
	Process(ctx context.Context, table ingest.Table, defaultCategory string) (*models.BatchResult, error)
}

type reportMailer interface {
	SendReport(ctx context.Context, to string, attachment mailer.Attachment) error
}

type reportMetrics interface {
	ObserveReportJob(status models.ReportStatus)
	ObserveEmail(status models.EmailStatus)
}

type noopReportMetrics struct{}

func (noopReportMetrics) ObserveReportJob(models.ReportStatus) {}
func (noopReportMetrics) ObserveEmail(models.EmailStatus)      {}

// ReportService orchestrates report job lifecycle management.
type ReportService struct {
	repo       reportJobStore
	attendance punchProcessor
	queue      jobDispatcher
	exporter   *ExportService
	validator  *validator.Validate
	metrics    reportMetrics
	logger     *zap.Logger
	cfg        ReportServiceConfig
}

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// NewReportService constructs the report service. metrics may be nil.
func NewReportService(repo reportJobStore, attendance punchProcessor, queue jobDispatcher, exporter *ExportService, validate *validator.Validate, metrics reportMetrics, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = validator.New()
		RegisterValidators(validate)
	}
	if metrics == nil {
		metrics = noopReportMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		repo:       repo,
		attendance: attendance,
		queue:      queue,
		exporter:   exporter,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// CreateJob checks the upload synchronously, stores it and enqueues report generation.
// Structural problems in the file are reported here rather than as a failed job.
func (s *ReportService) CreateJob(ctx context.Context, req dto.ReportRequest, filename string, data []byte) (*dto.ReportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	format, _ := models.ParseReportFormat(req.Format)

	table, err := ingest.Read(filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := CheckSchema(table); err != nil {
		return nil, err
	}
	category, err := s.attendance.ResolveDefaultCategory(table, req.Category)
	if err != nil {
		return nil, err
	}

	job := &models.ReportJob{
		ID:     uuid.NewString(),
		Status: models.ReportStatusQueued,
		Params: models.ReportJobParams{
			SourceName: filepath.Base(filename),
			Format:     format,
			Category:   category,
			Recipient:  strings.TrimSpace(req.Recipient),
		},
	}
	uploadPath, err := s.exporter.StoreUpload(job.ID, filename, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	job.Params.UploadPath = uploadPath

	if err := s.repo.Create(ctx, job); err != nil {
		_ = s.exporter.Delete(uploadPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	s.metrics.ObserveReportJob(models.ReportStatusQueued)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID}); err != nil {
		s.markFailed(ctx, job.ID, "failed to enqueue job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("format", string(format)), zap.Bool("email", job.Params.Recipient != ""))
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata to clients.
func (s *ReportService) GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewReportStatusResponse(job), nil
}

// ResolveDownload validates the token and opens the stored report.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	claims, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, claims.JobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.exporter.Open(claims.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file no longer available")
	}
	return &ReportDownload{
		File:      file,
		Filename:  path.Base(claims.Path),
		Format:    job.Params.Format,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays jobs a previous process left queued or processing, e.g. after a
// restart with the redis store. It must run before this process hands out any job, because every
// processing job it finds is assumed orphaned and is reset to queued.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListPending(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover pending report jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if job.Status == models.ReportStatusProcessing {
			queued, progress := models.ReportStatusQueued, 0
			if err := s.repo.Update(ctx, job.ID, models.UpdateReportJobParams{Status: &queued, Progress: &progress}); err != nil {
				s.logger.Warn("failed to reset interrupted job", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
		}
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID}); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered pending report jobs", zap.Int("count", len(pending)))
	}
}

// HandleDiscarded marks a job failed once the queue has given up retrying it.
func (s *ReportService) HandleDiscarded(ctx context.Context, job jobs.Job, err error) {
	s.markFailed(context.WithoutCancel(ctx), job.ID, err.Error())
}

// StartCleanup boots a goroutine that purges expired reports and uploads periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes terminal jobs older than the result TTL together with their files.
func (s *ReportService) CleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.ResultURL != nil {
			if claims, err := s.exporter.ParseToken(extractToken(*job.ResultURL), true); err == nil {
				if err := s.exporter.Delete(claims.Path); err != nil {
					s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
				}
			}
		}
		if job.Params.UploadPath != "" {
			_ = s.exporter.Delete(job.Params.UploadPath)
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil {
			s.logger.Warn("cleanup job delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

func (s *ReportService) load(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return job, nil
}

func (s *ReportService) markFailed(ctx context.Context, id, msg string) {
	failed := models.ReportStatusFailed
	progress := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, models.UpdateReportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark job failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	s.metrics.ObserveReportJob(models.ReportStatusFailed)
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Sprintf("invalid %s", strings.Join(fields, ", "))
}

// ReportWorker bridges queue jobs to the attendance pipeline, export storage and email.
type ReportWorker struct {
	repo       reportJobStore
	attendance punchProcessor
	exporter   *ExportService
	mailer     reportMailer
	metrics    reportMetrics
	logger     *zap.Logger
}

// NewReportWorker constructs a worker. mail may be nil, in which case deliveries are skipped.
func NewReportWorker(repo reportJobStore, attendance punchProcessor, exporter *ExportService, mail reportMailer, metrics reportMetrics, logger *zap.Logger) *ReportWorker {
	if metrics == nil {
		metrics = noopReportMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWorker{repo: repo, attendance: attendance, exporter: exporter, mailer: mail, metrics: metrics, logger: logger}
}

// Handle processes a queue job. Client errors such as schema problems fail the job at once;
// anything else is returned so the queue retries it.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			w.logger.Warn("dropping job without metadata", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if record.Status == models.ReportStatusFinished || record.Status == models.ReportStatusFailed {
		return nil
	}

	if err := w.progress(ctx, job.ID, models.ReportStatusProcessing, 10); err != nil {
		return err
	}
	w.metrics.ObserveReportJob(models.ReportStatusProcessing)

	result, output, err := w.generate(ctx, record)
	if err != nil {
		if isPermanent(err) {
			w.fail(ctx, job.ID, err)
			return nil
		}
		msg := err.Error()
		queued := models.ReportStatusQueued
		reset := 0
		if updateErr := w.repo.Update(ctx, job.ID, models.UpdateReportJobParams{Status: &queued, Progress: &reset, ErrorMessage: &msg}); updateErr != nil {
			w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	emailStatus := w.deliver(ctx, record, output)

	finished := models.ReportStatusFinished
	progress := 100
	now := time.Now().UTC()
	url := output.URL
	noError := ""
	count := len(result.Summaries)
	if err := w.repo.Update(ctx, job.ID, models.UpdateReportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		SummaryCount: &count,
		SkippedRows:  &result.SkippedRows,
		EmailStatus:  &emailStatus,
		ErrorMessage: &noError,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.ObserveReportJob(models.ReportStatusFinished)
	w.logger.Info("report job finished",
		zap.String("job_id", job.ID),
		zap.Int("summaries", count),
		zap.Int("skipped_rows", result.SkippedRows),
		zap.String("email_status", string(emailStatus)),
	)
	return nil
}

func (w *ReportWorker) generate(ctx context.Context, record *models.ReportJob) (*models.BatchResult, *ExportResult, error) {
	data, err := w.exporter.ReadAll(record.Params.UploadPath)
	if err != nil {
		return nil, nil, err
	}
	table, err := ingest.Read(record.Params.SourceName, bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	result, err := w.attendance.Process(ctx, table, record.Params.Category)
	if err != nil {
		return nil, nil, err
	}
	if err := w.progress(ctx, record.ID, models.ReportStatusProcessing, 50); err != nil {
		return nil, nil, err
	}
	output, err := w.exporter.Generate(ctx, record, result.Summaries)
	if err != nil {
		return nil, nil, err
	}
	if err := w.progress(ctx, record.ID, models.ReportStatusProcessing, 80); err != nil {
		return nil, nil, err
	}
	return result, output, nil
}

func (w *ReportWorker) deliver(ctx context.Context, record *models.ReportJob, output *ExportResult) models.EmailStatus {
	if record.Params.Recipient == "" {
		return models.EmailStatusNone
	}
	status := models.EmailStatusSent
	if w.mailer == nil {
		status = models.EmailStatusSkipped
	} else {
		err := w.mailer.SendReport(ctx, record.Params.Recipient, mailer.Attachment{
			Filename:    output.Filename,
			ContentType: output.Format.ContentType(),
			Data:        output.Data,
		})
		switch {
		case errors.Is(err, mailer.ErrNotConfigured):
			status = models.EmailStatusSkipped
		case err != nil:
			status = models.EmailStatusFailed
			w.logger.Warn("report email failed", zap.String("job_id", record.ID), zap.Error(err))
		}
	}
	w.metrics.ObserveEmail(status)
	return status
}

func (w *ReportWorker) progress(ctx context.Context, id string, status models.ReportStatus, progress int) error {
	return w.repo.Update(ctx, id, models.UpdateReportJobParams{Status: &status, Progress: &progress})
}

func (w *ReportWorker) fail(ctx context.Context, id string, cause error) {
	failed := models.ReportStatusFailed
	progress := 100
	now := time.Now().UTC()
	msg := appErrors.FromError(cause).Message
	if err := w.repo.Update(ctx, id, models.UpdateReportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	w.metrics.ObserveReportJob(models.ReportStatusFailed)
	w.logger.Warn("report job failed", zap.String("job_id", id), zap.Error(cause))
}

func isPermanent(err error) bool {
	var appErr *appErrors.Error
	return errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError
}
