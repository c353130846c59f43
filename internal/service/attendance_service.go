package service

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/punch-attendance/internal/models"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/ingest"
)

type batchMetrics interface {
	ObserveBatch(result *models.BatchResult, duration time.Duration)
}

// AttendanceService turns punch tables into per person, per day summaries.
type AttendanceService struct {
	normalizer *Normalizer
	validator  *validator.Validate
	metrics    batchMetrics
	logger     *zap.Logger
}

// NewAttendanceService constructs the attendance service. loc is the zone applied to timestamps
// that carry no offset.
func NewAttendanceService(loc *time.Location, validate *validator.Validate, metrics batchMetrics, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	RegisterValidators(validate)
	return &AttendanceService{
		normalizer: NewNormalizer(loc),
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
	}
}

// ResolveDefaultCategory validates the batch default category. It is mandatory only when the table
// has no category column; otherwise an unrecognised value is ignored and rows fall back to full-time.
func (s *AttendanceService) ResolveDefaultCategory(table ingest.Table, raw string) (string, error) {
	if HasCategoryColumn(table) {
		category, _ := models.ParseCategory(raw)
		return category, nil
	}
	if err := s.validator.Var(raw, "required,employment_category"); err != nil {
		return "", appErrors.Clone(appErrors.ErrInvalidCategory, "file has no category column; employment category must be Full-Time or Part-Time")
	}
	category, _ := models.ParseCategory(raw)
	return category, nil
}

// ProcessFile reads an uploaded punch export and processes it.
func (s *AttendanceService) ProcessFile(ctx context.Context, filename string, r io.Reader, category string) (*models.BatchResult, error) {
	table, err := ingest.Read(filename, r)
	if err != nil {
		return nil, err
	}
	defaultCategory, err := s.ResolveDefaultCategory(table, category)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, table, defaultCategory)
}

// Process normalises, classifies and aggregates one batch. A schema error aborts the whole batch;
// unusable rows are skipped and reported as warnings.
func (s *AttendanceService) Process(ctx context.Context, table ingest.Table, defaultCategory string) (*models.BatchResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, warnings, err := s.normalizer.Normalize(table, defaultCategory)
	if err != nil {
		s.observe(nil, start)
		return nil, err
	}
	classified := ClassifyAll(records)
	if err := ctx.Err(); err != nil {
		s.observe(nil, start)
		return nil, err
	}

	result := &models.BatchResult{
		Summaries:   Aggregate(classified),
		TotalRows:   len(table.Rows),
		ValidRows:   len(classified),
		SkippedRows: len(table.Rows) - len(classified),
		Warnings:    warnings,
	}

	for _, w := range warnings {
		s.logger.Debug("punch row skipped", zap.Int("row", w.Row), zap.String("field", w.Field), zap.String("value", w.Value), zap.String("reason", w.Reason))
	}
	s.logger.Info("attendance batch processed",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("valid_rows", result.ValidRows),
		zap.Int("skipped_rows", result.SkippedRows),
		zap.Int("summaries", len(result.Summaries)),
		zap.Duration("duration", time.Since(start)),
	)
	s.observe(result, start)
	return result, nil
}

func (s *AttendanceService) observe(result *models.BatchResult, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveBatch(result, time.Since(start))
}
