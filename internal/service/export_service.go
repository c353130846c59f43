package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/punch-attendance/internal/dto"
	"github.com/noah-isme/punch-attendance/internal/models"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/export"
	"github.com/noah-isme/punch-attendance/pkg/storage"
)

const reportTitle = "Attendance Report"

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata. Data holds the rendered document.
type ExportResult struct {
	RelativePath string
	Filename     string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
	Data         []byte
}

// ExportService renders summary datasets and persists the documents behind signed URLs.
type ExportService struct {
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[models.ReportFormat]export.Renderer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV, XLSX and PDF renderers. store and signer
// may be nil when only Render is needed.
func NewExportService(store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		storage: store,
		signer:  signer,
		renderers: map[models.ReportFormat]export.Renderer{
			models.ReportFormatCSV:  export.NewCSVExporter(),
			models.ReportFormatXLSX: export.NewXLSXExporter(),
			models.ReportFormatPDF:  export.NewPDFExporter(),
		},
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// SummaryDataset lays summaries out in display column order.
func SummaryDataset(summaries []models.AttendanceSummary) export.Dataset {
	rows := dto.NewSummaryRows(summaries)
	data := export.Dataset{Title: reportTitle, Headers: dto.SummaryHeaders, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		data.Rows = append(data.Rows, row.Cells())
	}
	return data
}

// Render encodes summaries in the requested format.
func (s *ExportService) Render(format models.ReportFormat, summaries []models.AttendanceSummary) ([]byte, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported report format %q", format))
	}
	return renderer.Render(SummaryDataset(summaries))
}

// ReportFilename derives the download name from the uploaded source name.
func ReportFilename(source string, format models.ReportFormat, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return fmt.Sprintf("%s_attendance_%s.%s", sanitizeFilename(base), at.UTC().Format("20060102_150405"), format)
}

// StoreUpload keeps the raw punch file so the job can be replayed after a restart.
func (s *ExportService) StoreUpload(jobID, filename string, data []byte) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("export storage not configured")
	}
	name := path.Join("uploads", jobID, sanitizeFilename(filepath.Base(filename)))
	return s.storage.Save(name, data)
}

// Generate renders summaries for the job, stores the document and signs a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob, summaries []models.AttendanceSummary) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if s.storage == nil || s.signer == nil {
		return nil, fmt.Errorf("export storage not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := s.Render(job.Params.Format, summaries)
	if err != nil {
		return nil, err
	}

	filename := ReportFilename(job.Params.SourceName, job.Params.Format, s.now())
	relPath, err := s.storage.Save(path.Join("reports", job.ID, filename), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Debug("report stored", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))

	return &ExportResult{
		RelativePath: relPath,
		Filename:     filename,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
		Data:         payload,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Claims, error) {
	if s.signer == nil {
		return storage.Claims{}, storage.ErrTokenSignature
	}
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to a stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, defaulting to the configured ResultTTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ReadAll loads a stored file into memory.
func (s *ExportService) ReadAll(relPath string) ([]byte, error) {
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(file); err != nil {
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}
	return buf.Bytes(), nil
}

func sanitizeFilename(raw string) string {
	if raw == "" || raw == "." {
		return "punches"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
