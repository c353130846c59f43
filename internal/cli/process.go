package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/punch-attendance/internal/dto"
	"github.com/noah-isme/punch-attendance/internal/models"
	"github.com/noah-isme/punch-attendance/internal/service"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/ingest"
	"github.com/noah-isme/punch-attendance/pkg/mailer"
)

type summarizer interface {
	ResolveDefaultCategory(table ingest.Table, raw string) (string, error)
	Process(ctx context.Context, table ingest.Table, defaultCategory string) (*models.BatchResult, error)
}

type documentRenderer interface {
	Render(format models.ReportFormat, summaries []models.AttendanceSummary) ([]byte, error)
}

type reportSender interface {
	SendReport(ctx context.Context, to string, attachment mailer.Attachment) error
}

// ProcessOptions mirrors the process command flags.
type ProcessOptions struct {
	Category string
	Output   string
	Format   string
	Email    string
	// Interactive enables prompts for missing values.
	Interactive bool
}

// Processor runs one punch file through the pipeline and delivers the result to the terminal,
// an export file and optionally an email recipient.
type Processor struct {
	attendance summarizer
	renderer   documentRenderer
	mail       reportSender
	prompter   Prompter
	out        io.Writer
	errOut     io.Writer
	logger     *zap.Logger
	now        func() time.Time
}

// NewProcessor wires the pipeline. mail and prompter may be nil.
func NewProcessor(attendance summarizer, renderer documentRenderer, mail reportSender, prompter Prompter, out, errOut io.Writer, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		attendance: attendance,
		renderer:   renderer,
		mail:       mail,
		prompter:   prompter,
		out:        out,
		errOut:     errOut,
		logger:     logger,
		now:        time.Now,
	}
}

// Run processes the file at path. Abandoning a prompt ends the run without an error.
func (p *Processor) Run(ctx context.Context, path string, opts ProcessOptions) error {
	err := p.run(ctx, path, opts)
	if errors.Is(err, ErrCancelled) {
		fmt.Fprintln(p.errOut, "Cancelled.")
		return nil
	}
	return err
}

func (p *Processor) run(ctx context.Context, path string, opts ProcessOptions) error {
	table, err := readTable(path)
	if err != nil {
		return err
	}

	category, err := p.resolveCategory(ctx, table, opts)
	if err != nil {
		return err
	}

	result, err := p.attendance.Process(ctx, table, category)
	if err != nil {
		return err
	}

	rows := dto.NewSummaryRows(result.Summaries)
	if len(rows) == 0 {
		fmt.Fprintln(p.out, "No attendance summaries produced.")
	} else {
		fmt.Fprintln(p.out, RenderSummaryTable(rows))
	}
	p.reportSkipped(result)

	format, ok := models.ParseReportFormat(opts.Format)
	if !ok {
		return appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported report format %q", opts.Format))
	}

	var document []byte
	filename := ReportName(path, format, opts.Output, p.now())
	if opts.Output != "" || opts.Format != "" {
		document, err = p.renderer.Render(format, result.Summaries)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filename, document, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(p.out, "Report written to %s\n", filename)
	}

	to, err := p.resolveRecipient(ctx, opts)
	if err != nil || to == "" {
		return err
	}
	if document == nil {
		if document, err = p.renderer.Render(format, result.Summaries); err != nil {
			return err
		}
	}
	return p.send(ctx, to, mailer.Attachment{
		Filename:    filepath.Base(filename),
		ContentType: format.ContentType(),
		Data:        document,
	})
}

// ReportName picks the export destination: the explicit output path, or a timestamped name in the
// working directory derived from the source file.
func ReportName(source string, format models.ReportFormat, output string, at time.Time) string {
	if output != "" {
		return output
	}
	return service.ReportFilename(source, format, at)
}

func readTable(path string) (ingest.Table, error) {
	if _, err := ingest.DetectFormat(path); err != nil {
		return ingest.Table{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return ingest.Table{}, fmt.Errorf("open punch file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	return ingest.Read(path, file)
}

func (p *Processor) resolveCategory(ctx context.Context, table ingest.Table, opts ProcessOptions) (string, error) {
	category, err := p.attendance.ResolveDefaultCategory(table, opts.Category)
	if err == nil || !opts.Interactive || p.prompter == nil {
		return category, err
	}
	if opts.Category != "" {
		fmt.Fprintf(p.errOut, "Invalid employment category %q.\n", opts.Category)
	}
	raw, err := p.prompter.Category(ctx)
	if err != nil {
		return "", err
	}
	return p.attendance.ResolveDefaultCategory(table, raw)
}

func (p *Processor) resolveRecipient(ctx context.Context, opts ProcessOptions) (string, error) {
	if opts.Email != "" {
		return opts.Email, nil
	}
	if !opts.Interactive || p.prompter == nil || p.mail == nil {
		return "", nil
	}
	send, err := p.prompter.ConfirmEmail(ctx)
	if err != nil || !send {
		return "", err
	}
	return p.prompter.Recipient(ctx)
}

func (p *Processor) send(ctx context.Context, to string, attachment mailer.Attachment) error {
	if p.mail == nil {
		fmt.Fprintln(p.errOut, "Email delivery is not configured; skipping.")
		return nil
	}
	err := p.mail.SendReport(ctx, to, attachment)
	switch {
	case err == nil:
		fmt.Fprintf(p.out, "Report emailed to %s\n", to)
		return nil
	case errors.Is(err, mailer.ErrNotConfigured):
		fmt.Fprintln(p.errOut, "Email delivery is not configured; skipping.")
		return nil
	default:
		return fmt.Errorf("send report to %s: %w", to, err)
	}
}

func (p *Processor) reportSkipped(result *models.BatchResult) {
	if result.SkippedRows == 0 {
		return
	}
	fmt.Fprintf(p.errOut, "Skipped %d of %d rows:\n", result.SkippedRows, result.TotalRows)
	for _, w := range result.Warnings {
		fmt.Fprintf(p.errOut, "  row %d: %s (%s=%q)\n", w.Row, w.Reason, w.Field, w.Value)
	}
	p.logger.Debug("rows skipped", zap.Int("skipped", result.SkippedRows), zap.Int("total", result.TotalRows))
}
