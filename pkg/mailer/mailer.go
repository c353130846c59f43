package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/noah-isme/punch-attendance/pkg/config"
)

const (
	maxAttempts = 3

	// ReportSubject and ReportBody are the fixed texts of an attendance report email.
	ReportSubject = "Attendance Report"
	ReportBody    = "Dear recipient,\n\nPlease find attached the attendance report.\n\nBest regards."
)

// ErrNotConfigured is returned by Send when no SMTP host is set; callers treat it as a skip.
var ErrNotConfigured = errors.New("smtp not configured")

// Attachment is an in-memory file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer delivers report emails over SMTP.
type Mailer struct {
	cfg        config.SMTPConfig
	dialer     dialer
	retryDelay time.Duration
	logger     *zap.Logger
}

// New builds a mailer. SSL is used implicitly on port 465, STARTTLS otherwise.
func New(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mailer{cfg: cfg, retryDelay: 2 * time.Second, logger: logger}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.Host != "" && m.dialer != nil
}

// SendReport mails the attendance report attachment to a single recipient.
func (m *Mailer) SendReport(ctx context.Context, to string, attachment Attachment) error {
	return m.Send(ctx, to, ReportSubject, ReportBody, attachment)
}

// Send delivers a plain-text message with one attachment, retrying transient failures.
func (m *Mailer) Send(ctx context.Context, to, subject, body string, attachment Attachment) error {
	if !m.Enabled() {
		m.logger.Warn("SMTP not configured, skipping email send", zap.String("to", to), zap.String("subject", subject))
		return ErrNotConfigured
	}
	msg := m.buildMessage(to, subject, body, attachment)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := m.dialer.DialAndSend(msg)
		if err == nil {
			m.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject), zap.Int("attempt", attempt))
			return nil
		}
		lastErr = err
		m.logger.Warn("email send failed", zap.String("to", to), zap.Int("attempt", attempt), zap.Error(lastErr))
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * m.retryDelay):
		}
	}
	return fmt.Errorf("send email to %s after %d attempts: %w", to, maxAttempts, lastErr)
}

func (m *Mailer) buildMessage(to, subject, body string, attachment Attachment) *gomail.Message {
	msg := gomail.NewMessage()
	if m.cfg.FromName != "" {
		msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	} else {
		msg.SetHeader("From", m.cfg.From)
	}
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if attachment.Filename != "" {
		data := attachment.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if attachment.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {attachment.ContentType},
			}))
		}
		msg.Attach(attachment.Filename, settings...)
	}
	return msg
}
