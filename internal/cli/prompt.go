package cli

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/punch-attendance/internal/models"
)

// ErrCancelled is returned by a Prompter when the operator abandons a form.
var ErrCancelled = errors.New("cancelled by user")

// Prompter asks the operator for values the command line left out.
type Prompter interface {
	Category(ctx context.Context) (string, error)
	ConfirmEmail(ctx context.Context) (bool, error)
	Recipient(ctx context.Context) (string, error)
}

// HuhPrompter renders terminal forms with huh. Invalid answers keep the form open until corrected.
type HuhPrompter struct {
	validate *validator.Validate
}

// NewHuhPrompter constructs the interactive prompter.
func NewHuhPrompter(validate *validator.Validate) *HuhPrompter {
	if validate == nil {
		validate = validator.New()
	}
	return &HuhPrompter{validate: validate}
}

// Category asks for the employment category and returns its canonical spelling.
func (p *HuhPrompter) Category(ctx context.Context) (string, error) {
	var raw string
	input := huh.NewInput().
		Title("Employment category").
		Description("Full-Time or Part-Time").
		Placeholder(models.CategoryFullTime).
		Value(&raw).
		Validate(func(s string) error {
			if _, ok := models.ParseCategory(s); !ok {
				return errors.New("enter Full-Time or Part-Time")
			}
			return nil
		})
	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		return "", cancelled(err)
	}
	category, _ := models.ParseCategory(raw)
	return category, nil
}

// ConfirmEmail asks whether the finished report should be mailed.
func (p *HuhPrompter) ConfirmEmail(ctx context.Context) (bool, error) {
	var send bool
	confirm := huh.NewConfirm().
		Title("Send the report by email?").
		Affirmative("Yes").
		Negative("No").
		Value(&send)
	if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
		return false, cancelled(err)
	}
	return send, nil
}

// Recipient asks for the address the report is mailed to.
func (p *HuhPrompter) Recipient(ctx context.Context) (string, error) {
	var to string
	input := huh.NewInput().
		Title("Recipient email").
		Value(&to).
		Validate(func(s string) error {
			if err := p.validate.Var(s, "required,email"); err != nil {
				return errors.New("enter a valid email address")
			}
			return nil
		})
	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		return "", cancelled(err)
	}
	return to, nil
}

func cancelled(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return err
}
