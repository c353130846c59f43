package cli

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/noah-isme/punch-attendance/internal/service"
	"github.com/noah-isme/punch-attendance/pkg/config"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/logger"
	"github.com/noah-isme/punch-attendance/pkg/mailer"
)

// NewRootCommand builds the attendance command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:          "attendance",
		Short:        "Summarise time-clock punch exports",
		Long:         "Reads a CSV or XLSX punch export and prints one attendance row per person and day.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newProcessCommand())
	root.AddCommand(newVersionCommand(version))
	return root
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newProcessCommand() *cobra.Command {
	var (
		opts     ProcessOptions
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Process a punch file and print daily summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level, _ := cmd.Flags().GetString("log-level")
			logr, err := logger.NewCLI(level)
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			if opts.Category == "" {
				opts.Category = cfg.Attendance.DefaultCategory
			}
			opts.Interactive = !noPrompt && isatty.IsTerminal(os.Stdin.Fd())

			validate := validator.New()
			service.RegisterValidators(validate)
			if err := validate.Var(opts.Email, "omitempty,email"); err != nil {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid email address %q", opts.Email))
			}

			var mail reportSender
			if m := mailer.New(cfg.SMTP, logr); m.Enabled() {
				mail = m
			}

			processor := NewProcessor(
				service.NewAttendanceService(cfg.Attendance.Location(), validate, nil, logr),
				service.NewExportService(nil, nil, service.ExportConfig{}, logr),
				mail,
				NewHuhPrompter(validate),
				cmd.OutOrStdout(),
				cmd.ErrOrStderr(),
				logr,
			)
			return processor.Run(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "Default employment category (Full-Time or Part-Time)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the report to this path")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Report format: csv, xlsx or pdf")
	cmd.Flags().StringVar(&opts.Email, "email", "", "Email the report to this address")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Never prompt; fail on missing values")
	return cmd
}
