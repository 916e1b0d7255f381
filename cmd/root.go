package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"esp-users-audit/pkg/client"
	"esp-users-audit/pkg/config"
	"esp-users-audit/pkg/output"
	"esp-users-audit/pkg/report"
)

// UserLister fetches the users of the caller's organization
type UserLister interface {
	ListUsers(ctx context.Context, include ...string) ([]client.User, error)
}

func init() {
	// Quiet until the configured level is applied
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// NewRootCmd builds the esp-users-audit command. Report lines and
// user-facing errors are written to stdout.
func NewRootCmd(stdout io.Writer) *cobra.Command {
	var (
		cfg    *config.Config
		format output.Format
	)

	rootCmd := &cobra.Command{
		Use:   "esp-users-audit",
		Short: "Report ESP organization users as CSV or JSON",
		Long: `Lists the users of your ESP organization with their role, organization,
last update time and MFA status.

With -o json the report is printed to standard output. With -o csv it is
written to ` + report.DefaultCSVFileName + ` in the current directory; an existing
file is never overwritten.

Credentials are read from ESP_ACCESS_KEY_ID and ESP_SECRET_ACCESS_KEY.`,
		Example:       "  esp-users-audit -o csv\n  esp-users-audit -o json",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &UsageError{Err: fmt.Errorf("unexpected arguments: %v", args)}
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			format, err = output.GetFormatFromCmd(cmd)
			if err != nil {
				return &UsageError{Err: err}
			}

			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg.Log.ConfigureZerolog()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersReport(cmd.Context(), client.New(cfg), format, report.DefaultCSVFileName, stdout)
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})
	output.AddFormatFlag(rootCmd)

	return rootCmd
}

// Execute runs the command with the process arguments and exits
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout))
}

// Run executes the command and returns the process exit code
func Run(ctx context.Context, args []string, stdout io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args for nil
		args = []string{}
	}

	rootCmd := NewRootCmd(stdout)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stdout, userMessage(err, usageLine(rootCmd)))
		return 1
	}
	return 0
}

func usageLine(cmd *cobra.Command) string {
	return fmt.Sprintf("usage: %s [-h] -o <output>", cmd.Name())
}

func runUsersReport(ctx context.Context, users UserLister, format output.Format, csvFile string, stdout io.Writer) error {
	list, err := users.ListUsers(ctx, client.UserIncludes...)
	if err != nil {
		return err
	}
	log.Info().Int("users", len(list)).Str("format", string(format)).Msg("Building user report")

	formatter := output.New(format)
	if formatter.IsJSON() {
		formatter.SetWriter(stdout)
		return formatter.Output(report.BuildUserReport(list))
	}
	if !formatter.IsCSV() {
		return fmt.Errorf("unsupported output format: %s", format)
	}

	if report.FileExists(csvFile) {
		return fileExistsError(csvFile)
	}

	writeErr := writeCSVReport(formatter, csvFile, report.BuildUserReport(list))
	if errors.Is(writeErr, report.ErrFileExists) {
		return fileExistsError(csvFile)
	}
	if writeErr != nil {
		// The outcome is judged by Verify below
		log.Warn().Err(writeErr).Str("file", csvFile).Msg("Failed to write csv report")
	}

	// A failed write is reported but does not fail the run
	if !report.Verify(csvFile) {
		fmt.Fprintf(stdout, "Error: Failed to create csv file, %s.\n", csvFile)
		return nil
	}

	fmt.Fprintf(stdout, "Success: Created ESP csv user report, %s.\n", csvFile)
	return nil
}

func writeCSVReport(formatter *output.Formatter, name string, records report.Report) error {
	f, err := report.CreateFile(name)
	if err != nil {
		return err
	}

	formatter.SetWriter(f)
	err = formatter.Output(records)

	return errors.Join(err, f.Close())
}

func fileExistsError(name string) error {
	return &ReportError{
		Message: fmt.Sprintf("Error: The file %s already exists.", name),
		Err:     report.ErrFileExists,
	}
}
