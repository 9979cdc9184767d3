// Package cli implements folioctl, the operator command line for schema
// management and demo data.
package cli

import (
	"context"
	"errors"
	"fmt"

	"folio/internal/bootstrap"
	"folio/internal/config"

	"github.com/spf13/cobra"
)

// Exit codes for folioctl.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RootOptions holds state shared by all commands.
type RootOptions struct {
	// LoadConfig is replaceable so tests can point commands at SQLite.
	LoadConfig func() (*config.Config, error)
}

// NewRootCommand creates the folioctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.LoadConfig})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "folioctl",
		Short:         "Folio operator tooling",
		Long:          "Manage the Folio database schema and load demo or fixture data.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	return cmd
}

// runtime loads config and connects to the database without touching the schema.
func (o *RootOptions) runtime(ctx context.Context) (*bootstrap.Runtime, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "load config", Err: err}
	}
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "connect database", Err: err}
	}
	return rt, nil
}
