package cli

import (
	"fmt"

	"folio/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, revert or inspect schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Long: `Apply the schema. PostgreSQL runs the embedded SQL migrations;
SQLite uses GORM AutoMigrate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			cfg := *rt.Config
			cfg.DBSchemaMode = database.SchemaModeSQL
			if err := database.ApplySchema(cmd.Context(), rt.DB, &cfg); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (mode=%s)\n", database.EffectiveSchemaMode(&cfg))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recently applied SQL migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			if rt.Config.DBDriver == "sqlite" {
				return &ExitError{Code: ExitCommandError, Message: "migrate down requires the postgres driver"}
			}
			migrations, err := database.GetMigrations()
			if err != nil {
				return err
			}
			m, err := database.RollbackLatest(cmd.Context(), rt.DB, migrations)
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			if m == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted %s\n", m)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			status, err := database.GetSchemaStatus(cmd.Context(), rt.DB, rt.Config)
			if err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode=%s env=%s applied=%d pending=%d\n",
				status.Mode, status.Environment, len(status.AppliedVersions), len(status.PendingMigrations))
			for _, m := range status.PendingMigrations {
				fmt.Fprintf(out, "pending: %s\n", m.String())
			}
			return nil
		},
	})
	return cmd
}
