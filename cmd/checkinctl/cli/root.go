// Package cli implements checkinctl, the operator tool for bootstrapping the
// check-in database.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"eventcheckin/internal/config"
	"eventcheckin/internal/store"
)

type dbFlags struct {
	driver string
	url    string
}

// Execute creates the root command tree and runs it.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	flags := &dbFlags{}

	cmd := &cobra.Command{
		Use:   "checkinctl",
		Short: "Manage the event check-in database",
		Long: `checkinctl prepares the database used by the check-in server: it applies the
schema and manages the administrators allowed to create activities.

Connection settings default to DATABASE_DRIVER and DATABASE_URL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.driver, "driver", cfg.DatabaseDriver, "database driver (pgx or sqlite)")
	cmd.PersistentFlags().StringVar(&flags.url, "database-url", cfg.DatabaseURL, "database connection string")

	cmd.AddCommand(newMigrateCmd(flags))
	cmd.AddCommand(newAdminCmd(flags))

	return cmd
}

// open connects and applies the schema; every subcommand needs both.
func (f *dbFlags) open(ctx context.Context) (*store.DB, error) {
	db, err := store.NewDB(ctx, f.driver, f.url)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
