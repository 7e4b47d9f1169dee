package cli

import (
	"fmt"
	"slices"

	"github.com/phrazzld/taskcal/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// MigrateCommands lists the accepted migrate subcommands.
var MigrateCommands = []string{
	postgres.MigrateUp,
	postgres.MigrateDown,
	postgres.MigrateStatus,
	postgres.MigrateVersion,
	postgres.MigrateReset,
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down|status|version|reset>",
		Short:     "Run database schema migrations",
		Long:      "Apply, roll back or report the embedded schema migrations.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: MigrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, args[0], cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func runMigrate(rootOpts *RootOptions, command string, cmd *cobra.Command) error {
	if !slices.Contains(MigrateCommands, command) {
		return fmt.Errorf("unknown migration command %q: must be one of %v", command, MigrateCommands)
	}

	env, err := loadEnvironment(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := env.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := postgres.Migrate(ctx, db, command, env.log); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", command)
	return nil
}
