package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command of the feedctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "feedctl",
		Short: "Operate the task calendar feed service",
		Long: "feedctl runs schema migrations, loads fixture data, renders feeds " +
			"and maintains the feed cache using the server's configuration.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"path to a config file (default: $TASKCAL_CONFIG or ./config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewFeedCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}
