package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/taskcal/internal/feedcache"
	"github.com/phrazzld/taskcal/internal/store"
	"github.com/spf13/cobra"
)

// NewCacheCommand creates the cache command and its subcommands. They work
// on the configured cache backend only and never open the database.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the feed cache",
	}
	cmd.AddCommand(newCacheInspectCommand(rootOpts))
	cmd.AddCommand(newCachePurgeCommand(rootOpts))
	cmd.AddCommand(newCacheSweepCommand(rootOpts))
	return cmd
}

func newCacheInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <user-id>",
		Short: "Print the cached feed entry of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(ctx context.Context, cs store.CacheStore, _ *environment) error {
				return inspectEntry(ctx, cmd.OutOrStdout(), cs, args[0])
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newCachePurgeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge [user-id]",
		Short: "Delete the cached entry of a user, or every entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(ctx context.Context, cs store.CacheStore, env *environment) error {
				return purgeEntries(ctx, cmd.OutOrStdout(), cs, args, env.log)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newCacheSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete entries older than cache.max_age and malformed entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(ctx context.Context, cs store.CacheStore, env *environment) error {
				janitor := feedcache.NewJanitor(cs, env.cfg.Cache.MaxAge, env.log)
				return sweepEntries(ctx, cmd.OutOrStdout(), janitor)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// withCache opens the configured cache backend for the duration of fn.
func withCache(rootOpts *RootOptions, cmd *cobra.Command, fn func(context.Context, store.CacheStore, *environment) error) error {
	env, err := loadEnvironment(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	backend, err := env.openCache(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	return fn(ctx, backend, env)
}

// inspectEntry prints the stored entry of a user as indented JSON.
func inspectEntry(ctx context.Context, w io.Writer, cs store.CacheStore, rawID string) error {
	ids, err := parseUserIDs([]string{rawID})
	if err != nil {
		return err
	}
	data, err := cs.Get(ctx, feedcache.Key(ids[0]))
	if err != nil {
		if errors.Is(err, store.ErrCacheEntryNotFound) {
			return fmt.Errorf("no cached feed for user %s: %w", ids[0], err)
		}
		return err
	}
	entry, err := feedcache.DecodeEntry(data)
	if err != nil {
		return err
	}
	return writeJSON(w, entry)
}

// purgeEntries deletes the entry of the user named in args, or every entry
// when args is empty.
func purgeEntries(ctx context.Context, w io.Writer, cs store.CacheStore, args []string, log *slog.Logger) error {
	if len(args) == 1 {
		ids, err := parseUserIDs(args)
		if err != nil {
			return err
		}
		if err := cs.Delete(ctx, feedcache.Key(ids[0])); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "purged cached feed of %s\n", ids[0])
		return nil
	}

	removed, err := feedcache.NewJanitor(cs, 0, log).Purge(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "purged %d cached feeds\n", removed)
	return nil
}

func sweepEntries(ctx context.Context, w io.Writer, j *feedcache.Janitor) error {
	removed, err := j.Sweep(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "swept %d cached feeds\n", removed)
	return nil
}
