package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/feed"
	"github.com/phrazzld/taskcal/internal/feedcache"
	"github.com/phrazzld/taskcal/internal/platform/postgres"
	"github.com/phrazzld/taskcal/internal/service"
	"github.com/spf13/cobra"
)

// Feed output formats.
const (
	FormatJSON = "json"
	FormatICS  = "ics"
)

// FeedOptions holds the flags of the feed command.
type FeedOptions struct {
	Start  string
	End    string
	Format string
}

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FeedOptions{}

	cmd := &cobra.Command{
		Use:   "feed <user-id>...",
		Short: "Render the calendar feed of one or more users",
		Long: "Build the feed of the given users through the feed cache, exactly " +
			"as the server would, and print it as JSON or iCalendar.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(rootOpts, opts, args, cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "range start, YYYY-MM-DD or a timestamp (required)")
	cmd.Flags().StringVar(&opts.End, "end", "", "range end, YYYY-MM-DD or a timestamp (required)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatJSON, "output format (json|ics)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runFeed(rootOpts *RootOptions, opts *FeedOptions, args []string, cmd *cobra.Command) error {
	if opts.Format != FormatJSON && opts.Format != FormatICS {
		return fmt.Errorf("invalid format %q: must be %s or %s", opts.Format, FormatJSON, FormatICS)
	}
	ids, err := parseUserIDs(args)
	if err != nil {
		return err
	}

	env, err := loadEnvironment(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	r, err := domain.ParseDateRange(opts.Start, opts.End, env.location)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := env.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	backend, err := env.openCache(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	stores := postgres.NewStores(db, env.location, env.log)
	cache := feedcache.New(backend, feed.NewBuilder(stores.FeedSources(), nil, env.log), env.log)
	svc := service.NewFeedService(cache, service.FeedServiceConfig{
		Location:     env.location,
		MaxRangeDays: env.cfg.Feed.MaxRangeDays,
		MaxUsers:     env.cfg.Feed.MaxUsers,
	}, env.log)

	return writeFeed(ctx, cmd.OutOrStdout(), svc, ids, r, opts.Format)
}

// writeFeed renders the feed of ids over r to w in the given format.
func writeFeed(ctx context.Context, w io.Writer, svc service.FeedService, ids []uuid.UUID, r domain.DateRange, format string) error {
	if format == FormatICS {
		return svc.WriteCalendar(ctx, w, ids, r)
	}
	items, err := svc.GetFeed(ctx, ids, r)
	if err != nil {
		return err
	}
	return writeJSON(w, items)
}

func parseUserIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
