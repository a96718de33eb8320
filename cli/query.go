package cli

import (
	"github.com/spf13/cobra"

	"github.com/camden-git/mediapicker/catalog"
)

type filterFlags struct {
	limit     int
	before    int64
	after     int64
	id        int64
	maxSize   int64
	mimeType  string
	favorites bool
}

func (f *filterFlags) register(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().IntVar(&f.limit, "limit", defaultLimit, "maximum number of rows")
	cmd.Flags().Int64Var(&f.before, "before", 0, "only rows taken before this unix millis")
	cmd.Flags().Int64Var(&f.after, "after", 0, "only rows taken after this unix millis")
	cmd.Flags().Int64Var(&f.id, "id", 0, "row id breaking ties with --before or --after")
	cmd.Flags().Int64Var(&f.maxSize, "max-size", 0, "maximum size in bytes")
	cmd.Flags().StringVar(&f.mimeType, "mime", "", "mime type glob such as video/*")
	cmd.Flags().BoolVar(&f.favorites, "favorites", false, "only favorites")
}

func (f *filterFlags) filter(cmd *cobra.Command) (catalog.QueryFilter, error) {
	opts := catalog.FilterOptions{
		Limit:      f.limit,
		MimeType:   f.mimeType,
		IsFavorite: f.favorites,
	}
	if cmd.Flags().Changed("before") {
		opts.DateTakenBeforeMs = catalog.Int64(f.before)
	}
	if cmd.Flags().Changed("after") {
		opts.DateTakenAfterMs = catalog.Int64(f.after)
	}
	if cmd.Flags().Changed("id") {
		opts.ID = catalog.Int64(f.id)
	}
	if cmd.Flags().Changed("max-size") {
		opts.SizeBytes = catalog.Int64(f.maxSize)
	}
	return catalog.NewQueryFilter(opts)
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &filterFlags{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List visible media, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				flags.limit = rootOpts.Config.DefaultQueryLimit
			}
			filter, err := flags.filter(cmd)
			if err != nil {
				return err
			}

			s, err := openStack(cmd.Context(), rootOpts, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			rows, err := s.Catalog.ListMedia(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSONOut(cmd.OutOrStdout(), rows)
			}
			return writeMediaTable(cmd.OutOrStdout(), rows)
		},
	}
	flags.register(cmd, 100)
	return cmd
}

// NewFavoritesCommand creates the favorites command.
func NewFavoritesCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &filterFlags{}

	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Show the favorites album summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.filter(cmd)
			if err != nil {
				return err
			}

			s, err := openStack(cmd.Context(), rootOpts, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			album, err := s.Catalog.GetFavoriteAlbum(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSONOut(cmd.OutOrStdout(), album)
			}
			writeAlbum(cmd.OutOrStdout(), album)
			return nil
		},
	}
	flags.register(cmd, 1)
	return cmd
}
