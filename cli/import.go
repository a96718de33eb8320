package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/camden-git/mediapicker/catalog"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var authority string

	cmd := &cobra.Command{
		Use:   "import <items.json>",
		Short: "Add a batch of media items for an authority",
		Long: `Add a batch of media items for an authority.

The file holds either a JSON array of items or an object with an "items" array.
Items use the same fields as POST /api/sync/{authority}/media.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(args[0])
			if err != nil {
				return err
			}

			s, err := openStack(cmd.Context(), rootOpts, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if authority == "" {
				authority = rootOpts.Config.LocalAuthority
			}
			applied, err := s.Catalog.AddMedia(cmd.Context(), items, authority)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return writeJSONOut(cmd.OutOrStdout(), map[string]interface{}{
					"authority": authority, "requested": len(items), "applied": applied,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d item(s) for %s\n", applied, len(items), authority)
			return nil
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "authority owning the items (default LOCAL_AUTHORITY)")
	return cmd
}

func readItems(path string) ([]catalog.MediaItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data = bytes.TrimSpace(data)
	var items []catalog.MediaItem
	if len(data) > 0 && data[0] == '[' {
		err = json.Unmarshal(data, &items)
	} else {
		var wrapped struct {
			Items []catalog.MediaItem `json:"items"`
		}
		err = json.Unmarshal(data, &wrapped)
		items = wrapped.Items
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return items, nil
}
