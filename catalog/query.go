package catalog

import (
	"context"
	"fmt"

	"github.com/camden-git/mediapicker/database"
)

// QueryMedia returns the visible rows matching f, newest first with ties broken by
// ascending row id. The caller must Close the returned cursor.
func (c *Catalog) QueryMedia(ctx context.Context, f QueryFilter) (*database.MediaCursor, error) {
	cur, err := database.QueryMedia(ctx, c.db, f.mediaQuery(c.localAuthority))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return cur, nil
}

// ListMedia is QueryMedia drained into a slice.
func (c *Catalog) ListMedia(ctx context.Context, f QueryFilter) ([]database.MediaRow, error) {
	cur, err := c.QueryMedia(ctx, f)
	if err != nil {
		return nil, err
	}
	rows, err := cur.Collect()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rows, nil
}
