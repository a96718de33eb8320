package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/camden-git/mediapicker/database"
)

// Category identifies a synthetic album.
type Category string

// CategoryFavorites is the album of favorite items.
const CategoryFavorites Category = "favorites"

// Categories lists the synthetic albums in display order.
var Categories = []Category{CategoryFavorites}

// LabelFunc returns the display name of a category.
type LabelFunc func(Category) string

// DefaultLabels names categories in English.
func DefaultLabels(cat Category) string {
	switch cat {
	case CategoryFavorites:
		return "Favorites"
	}
	return string(cat)
}

// Album column set exposed through AlbumSummary.Value.
const (
	AlbumColumnID            = "id"
	AlbumColumnDisplayName   = "display_name"
	AlbumColumnCoverID       = "media_cover_id"
	AlbumColumnCoverSourceID = "media_cover_source_id"
	AlbumColumnCoverAuth     = "media_cover_authority"
	AlbumColumnDateTakenMs   = "date_taken_ms"
	AlbumColumnMediaCount    = "media_count"
)

// AlbumColumns lists the album column set in result order.
var AlbumColumns = []string{
	AlbumColumnID, AlbumColumnDisplayName, AlbumColumnCoverID, AlbumColumnCoverSourceID,
	AlbumColumnCoverAuth, AlbumColumnDateTakenMs, AlbumColumnMediaCount,
}

// AlbumSummary describes a synthetic album computed over the visible rows.
type AlbumSummary struct {
	ID          Category `json:"id"`
	DisplayName string   `json:"display_name"`

	// CoverID is the internal row id of the cover, the same id the media columns expose.
	CoverID          int64  `json:"media_cover_id"`
	CoverSourceID    string `json:"media_cover_source_id"`
	CoverAuthority   string `json:"media_cover_authority"`
	CoverDateTakenMs int64  `json:"date_taken_ms"`
	ItemCount        int64  `json:"media_count"`
}

// Value returns a field of the album by column name.
func (a AlbumSummary) Value(column string) (interface{}, error) {
	switch column {
	case AlbumColumnID:
		return string(a.ID), nil
	case AlbumColumnDisplayName:
		return a.DisplayName, nil
	case AlbumColumnCoverID:
		return a.CoverID, nil
	case AlbumColumnCoverSourceID:
		return a.CoverSourceID, nil
	case AlbumColumnCoverAuth:
		return a.CoverAuthority, nil
	case AlbumColumnDateTakenMs:
		return a.CoverDateTakenMs, nil
	case AlbumColumnMediaCount:
		return a.ItemCount, nil
	}
	return nil, fmt.Errorf("unknown album column %q", column)
}

// GetFavoriteAlbum summarises the visible favorites matching f. The limit of f is
// ignored. It returns nil, nil when no favorite matches.
func (c *Catalog) GetFavoriteAlbum(ctx context.Context, f QueryFilter) (*AlbumSummary, error) {
	q := f.mediaQuery(c.localAuthority)
	q.FavoritesOnly = true

	agg, err := database.AggregateAlbum(ctx, c.db, q)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return &AlbumSummary{
		ID:               CategoryFavorites,
		DisplayName:      c.labels(CategoryFavorites),
		CoverID:          agg.CoverID,
		CoverSourceID:    agg.CoverSourceID,
		CoverAuthority:   agg.CoverAuthority,
		CoverDateTakenMs: agg.CoverDateTakenMs,
		ItemCount:        agg.ItemCount,
	}, nil
}

// ListAlbums returns every synthetic album that has at least one item matching f.
func (c *Catalog) ListAlbums(ctx context.Context, f QueryFilter) ([]AlbumSummary, error) {
	albums := []AlbumSummary{}
	for _, cat := range Categories {
		var (
			album *AlbumSummary
			err   error
		)
		switch cat {
		case CategoryFavorites:
			album, err = c.GetFavoriteAlbum(ctx, f)
		}
		if err != nil {
			return nil, err
		}
		if album != nil {
			albums = append(albums, *album)
		}
	}
	return albums, nil
}
