package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AlbumAggregate is the raw aggregate behind a synthetic album: the cover row and the
// number of rows matching the album's filter.
type AlbumAggregate struct {
	CoverID          int64
	CoverSourceID    string
	CoverAuthority   string
	CoverDateTakenMs int64
	ItemCount        int64
}

// AggregateAlbum computes the cover and item count for q in one statement. Limit and
// paging fields of q are ignored except for the date bounds. It returns sql.ErrNoRows
// when nothing matches.
func AggregateAlbum(ctx context.Context, db Querier, q MediaQuery) (AlbumAggregate, error) {
	queryBuilder := visibleMedia(q, "_id", "source_id", "authority", "date_taken_ms", "COUNT(*) OVER ()")
	if bounds := dateBounds(q); bounds != nil {
		queryBuilder = queryBuilder.Where(bounds)
	}
	queryBuilder = queryBuilder.OrderBy("date_taken_ms DESC", "_id ASC").Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return AlbumAggregate{}, fmt.Errorf("failed to build SQL query for AggregateAlbum: %w", err)
	}

	var a AlbumAggregate
	err = db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&a.CoverID, &a.CoverSourceID, &a.CoverAuthority, &a.CoverDateTakenMs, &a.ItemCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AlbumAggregate{}, sql.ErrNoRows
		}
		return AlbumAggregate{}, fmt.Errorf("failed to aggregate album: %w", err)
	}
	return a, nil
}
