package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// MediaQuery is the storage-level form of a validated query filter.
type MediaQuery struct {
	LocalAuthority string
	Limit          uint64
	BeforeMs       *int64
	AfterMs        *int64
	ID             *int64
	MaxSizeBytes   *int64
	MimeGlob       string
	FavoritesOnly  bool
}

// Media column set exposed through MediaCursor.Value.
const (
	ColumnID          = "id"
	ColumnSourceID    = "source_id"
	ColumnAuthority   = "authority"
	ColumnLocalLinkID = "local_link_id"
	ColumnDateTakenMs = "date_taken_ms"
	ColumnSizeBytes   = "size_bytes"
	ColumnDurationMs  = "duration_ms"
	ColumnMimeType    = "mime_type"
	ColumnIsFavorite  = "is_favorite"
)

// MediaColumns lists the media column set in result order.
var MediaColumns = []string{
	ColumnID, ColumnSourceID, ColumnAuthority, ColumnLocalLinkID,
	ColumnDateTakenMs, ColumnSizeBytes, ColumnDurationMs, ColumnMimeType, ColumnIsFavorite,
}

var mediaSelectColumns = []string{
	"_id", "source_id", "authority", "local_link_id",
	"date_taken_ms", "size_bytes", "duration_ms", "mime_type", "is_favorite",
}

// MimeGlobToLike turns a mime glob such as "video/*" into a LIKE pattern using '\' as
// the escape character.
func MimeGlobToLike(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '\\', '%', '_':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '*':
			b.WriteRune('%')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// visibleMedia selects winners of enabled authorities matching the non-paging parts
// of q.
func visibleMedia(q MediaQuery, columns ...string) sq.SelectBuilder {
	queryBuilder := psql.Select(columns...).
		From("media").
		Where(sq.Eq{"is_winner": 1}).
		Where(enabledAuthority(q.LocalAuthority))

	if q.MaxSizeBytes != nil {
		queryBuilder = queryBuilder.Where(sq.LtOrEq{"size_bytes": *q.MaxSizeBytes})
	}
	if q.MimeGlob != "" {
		queryBuilder = queryBuilder.Where(sq.Expr(`mime_type LIKE ? ESCAPE '\'`, MimeGlobToLike(q.MimeGlob)))
	}
	if q.FavoritesOnly {
		queryBuilder = queryBuilder.Where(sq.Eq{"is_favorite": 1})
	}
	return queryBuilder
}

func dateBounds(q MediaQuery) sq.Sqlizer {
	switch {
	case q.BeforeMs != nil && q.ID != nil:
		return sq.Or{
			sq.Lt{"date_taken_ms": *q.BeforeMs},
			sq.And{sq.Eq{"date_taken_ms": *q.BeforeMs}, sq.Gt{"_id": *q.ID}},
		}
	case q.BeforeMs != nil:
		return sq.Lt{"date_taken_ms": *q.BeforeMs}
	case q.AfterMs != nil && q.ID != nil:
		return sq.Or{
			sq.Gt{"date_taken_ms": *q.AfterMs},
			sq.And{sq.Eq{"date_taken_ms": *q.AfterMs}, sq.Lt{"_id": *q.ID}},
		}
	case q.AfterMs != nil:
		return sq.Gt{"date_taken_ms": *q.AfterMs}
	}
	return nil
}

// BuildMediaQuery renders q as a single SELECT. Results always come back newest first
// with ties broken by ascending internal id. An after-bound page is collected by walking
// forward from the bound and re-sorted by an outer select.
func BuildMediaQuery(q MediaQuery) sq.SelectBuilder {
	queryBuilder := visibleMedia(q, mediaSelectColumns...)
	if bounds := dateBounds(q); bounds != nil {
		queryBuilder = queryBuilder.Where(bounds)
	}

	if q.AfterMs == nil {
		return queryBuilder.OrderBy("date_taken_ms DESC", "_id ASC").Limit(q.Limit)
	}

	inner := queryBuilder.OrderBy("date_taken_ms ASC", "_id DESC").Limit(q.Limit)
	return psql.Select(mediaSelectColumns...).
		FromSelect(inner, "page").
		OrderBy("date_taken_ms DESC", "_id ASC")
}

// QueryMedia runs q and returns an open cursor. The caller owns the cursor and must
// Close it.
func QueryMedia(ctx context.Context, db Querier, q MediaQuery) (*MediaCursor, error) {
	sqlStr, args, err := BuildMediaQuery(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for QueryMedia: %w", err)
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute media query: %w", err)
	}
	return &MediaCursor{rows: rows}, nil
}

// MediaCursor is a forward-only, closeable view over query results.
type MediaCursor struct {
	rows   *sql.Rows
	cur    MediaRow
	err    error
	closed bool
}

// Next advances to the next row. It returns false at the end of the results or on error;
// check Err afterwards.
func (c *MediaCursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}

	var link sql.NullString
	var favorite int
	var m MediaRow
	if err := c.rows.Scan(&m.ID, &m.SourceID, &m.Authority, &link,
		&m.DateTakenMs, &m.SizeBytes, &m.DurationMs, &m.MimeType, &favorite); err != nil {
		c.err = fmt.Errorf("failed to scan media row: %w", err)
		return false
	}
	m.LocalLinkID = NullStringValue(link)
	m.IsFavorite = favorite != 0
	c.cur = m
	return true
}

// Row returns the current row.
func (c *MediaCursor) Row() MediaRow {
	return c.cur
}

// Columns returns the fixed media column set.
func (c *MediaCursor) Columns() []string {
	return MediaColumns
}

// Value returns a field of the current row by column name.
func (c *MediaCursor) Value(column string) (interface{}, error) {
	return c.cur.Value(column)
}

// Value returns a field of m by column name.
func (m MediaRow) Value(column string) (interface{}, error) {
	switch column {
	case ColumnID:
		return m.ID, nil
	case ColumnSourceID:
		return m.SourceID, nil
	case ColumnAuthority:
		return m.Authority, nil
	case ColumnLocalLinkID:
		return m.LocalLinkID, nil
	case ColumnDateTakenMs:
		return m.DateTakenMs, nil
	case ColumnSizeBytes:
		return m.SizeBytes, nil
	case ColumnDurationMs:
		return m.DurationMs, nil
	case ColumnMimeType:
		return m.MimeType, nil
	case ColumnIsFavorite:
		return m.IsFavorite, nil
	}
	return nil, fmt.Errorf("unknown media column %q", column)
}

// Err reports the first error hit while iterating.
func (c *MediaCursor) Err() error {
	return c.err
}

// Close releases the underlying statement. It is safe to call more than once.
func (c *MediaCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

// Collect drains the cursor into a slice and closes it.
func (c *MediaCursor) Collect() ([]MediaRow, error) {
	defer c.Close()
	rows := []MediaRow{}
	for c.Next() {
		rows = append(rows, c.cur)
	}
	if err := c.Err(); err != nil {
		return rows, err
	}
	return rows, nil
}
