package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// MediaRow is one asset as known from exactly one source authority.
type MediaRow struct {
	ID          int64  `json:"id"`
	SourceID    string `json:"source_id"`
	Authority   string `json:"authority"`
	LocalLinkID string `json:"local_link_id,omitempty"`
	DateTakenMs int64  `json:"date_taken_ms"`
	SizeBytes   int64  `json:"size_bytes"`
	DurationMs  int64  `json:"duration_ms"`
	MimeType    string `json:"mime_type"`
	IsFavorite  bool   `json:"is_favorite"`
}

// KeyRef addresses a deduplication key in storage.
type KeyRef struct {
	Namespace string
	ID        string
}

// StoredMedia is a media row together with the reconciliation columns only the
// catalog writer touches.
type StoredMedia struct {
	MediaRow
	Key      KeyRef
	IsWinner bool
}

var storedMediaColumns = []string{
	"_id", "source_id", "authority", "local_link_id",
	"date_taken_ms", "size_bytes", "duration_ms", "mime_type", "is_favorite",
	"dedup_namespace", "dedup_id", "is_winner",
}

func scanStoredMedia(scanner interface {
	Scan(dest ...interface{}) error
}) (StoredMedia, error) {
	var m StoredMedia
	var link sql.NullString
	var favorite, winner int
	err := scanner.Scan(
		&m.ID, &m.SourceID, &m.Authority, &link,
		&m.DateTakenMs, &m.SizeBytes, &m.DurationMs, &m.MimeType, &favorite,
		&m.Key.Namespace, &m.Key.ID, &winner,
	)
	if err != nil {
		return StoredMedia{}, err
	}
	m.LocalLinkID = NullStringValue(link)
	m.IsFavorite = favorite != 0
	m.IsWinner = winner != 0
	return m, nil
}

// GetMediaBySource returns the row stored for (authority, sourceID), or sql.ErrNoRows.
func GetMediaBySource(ctx context.Context, db Querier, authority, sourceID string) (StoredMedia, error) {
	queryBuilder := psql.Select(storedMediaColumns...).
		From("media").
		Where(sq.Eq{"authority": authority, "source_id": sourceID}).
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return StoredMedia{}, fmt.Errorf("failed to build SQL query for GetMediaBySource: %w", err)
	}

	m, err := scanStoredMedia(db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredMedia{}, sql.ErrNoRows
		}
		return StoredMedia{}, fmt.Errorf("failed to query media %s/%s: %w", authority, sourceID, err)
	}
	return m, nil
}

// UpsertMedia inserts or updates the row keyed by (authority, source_id) and returns its
// internal id. Winner status is left untouched; new rows start as non-winners.
func UpsertMedia(ctx context.Context, db Querier, m StoredMedia, now int64) (int64, error) {
	queryBuilder := psql.Insert("media").
		Columns(
			"authority", "source_id", "local_link_id", "dedup_namespace", "dedup_id",
			"date_taken_ms", "size_bytes", "duration_ms", "mime_type", "is_favorite",
			"is_winner", "created_at", "updated_at",
		).
		Values(
			m.Authority, m.SourceID, StringToNull(m.LocalLinkID), m.Key.Namespace, m.Key.ID,
			m.DateTakenMs, m.SizeBytes, m.DurationMs, m.MimeType, boolToInt(m.IsFavorite),
			0, now, now,
		).
		Suffix("ON CONFLICT(authority, source_id) DO UPDATE SET").
		Suffix("local_link_id = excluded.local_link_id,").
		Suffix("dedup_namespace = excluded.dedup_namespace,").
		Suffix("dedup_id = excluded.dedup_id,").
		Suffix("date_taken_ms = excluded.date_taken_ms,").
		Suffix("size_bytes = excluded.size_bytes,").
		Suffix("duration_ms = excluded.duration_ms,").
		Suffix("mime_type = excluded.mime_type,").
		Suffix("is_favorite = excluded.is_favorite,").
		Suffix("updated_at = excluded.updated_at").
		Suffix("RETURNING _id")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL query for UpsertMedia: %w", err)
	}

	var id int64
	if err := db.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert media %s/%s: %w", m.Authority, m.SourceID, err)
	}
	return id, nil
}

// GetWinner returns the current winner for key, or sql.ErrNoRows when the key has none.
func GetWinner(ctx context.Context, db Querier, key KeyRef) (StoredMedia, error) {
	queryBuilder := psql.Select(storedMediaColumns...).
		From("media").
		Where(sq.Eq{"dedup_namespace": key.Namespace, "dedup_id": key.ID, "is_winner": 1}).
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return StoredMedia{}, fmt.Errorf("failed to build SQL query for GetWinner: %w", err)
	}

	m, err := scanStoredMedia(db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredMedia{}, sql.ErrNoRows
		}
		return StoredMedia{}, fmt.Errorf("failed to query winner for %s/%s: %w", key.Namespace, key.ID, err)
	}
	return m, nil
}

// SetWinner flips the winner flag on a single row.
func SetWinner(ctx context.Context, db Querier, rowID int64, winner bool) error {
	queryBuilder := psql.Update("media").
		Set("is_winner", boolToInt(winner)).
		Where(sq.Eq{"_id": rowID})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for SetWinner: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to set winner=%t on row %d: %w", winner, rowID, err)
	}
	return nil
}

// PromoteCandidate makes the best remaining row for key the winner. Rows from
// preferAuthority come first, then the lowest internal id. It returns false when the key
// has no rows left. Callers must make sure the key has no winner before calling.
func PromoteCandidate(ctx context.Context, db Querier, key KeyRef, preferAuthority string) (StoredMedia, bool, error) {
	queryBuilder := psql.Select(storedMediaColumns...).
		From("media").
		Where(sq.Eq{"dedup_namespace": key.Namespace, "dedup_id": key.ID}).
		OrderByClause("(authority = ?) DESC", preferAuthority).
		OrderBy("_id ASC").
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return StoredMedia{}, false, fmt.Errorf("failed to build SQL query for PromoteCandidate: %w", err)
	}

	m, err := scanStoredMedia(db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredMedia{}, false, nil
		}
		return StoredMedia{}, false, fmt.Errorf("failed to find promotion candidate for %s/%s: %w", key.Namespace, key.ID, err)
	}

	if err := SetWinner(ctx, db, m.ID, true); err != nil {
		return StoredMedia{}, false, err
	}
	m.IsWinner = true
	return m, true, nil
}

// DeleteMediaRow removes a single row by internal id.
func DeleteMediaRow(ctx context.Context, db Querier, rowID int64) error {
	queryBuilder := psql.Delete("media").Where(sq.Eq{"_id": rowID})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteMediaRow: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to delete media row %d: %w", rowID, err)
	}
	return nil
}

// DeleteMediaByAuthority removes every row of authority. It returns the number of rows
// deleted and the keys whose winner was among them.
func DeleteMediaByAuthority(ctx context.Context, db Querier, authority string) (int64, []KeyRef, error) {
	keysBuilder := psql.Select("dedup_namespace", "dedup_id").
		From("media").
		Where(sq.Eq{"authority": authority, "is_winner": 1})

	sqlStr, args, err := keysBuilder.ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build SQL for DeleteMediaByAuthority keys: %w", err)
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list winning keys for %s: %w", authority, err)
	}
	var lost []KeyRef
	for rows.Next() {
		var k KeyRef
		if err := rows.Scan(&k.Namespace, &k.ID); err != nil {
			rows.Close()
			return 0, nil, fmt.Errorf("failed to scan winning key for %s: %w", authority, err)
		}
		lost = append(lost, k)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, nil, fmt.Errorf("error iterating winning keys for %s: %w", authority, err)
	}
	rows.Close()

	deleteBuilder := psql.Delete("media").Where(sq.Eq{"authority": authority})
	sqlStr, args, err = deleteBuilder.ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build SQL for DeleteMediaByAuthority: %w", err)
	}
	result, err := db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to delete media for %s: %w", authority, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to count deleted media for %s: %w", authority, err)
	}
	return deleted, lost, nil
}

// ListAuthoritiesExcept returns the distinct authorities with stored rows, minus keep.
func ListAuthoritiesExcept(ctx context.Context, db Querier, keep ...string) ([]string, error) {
	queryBuilder := psql.Select("authority").Distinct().From("media")
	if len(keep) > 0 {
		queryBuilder = queryBuilder.Where(sq.NotEq{"authority": keep})
	}
	queryBuilder = queryBuilder.OrderBy("authority ASC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListAuthoritiesExcept: %w", err)
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorities: %w", err)
	}
	defer rows.Close()

	var authorities []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("failed to scan authority: %w", err)
		}
		authorities = append(authorities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating authorities: %w", err)
	}
	return authorities, nil
}

// CountMediaByAuthority reports stored rows per authority, hidden ones included.
func CountMediaByAuthority(ctx context.Context, db Querier) (map[string]int64, error) {
	queryBuilder := psql.Select("authority", "COUNT(*)").From("media").GroupBy("authority")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for CountMediaByAuthority: %w", err)
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count media by authority: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var a string
		var n int64
		if err := rows.Scan(&a, &n); err != nil {
			return nil, fmt.Errorf("failed to scan media count: %w", err)
		}
		counts[a] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media counts: %w", err)
	}
	return counts, nil
}
