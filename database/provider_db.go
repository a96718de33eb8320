package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// SettingCloudAuthority holds the active cloud authority. Absent means none was ever
// chosen; an empty value means cloud media was disabled.
const SettingCloudAuthority = "cloud_authority"

// GetSetting returns the value stored under key and whether it exists.
func GetSetting(ctx context.Context, db Querier, key string) (string, bool, error) {
	queryBuilder := psql.Select("value").
		From("provider_settings").
		Where(sq.Eq{"key": key}).
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return "", false, fmt.Errorf("failed to build SQL query for GetSetting: %w", err)
	}

	var value string
	err = db.QueryRowContext(ctx, sqlStr, args...).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

// PutSetting inserts or updates a setting.
func PutSetting(ctx context.Context, db Querier, key, value string, now int64) error {
	queryBuilder := psql.Insert("provider_settings").
		Columns("key", "value", "updated_at").
		Values(key, value, now).
		Suffix("ON CONFLICT(key) DO UPDATE SET").
		Suffix("value = excluded.value,").
		Suffix("updated_at = excluded.updated_at")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for PutSetting: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// enabledAuthority restricts a query to rows whose authority is the local one or the
// cloud authority active at statement time.
func enabledAuthority(localAuthority string) sq.Sqlizer {
	return sq.Or{
		sq.Eq{"authority": localAuthority},
		sq.Expr("authority = (SELECT value FROM provider_settings WHERE key = ?)", SettingCloudAuthority),
	}
}
