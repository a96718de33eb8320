package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS media (
	_id INTEGER PRIMARY KEY AUTOINCREMENT,
	authority TEXT NOT NULL,
	source_id TEXT NOT NULL,
	local_link_id TEXT,
	dedup_namespace TEXT NOT NULL,
	dedup_id TEXT NOT NULL,
	date_taken_ms INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	mime_type TEXT NOT NULL DEFAULT '',
	is_favorite INTEGER NOT NULL DEFAULT 0,
	is_winner INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(authority, source_id)
);
CREATE INDEX IF NOT EXISTS idx_media_dedup ON media(dedup_namespace, dedup_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_media_winner ON media(dedup_namespace, dedup_id) WHERE is_winner = 1;
CREATE INDEX IF NOT EXISTS idx_media_date ON media(date_taken_ms, _id);
CREATE INDEX IF NOT EXISTS idx_media_authority ON media(authority);

CREATE TABLE IF NOT EXISTS provider_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// InitDB opens the sqlite database at path and makes sure the catalog schema exists.
// Write transactions take the database lock up front so concurrent writers queue
// instead of failing on lock upgrade.
func InitDB(path string, log logrus.FieldLogger) (*sql.DB, error) {
	params := url.Values{}
	params.Set("_txlock", "immediate")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	dsn := fmt.Sprintf("file:%s?%s", path, params.Encode())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable write-ahead logging so readers never wait on the writer
	if _, err = db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.WithError(err).Warn("database: failed to set WAL mode")
	}

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}

	log.WithField("path", path).Info("database: initialized")
	return db, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
