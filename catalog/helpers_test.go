package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/mediapicker/database"
	"github.com/camden-git/mediapicker/logging"
	"github.com/camden-git/mediapicker/models"
)

const (
	localAuthority = "com.local.provider"
	cloudAuthority = "com.cloud.provider"

	dateTakenMs int64 = 1623852851911
	sizeBytes   int64 = 7000
	durationMs  int64 = 5

	localID = "50"
	cloudID = "asdfghjkl;"

	videoMimeType = "video/mp4"
	imageMimeType = "image/jpeg"
)

var ctx = context.Background()

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.InitDB(filepath.Join(t.TempDir(), "picker.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	return newTestCatalogWith(t, Options{})
}

func newTestCatalogWith(t *testing.T, opts Options) *Catalog {
	t.Helper()
	opts.LocalAuthority = localAuthority
	c, err := New(openTestDB(t), opts)
	require.NoError(t, err)
	require.NoError(t, c.SetCloudProvider(ctx, cloudAuthority))
	return c
}

func mediaItem(id string, taken int64, link string, size int64, mime string, favorite bool) MediaItem {
	return MediaItem{
		SourceID:    id,
		LocalLinkID: link,
		DateTakenMs: Int64(taken),
		SizeBytes:   size,
		DurationMs:  durationMs,
		MimeType:    mime,
		IsFavorite:  favorite,
	}
}

func localItem(id string, taken int64) MediaItem {
	return mediaItem(id, taken, id, sizeBytes, videoMimeType, false)
}

func cloudItem(id, link string, taken int64) MediaItem {
	return mediaItem(id, taken, link, sizeBytes, videoMimeType, false)
}

func addOne(t *testing.T, c *Catalog, item MediaItem, authority string) {
	t.Helper()
	n, err := c.AddMedia(ctx, []MediaItem{item}, authority)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func removeOne(t *testing.T, c *Catalog, id, authority string) {
	t.Helper()
	n, err := c.RemoveMedia(ctx, []string{id}, nil, authority)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func mustFilter(t *testing.T, opts FilterOptions) QueryFilter {
	t.Helper()
	f, err := NewQueryFilter(opts)
	require.NoError(t, err)
	return f
}

func query(t *testing.T, c *Catalog, opts FilterOptions) []database.MediaRow {
	t.Helper()
	rows, err := c.ListMedia(ctx, mustFilter(t, opts))
	require.NoError(t, err)
	return rows
}

func queryAll(t *testing.T, c *Catalog) []database.MediaRow {
	t.Helper()
	return query(t, c, FilterOptions{Limit: 1000})
}

func authorityFor(id string) string {
	if len(id) >= len(localID) && id[:len(localID)] == localID {
		return localAuthority
	}
	return cloudAuthority
}

func assertMedia(t *testing.T, row database.MediaRow, id string) {
	t.Helper()
	assert.Equal(t, id, row.SourceID)
	assert.Equal(t, authorityFor(id), row.Authority)
}

func assertMediaAt(t *testing.T, row database.MediaRow, id string, taken int64) {
	t.Helper()
	assertMedia(t, row, id)
	assert.Equal(t, videoMimeType, row.MimeType)
	assert.Equal(t, taken, row.DateTakenMs)
	assert.Equal(t, sizeBytes, row.SizeBytes)
	assert.Equal(t, durationMs, row.DurationMs)
}

type recordingSyncLog struct {
	mu      sync.Mutex
	records []models.SyncRecord
}

func (r *recordingSyncLog) Create(record *models.SyncRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *recordingSyncLog) all() []models.SyncRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SyncRecord(nil), r.records...)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (n *recordingNotifier) MediaChanged(event ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) all() []ChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ChangeEvent(nil), n.events...)
}
