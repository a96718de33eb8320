// Package catalog merges media known to a local provider and an optional cloud provider
// into one deduplicated, queryable view.
//
// Each physical asset is identified by a dedup key. Exactly one stored row per key is
// the winner; queries only ever return winners whose authority is currently enabled.
// The writer keeps the winner flag correct inside the same transaction as every add,
// remove, reset and provider change, so readers never observe a key with zero or two
// winners.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/camden-git/mediapicker/database"
	"github.com/camden-git/mediapicker/logging"
	"github.com/camden-git/mediapicker/models"
)

var (
	// ErrUnknownAuthority is returned when a batch names an authority that is neither
	// the local one nor the active cloud one.
	ErrUnknownAuthority = errors.New("unknown authority")
	// ErrInvalidFilter is returned by NewQueryFilter for contradictory or out of range
	// options.
	ErrInvalidFilter = errors.New("invalid query filter")
	// ErrStorage wraps every failure of the underlying store. No partial state is
	// visible after it is returned from a write.
	ErrStorage = errors.New("storage failure")
)

// Notifier is told about every committed change to the catalog.
type Notifier interface {
	MediaChanged(event ChangeEvent)
}

// ChangeEvent describes one committed write.
type ChangeEvent struct {
	Operation string
	Authority string
	Count     int
}

// SyncRecorder stores an audit record per applied batch.
type SyncRecorder interface {
	Create(record *models.SyncRecord) error
}

// Options configures a Catalog. LocalAuthority is required.
type Options struct {
	LocalAuthority string
	Labels         LabelFunc
	Logger         logrus.FieldLogger
	Notifier       Notifier
	SyncLog        SyncRecorder
	Clock          func() time.Time
}

// Catalog is the reconciliation and query engine over the media table.
type Catalog struct {
	db             *sql.DB
	localAuthority string
	labels         LabelFunc
	log            logrus.FieldLogger
	notifier       Notifier
	syncLog        SyncRecorder
	now            func() time.Time

	// writers queue here before taking the sqlite write lock
	mu sync.Mutex
}

// New returns a Catalog over db, which must already carry the catalog schema
// (see database.InitDB).
func New(db *sql.DB, opts Options) (*Catalog, error) {
	local := strings.TrimSpace(opts.LocalAuthority)
	if local == "" {
		return nil, fmt.Errorf("%w: local authority is required", ErrUnknownAuthority)
	}

	c := &Catalog{
		db:             db,
		localAuthority: local,
		labels:         opts.Labels,
		log:            opts.Logger,
		notifier:       opts.Notifier,
		syncLog:        opts.SyncLog,
		now:            opts.Clock,
	}
	if c.labels == nil {
		c.labels = DefaultLabels
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// LocalAuthority returns the authority treated as the local provider.
func (c *Catalog) LocalAuthority() string {
	return c.localAuthority
}

// Stats returns the number of stored rows per authority, hidden rows included.
func (c *Catalog) Stats(ctx context.Context) (map[string]int64, error) {
	counts, err := database.CountMediaByAuthority(ctx, c.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return counts, nil
}

// write runs fn in one serialized transaction. Errors other than ErrUnknownAuthority
// are reported as storage failures.
func (c *Catalog) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := database.WithTx(ctx, c.db, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnknownAuthority) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// committed records and announces a successful write. Audit failures are logged, not
// returned: the catalog change itself is already durable.
func (c *Catalog) committed(op, authority string, requested, applied int, version *int64) {
	if c.syncLog != nil {
		record := &models.SyncRecord{
			Authority:    authority,
			Operation:    op,
			Requested:    requested,
			Applied:      applied,
			VersionToken: version,
			CreatedAt:    c.now().UnixMilli(),
		}
		if err := c.syncLog.Create(record); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{"op": op, "authority": authority}).
				Warn("catalog: failed to record sync batch")
		}
	}
	// a provider switch changes visibility even when no rows were deleted
	if c.notifier != nil && (applied > 0 || op == models.SyncOpProvider) {
		c.notifier.MediaChanged(ChangeEvent{Operation: op, Authority: authority, Count: applied})
	}
}
