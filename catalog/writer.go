package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/camden-git/mediapicker/database"
	"github.com/camden-git/mediapicker/models"
)

// AddMedia inserts or updates items for authority in one transaction and returns how
// many were applied. Items without a source id are skipped. A local row always becomes
// the winner for its key; a cloud row only wins a key nobody holds yet. Rows that lose
// are kept hidden so they can be promoted later.
func (c *Catalog) AddMedia(ctx context.Context, items []MediaItem, authority string) (int, error) {
	authority = strings.TrimSpace(authority)
	applied, skipped := 0, 0

	err := c.write(ctx, func(tx *sql.Tx) error {
		applied, skipped = 0, 0
		if err := c.checkAuthority(ctx, tx, authority); err != nil {
			return err
		}

		nowMs := c.now().UnixMilli()
		for _, item := range items {
			if !item.valid() {
				skipped++
				continue
			}
			if err := c.applyItem(ctx, tx, item.toRow(authority, nowMs), nowMs); err != nil {
				return err
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add media for %s: %w", authority, err)
	}

	fields := logrus.Fields{"authority": authority, "applied": applied, "skipped": skipped}
	if skipped > 0 {
		c.log.WithFields(fields).Debug("catalog: skipped items without a source id")
	}
	c.log.WithFields(fields).Info("catalog: added media")
	c.committed(models.SyncOpAdd, authority, len(items), applied, nil)
	return applied, nil
}

func (c *Catalog) applyItem(ctx context.Context, tx *sql.Tx, row database.MediaRow, nowMs int64) error {
	key := ResolveKey(c.localAuthority, row)

	existing, err := database.GetMediaBySource(ctx, tx, row.Authority, row.SourceID)
	hasExisting := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	// A row moving to another key gives up its old key first; otherwise the upsert
	// would carry the winner flag into a key that may already have one.
	moved := hasExisting && existing.Key != key.ref()
	if moved && existing.IsWinner {
		if err := database.SetWinner(ctx, tx, existing.ID, false); err != nil {
			return err
		}
	}

	id, err := database.UpsertMedia(ctx, tx, database.StoredMedia{MediaRow: row, Key: key.ref()}, nowMs)
	if err != nil {
		return err
	}

	if moved && existing.IsWinner {
		if err := c.promote(ctx, tx, existing.Key); err != nil {
			return err
		}
	}

	current, err := database.GetWinner(ctx, tx, key.ref())
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return database.SetWinner(ctx, tx, id, true)
	case err != nil:
		return err
	case current.ID == id:
		return nil
	case row.Authority == c.localAuthority:
		if err := database.SetWinner(ctx, tx, current.ID, false); err != nil {
			return err
		}
		return database.SetWinner(ctx, tx, id, true)
	default:
		// cloud row for a key already held; it stays as a hidden candidate
		return nil
	}
}

// RemoveMedia deletes the rows of authority with the given source ids and returns how
// many existed. When a deleted row was the winner for its key, the best remaining row
// for that key is promoted in the same transaction. version is the sync layer's
// generation token and is only recorded.
func (c *Catalog) RemoveMedia(ctx context.Context, ids []string, version *int64, authority string) (int, error) {
	authority = strings.TrimSpace(authority)
	removed := 0

	err := c.write(ctx, func(tx *sql.Tx) error {
		removed = 0
		if err := c.checkAuthority(ctx, tx, authority); err != nil {
			return err
		}

		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			existing, err := database.GetMediaBySource(ctx, tx, authority, id)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return err
			}
			if err := database.DeleteMediaRow(ctx, tx, existing.ID); err != nil {
				return err
			}
			removed++
			if existing.IsWinner {
				if err := c.promote(ctx, tx, existing.Key); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to remove media for %s: %w", authority, err)
	}

	c.log.WithFields(logrus.Fields{"authority": authority, "removed": removed, "requested": len(ids)}).
		Info("catalog: removed media")
	c.committed(models.SyncOpRemove, authority, len(ids), removed, version)
	return removed, nil
}

// ResetMedia deletes every row of authority and promotes the remaining candidates of
// each key that lost its winner. It returns the number of rows deleted.
func (c *Catalog) ResetMedia(ctx context.Context, authority string) (int, error) {
	authority = strings.TrimSpace(authority)
	if authority == "" {
		return 0, fmt.Errorf("failed to reset media: %w: empty authority", ErrUnknownAuthority)
	}

	var deleted int
	err := c.write(ctx, func(tx *sql.Tx) error {
		n, err := c.resetAuthority(ctx, tx, authority)
		deleted = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reset media for %s: %w", authority, err)
	}

	c.log.WithFields(logrus.Fields{"authority": authority, "deleted": deleted}).Info("catalog: reset media")
	c.committed(models.SyncOpReset, authority, 0, deleted, nil)
	return deleted, nil
}

func (c *Catalog) resetAuthority(ctx context.Context, tx *sql.Tx, authority string) (int, error) {
	deleted, lost, err := database.DeleteMediaByAuthority(ctx, tx, authority)
	if err != nil {
		return 0, err
	}
	for _, key := range lost {
		if err := c.promote(ctx, tx, key); err != nil {
			return 0, err
		}
	}
	return int(deleted), nil
}

// promote hands the key to its best remaining row: local first, then lowest row id.
func (c *Catalog) promote(ctx context.Context, tx *sql.Tx, key database.KeyRef) error {
	promoted, ok, err := database.PromoteCandidate(ctx, tx, key, c.localAuthority)
	if err != nil {
		return err
	}
	if ok {
		c.log.WithFields(logrus.Fields{
			"key":       key.Namespace + "/" + key.ID,
			"authority": promoted.Authority,
			"source_id": promoted.SourceID,
		}).Debug("catalog: promoted candidate")
	}
	return nil
}

// checkAuthority accepts the local authority and the cloud authority active inside tx.
func (c *Catalog) checkAuthority(ctx context.Context, tx *sql.Tx, authority string) error {
	if authority == "" {
		return fmt.Errorf("%w: empty authority", ErrUnknownAuthority)
	}
	if authority == c.localAuthority {
		return nil
	}
	cloud, ok, err := database.GetSetting(ctx, tx, database.SettingCloudAuthority)
	if err != nil {
		return err
	}
	if ok && cloud == authority {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAuthority, authority)
}
