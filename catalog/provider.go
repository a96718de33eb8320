package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/camden-git/mediapicker/database"
	"github.com/camden-git/mediapicker/models"
)

// ProviderState is a snapshot of which authorities are enabled.
type ProviderState struct {
	LocalAuthority string `json:"local_authority"`
	// CloudAuthority is empty when no cloud provider is active.
	CloudAuthority string `json:"cloud_authority,omitempty"`
}

// CloudEnabled reports whether a cloud provider is active.
func (s ProviderState) CloudEnabled() bool {
	return s.CloudAuthority != ""
}

// ProviderState reads the current provider configuration.
func (c *Catalog) ProviderState(ctx context.Context) (ProviderState, error) {
	cloud, _, err := database.GetSetting(ctx, c.db, database.SettingCloudAuthority)
	if err != nil {
		return ProviderState{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return ProviderState{LocalAuthority: c.localAuthority, CloudAuthority: cloud}, nil
}

// SetCloudProvider changes the active cloud authority; "" disables cloud media.
//
// Setting the current value changes nothing. Disabling hides cloud rows without
// deleting them, so enabling the same authority again restores them. Switching to a
// different authority deletes the rows of every other cloud authority, promoting local
// rows where needed, in the same transaction as the switch. The choice is stored even
// when it is a disable, so SeedCloudProvider never overrides it.
func (c *Catalog) SetCloudProvider(ctx context.Context, authority string) error {
	_, err := c.setCloudProvider(ctx, authority, false)
	return err
}

// SeedCloudProvider applies authority only when no cloud provider has ever been chosen.
// It reports whether the seed was applied. A stored choice, including a disable, wins.
func (c *Catalog) SeedCloudProvider(ctx context.Context, authority string) (bool, error) {
	return c.setCloudProvider(ctx, authority, true)
}

func (c *Catalog) setCloudProvider(ctx context.Context, authority string, seedOnly bool) (bool, error) {
	authority = strings.TrimSpace(authority)
	if authority == c.localAuthority {
		return false, fmt.Errorf("%w: cloud authority %s is the local authority", ErrUnknownAuthority, authority)
	}

	var previous string
	stored, changed, invalidated := false, false, 0
	err := c.write(ctx, func(tx *sql.Tx) error {
		stored, changed, invalidated = false, false, 0
		current, ok, err := database.GetSetting(ctx, tx, database.SettingCloudAuthority)
		if err != nil {
			return err
		}
		previous = current
		if ok && (seedOnly || current == authority) {
			return nil
		}
		stored = true
		changed = current != authority

		if authority != "" {
			stale, err := database.ListAuthoritiesExcept(ctx, tx, c.localAuthority, authority)
			if err != nil {
				return err
			}
			for _, a := range stale {
				n, err := c.resetAuthority(ctx, tx, a)
				if err != nil {
					return err
				}
				invalidated += n
			}
		}
		return database.PutSetting(ctx, tx, database.SettingCloudAuthority, authority, c.now().UnixMilli())
	})
	if err != nil {
		return false, fmt.Errorf("failed to set cloud provider to %q: %w", authority, err)
	}

	fields := logrus.Fields{"previous": previous, "cloud_authority": authority}
	if !changed && invalidated == 0 {
		c.log.WithFields(fields).WithField("stored", stored).Debug("catalog: cloud provider unchanged")
		return stored, nil
	}
	c.log.WithFields(fields).WithField("invalidated", invalidated).Info("catalog: cloud provider changed")
	c.committed(models.SyncOpProvider, authority, 0, invalidated, nil)
	return stored, nil
}
