package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/camden-git/mediapicker/catalog"
	"github.com/camden-git/mediapicker/database"
	"github.com/camden-git/mediapicker/repository"
)

// stack is the catalog with its storage and bookkeeping, shared by every command.
type stack struct {
	DB       *sql.DB
	Gorm     *gorm.DB
	Records  *repository.SyncRecordRepository
	Settings *repository.ProviderSettingRepository
	Catalog  *catalog.Catalog
}

func (s *stack) Close() error {
	return s.DB.Close()
}

// openStack opens the catalog database. CLOUD_AUTHORITY only seeds a database where no
// cloud provider was ever chosen; the stored choice always wins.
func openStack(ctx context.Context, opts *RootOptions, notifier catalog.Notifier) (*stack, error) {
	cfg := opts.Config
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := database.InitDB(cfg.DatabasePath, opts.Log)
	if err != nil {
		return nil, err
	}

	gormDB, err := database.InitGormDB(db, opts.Log)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		db.Close()
		return nil, err
	}

	s := &stack{
		DB:       db,
		Gorm:     gormDB,
		Records:  repository.NewSyncRecordRepository(gormDB),
		Settings: repository.NewProviderSettingRepository(gormDB),
	}

	favorites := cfg.FavoritesDisplayName
	s.Catalog, err = catalog.New(db, catalog.Options{
		LocalAuthority: cfg.LocalAuthority,
		Labels: func(cat catalog.Category) string {
			if cat == catalog.CategoryFavorites && favorites != "" {
				return favorites
			}
			return catalog.DefaultLabels(cat)
		},
		Logger:   opts.Log,
		Notifier: notifier,
		SyncLog:  s.Records,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if cfg.CloudAuthority != "" {
		seeded, err := s.Catalog.SeedCloudProvider(ctx, cfg.CloudAuthority)
		if err != nil {
			db.Close()
			return nil, err
		}
		if seeded {
			opts.Log.WithField("cloud_authority", cfg.CloudAuthority).Info("cli: seeded cloud provider from configuration")
		}
	}
	return s, nil
}
