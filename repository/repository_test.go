package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/mediapicker/database"
	"github.com/camden-git/mediapicker/logging"
	"github.com/camden-git/mediapicker/models"
)

func setupGormDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, err := database.InitDB(filepath.Join(t.TempDir(), "picker.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := database.InitGormDB(sqlDB, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	return db
}

func TestSyncRecordRepository(t *testing.T) {
	repo := NewSyncRecordRepository(setupGormDB(t))

	version := int64(4)
	records := []*models.SyncRecord{
		{Authority: "com.local", Operation: models.SyncOpAdd, Requested: 2, Applied: 2, CreatedAt: 100},
		{Authority: "com.cloud", Operation: models.SyncOpRemove, Requested: 1, Applied: 1, VersionToken: &version, CreatedAt: 200},
		{Authority: "com.cloud", Operation: models.SyncOpReset, CreatedAt: 300},
	}
	for _, r := range records {
		require.NoError(t, repo.Create(r))
		assert.Len(t, r.ID, 36)
	}

	recent, err := repo.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.SyncOpReset, recent[0].Operation)
	assert.Equal(t, models.SyncOpRemove, recent[1].Operation)

	cloud, err := repo.ListByAuthority("com.cloud", 10)
	require.NoError(t, err)
	assert.Len(t, cloud, 2)

	last, err := repo.LastVersion("com.cloud")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, version, *last)

	last, err = repo.LastVersion("com.local")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestSyncRecordRepository_FillsTimestamp(t *testing.T) {
	repo := NewSyncRecordRepository(setupGormDB(t))

	record := &models.SyncRecord{Authority: "com.local", Operation: models.SyncOpAdd}
	require.NoError(t, repo.Create(record))
	assert.NotZero(t, record.CreatedAt)
}

func TestProviderSettingRepository(t *testing.T) {
	db := setupGormDB(t)
	repo := NewProviderSettingRepository(db)

	_, err := repo.Get(database.SettingCloudAuthority)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, database.PutSetting(context.Background(), sqlDB, database.SettingCloudAuthority, "com.cloud", 42))

	setting, err := repo.Get(database.SettingCloudAuthority)
	require.NoError(t, err)
	assert.Equal(t, "com.cloud", setting.Value)
	assert.Equal(t, int64(42), setting.UpdatedAt)

	all, err := repo.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
