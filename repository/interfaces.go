package repository

import (
	"github.com/camden-git/mediapicker/models"
)

// SyncRecordRepositoryInterface defines the methods for sync audit operations
type SyncRecordRepositoryInterface interface {
	Create(record *models.SyncRecord) error
	ListRecent(limit int) ([]models.SyncRecord, error)
	ListByAuthority(authority string, limit int) ([]models.SyncRecord, error)
	LastVersion(authority string) (*int64, error)
}

// ProviderSettingRepositoryInterface defines read access to provider settings
type ProviderSettingRepositoryInterface interface {
	Get(key string) (*models.ProviderSetting, error)
	ListAll() ([]models.ProviderSetting, error)
}
