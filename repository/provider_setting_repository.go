package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/mediapicker/models"
)

// ProviderSettingRepository reads provider settings. Writes go through the catalog so
// they share a transaction with the data they invalidate.
type ProviderSettingRepository struct {
	DB *gorm.DB
}

// NewProviderSettingRepository creates a new instance of ProviderSettingRepository
func NewProviderSettingRepository(db *gorm.DB) *ProviderSettingRepository {
	return &ProviderSettingRepository{DB: db}
}

// Get retrieves a setting by key. It returns gorm.ErrRecordNotFound when unset.
func (r *ProviderSettingRepository) Get(key string) (*models.ProviderSetting, error) {
	var setting models.ProviderSetting
	err := r.DB.Where("key = ?", key).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get provider setting %s: %w", key, err)
	}
	return &setting, nil
}

// ListAll retrieves every setting ordered by key
func (r *ProviderSettingRepository) ListAll() ([]models.ProviderSetting, error) {
	var settings []models.ProviderSetting
	if err := r.DB.Order("key ASC").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to list provider settings: %w", err)
	}
	return settings, nil
}
