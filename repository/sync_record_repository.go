package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/camden-git/mediapicker/models"
)

// SyncRecordRepository handles database operations for SyncRecord entities
type SyncRecordRepository struct {
	DB *gorm.DB
}

// NewSyncRecordRepository creates a new instance of SyncRecordRepository
func NewSyncRecordRepository(db *gorm.DB) *SyncRecordRepository {
	return &SyncRecordRepository{DB: db}
}

// Create stores a new audit record, filling in its id and timestamp when unset
func (r *SyncRecordRepository) Create(record *models.SyncRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().UnixMilli()
	}

	if err := r.DB.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create sync record for %s: %w", record.Authority, err)
	}
	return nil
}

// ListRecent returns the newest records across all authorities
func (r *SyncRecordRepository) ListRecent(limit int) ([]models.SyncRecord, error) {
	var records []models.SyncRecord
	err := r.DB.Order("created_at DESC").Order("id").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync records: %w", err)
	}
	return records, nil
}

// ListByAuthority returns the newest records for one authority
func (r *SyncRecordRepository) ListByAuthority(authority string, limit int) ([]models.SyncRecord, error) {
	var records []models.SyncRecord
	err := r.DB.Where("authority = ?", authority).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync records for %s: %w", authority, err)
	}
	return records, nil
}

// LastVersion returns the most recent version token recorded for authority, or nil when
// none was ever supplied
func (r *SyncRecordRepository) LastVersion(authority string) (*int64, error) {
	var record models.SyncRecord
	err := r.DB.Where("authority = ? AND version_token IS NOT NULL", authority).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last version for %s: %w", authority, err)
	}
	return record.VersionToken, nil
}
