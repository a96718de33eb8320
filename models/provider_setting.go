package models

// ProviderSetting is a row of the catalog's provider_settings table.
type ProviderSetting struct {
	Key       string `gorm:"primaryKey" json:"key"`
	Value     string `gorm:"not null" json:"value"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (ProviderSetting) TableName() string {
	return "provider_settings"
}
