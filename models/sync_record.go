package models

// Sync operations recorded in SyncRecord.Operation.
const (
	SyncOpAdd      = "add"
	SyncOpRemove   = "remove"
	SyncOpReset    = "reset"
	SyncOpProvider = "set_cloud_provider"
)

// SyncRecord is an audit entry for one batch applied by the catalog writer.
// It corresponds to the 'sync_records' table.
type SyncRecord struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Authority    string `gorm:"not null;index:idx_sync_authority_created" json:"authority"`
	Operation    string `gorm:"not null" json:"operation"`
	Requested    int    `gorm:"not null" json:"requested"`
	Applied      int    `gorm:"not null" json:"applied"`
	VersionToken *int64 `gorm:"" json:"version_token,omitempty"`
	// Unix millis, set by the repository so records order within a second.
	CreatedAt    int64  `gorm:"not null;index:idx_sync_authority_created;autoCreateTime:false" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (SyncRecord) TableName() string {
	return "sync_records"
}
