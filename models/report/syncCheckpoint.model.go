package report

import (
	"gorm.io/gorm"
)

// Sync outcome values
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncCheckpoint records the last sync outcome per (company, identity).
// TokenHash discriminates checkpoint lineages (scheduled vs manual runs for
// the same company), so a manual run never corrupts the scheduled cutoff.
type SyncCheckpoint struct {
	gorm.Model
	CompanyID uint   `json:"company_id" gorm:"uniqueIndex:idx_company_token;not null"`
	TokenHash string `json:"token_hash" gorm:"uniqueIndex:idx_company_token;size:64;not null"`

	LastSyncTimestamp int64  `json:"last_sync_timestamp" gorm:"default:0"`
	SyncMode          string `json:"sync_mode"`
	SyncWindowHours   int    `json:"sync_window_hours" gorm:"default:0"`
	LastSyncRecords   int    `json:"last_sync_records" gorm:"default:0"`
	LastSyncStatus    string `json:"last_sync_status"`
	LastSyncError     string `json:"last_sync_error"`
	TotalSyncs        int    `json:"total_syncs" gorm:"default:0"`
}
