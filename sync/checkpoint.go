package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"reportsync/models/report"

	"gorm.io/gorm"
)

// Sync identities. Scheduled and manual runs keep separate checkpoint
// lineages so a manual trigger never moves the scheduled cutoff.
const (
	IdentityScheduled = "scheduled"
	IdentityManual    = "manual"
)

const maxCheckpointError = 2000

// checkpointHash derives the checkpoint discriminator from the company's
// API token and the sync identity.
func checkpointHash(apiToken, identity string) string {
	sum := sha256.Sum256([]byte(apiToken + ":" + identity))
	return hex.EncodeToString(sum[:])
}

// loadCheckpoint returns the checkpoint for (company, identity hash), or
// nil when this identity has never synced the company.
func (e *Engine) loadCheckpoint(companyID uint, tokenHash string) (*report.SyncCheckpoint, error) {
	var cp report.SyncCheckpoint
	err := e.DB.Where("company_id = ? AND token_hash = ?", companyID, tokenHash).First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint for company %d: %w", companyID, err)
	}
	return &cp, nil
}

// saveCheckpoint records the outcome of a sync run for one company and
// identity. Every call advances LastSyncTimestamp and increments
// TotalSyncs; the checkpoint row is never deleted.
func (e *Engine) saveCheckpoint(companyID uint, tokenHash, mode string, windowHours int,
	syncedAt int64, records int, errs []string) error {

	status := report.SyncStatusSuccess
	errText := ""
	if len(errs) > 0 {
		status = report.SyncStatusFailed
		errText = strings.Join(errs, "; ")
		if len(errText) > maxCheckpointError {
			errText = errText[:maxCheckpointError]
		}
	}

	cp, err := e.loadCheckpoint(companyID, tokenHash)
	if err != nil {
		return err
	}

	if cp == nil {
		cp = &report.SyncCheckpoint{
			CompanyID: companyID,
			TokenHash: tokenHash,
		}
	}

	cp.LastSyncTimestamp = syncedAt
	cp.SyncMode = mode
	cp.SyncWindowHours = windowHours
	cp.LastSyncRecords = records
	cp.LastSyncStatus = status
	cp.LastSyncError = errText
	cp.TotalSyncs++

	if err := e.DB.Save(cp).Error; err != nil {
		return fmt.Errorf("saving checkpoint for company %d: %w", companyID, err)
	}
	return nil
}
