package sync

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"reportsync/models"

	"gorm.io/gorm"
)

const lockConfigKey = "report_sync_lock"

// acquireLock takes the global run lock. Returns false when another run
// holds a fresh lock. A lock older than LockTimeoutSeconds is treated as
// left behind by a crashed run and reclaimed.
//
// Acquisition is read-check-write, which is not atomic against a true
// concurrent writer. That is acceptable for a single-scheduler deployment;
// a multi-scheduler setup would need a real lease-based lock.
func (e *Engine) acquireLock() (bool, error) {
	now := time.Now().Unix()

	var row models.GlobalConfig
	err := e.DB.Where("name = ?", lockConfigKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.GlobalConfig{Name: lockConfigKey, Value: strconv.FormatInt(now, 10)}
		if err := e.DB.Create(&row).Error; err != nil {
			return false, fmt.Errorf("creating run lock: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading run lock: %w", err)
	}

	if row.Value != "" {
		lockedAt, parseErr := strconv.ParseInt(row.Value, 10, 64)
		if parseErr == nil && now-lockedAt < int64(e.LockTimeoutSeconds) {
			return false, nil
		}
		logSync("reclaiming stale run lock from " + row.Value)
	}

	row.Value = strconv.FormatInt(now, 10)
	if err := e.DB.Save(&row).Error; err != nil {
		return false, fmt.Errorf("writing run lock: %w", err)
	}
	return true, nil
}

// releaseLock clears the run lock. The config row itself stays so the
// unique name index never fights a soft-deleted leftover.
func (e *Engine) releaseLock() {
	err := e.DB.Model(&models.GlobalConfig{}).
		Where("name = ?", lockConfigKey).
		Update("value", "").Error
	if err != nil {
		logSync("failed to release run lock: " + err.Error())
	}
}
