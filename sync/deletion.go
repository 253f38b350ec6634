package sync

import (
	"fmt"
	"time"

	"reportsync/models/report"
)

// DetectAndSoftDelete hides derived rows that should no longer be visible:
// the user is deleted or suspended, left the company, has no enrolment row
// for the course anymore, or the course went hidden. This runs every cycle
// regardless of whether the change detectors found anything, because a user
// can be removed from a course without generating any watched change event.
func (e *Engine) DetectAndSoftDelete(companyID uint) (int64, error) {
	now := time.Now().Unix()

	res := e.DB.Exec(`
		UPDATE progress_rows SET is_deleted = ?, last_updated = ?, updated_at = ?
		WHERE company_id = ? AND is_deleted = ?
		AND (
			NOT EXISTS (
				SELECT 1 FROM users u
				WHERE u.id = progress_rows.user_id AND u.deleted = ? AND u.suspended = ?
				AND u.deleted_at IS NULL
			)
			OR NOT EXISTS (
				SELECT 1 FROM company_users cu
				WHERE cu.user_id = progress_rows.user_id AND cu.company_id = progress_rows.company_id
				AND cu.deleted_at IS NULL
			)
			OR NOT EXISTS (
				SELECT 1 FROM enrollments en
				WHERE en.user_id = progress_rows.user_id AND en.course_id = progress_rows.course_id
				AND en.deleted_at IS NULL
			)
			OR NOT EXISTS (
				SELECT 1 FROM courses c
				WHERE c.id = progress_rows.course_id AND c.visible = ? AND c.is_deleted = ?
				AND c.deleted_at IS NULL
			)
		)`,
		true, now, time.Now(),
		companyID, false,
		false, false,
		true, false,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("deletion sweep for company %d: %w", companyID, res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeDeletedRows physically removes rows that were soft-deleted before
// the retention cutoff. This is an explicit maintenance operation reached
// only through the admin API; the scheduler never hard-deletes.
func (e *Engine) PurgeDeletedRows(companyID uint, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()

	res := e.DB.Unscoped().
		Where("company_id = ? AND is_deleted = ? AND last_updated < ?", companyID, true, cutoff).
		Delete(&report.ProgressRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("purging rows for company %d: %w", companyID, res.Error)
	}
	return res.RowsAffected, nil
}
