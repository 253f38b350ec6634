package sync

import (
	"errors"
	"fmt"
	"time"

	"reportsync/models"

	"gorm.io/gorm"
)

// Manual sync types
const (
	SyncTypeChanged = "changed"
	SyncTypeFull    = "full"
	SyncTypeCleanup = "cleanup"
)

// ManualSyncOptions is the operator-facing trigger contract
type ManualSyncOptions struct {
	SyncType  string
	CompanyID uint
	HoursBack int
}

// RunManualSync reconciles one company on operator demand. It takes the
// same run lock as the scheduler but keeps its own checkpoint lineage, so
// manual runs never move the scheduled cutoff.
//
//   - "changed": the regular detector + recompute path over an explicit
//     lookback window.
//   - "full": recomputes every active student enrolment pair for the
//     company, ignoring checkpoints.
//   - "cleanup": only the deletion sweep.
func (e *Engine) RunManualSync(opts ManualSyncOptions) (*RunSummary, error) {
	var st models.APISettings
	err := e.DB.Where("company_id = ? AND enabled = ?", opts.CompanyID, true).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("company %d has no enabled API settings", opts.CompanyID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading API settings for company %d: %w", opts.CompanyID, err)
	}

	hours := opts.HoursBack
	if hours <= 0 {
		hours = e.LookbackHours
	}

	return e.run(IdentityManual, func(summary *RunSummary, _ []models.APISettings) error {
		var res CompanyResult

		switch opts.SyncType {
		case SyncTypeChanged:
			cutoff := time.Now().Unix() - int64(hours)*3600
			res = e.processCompany(st, IdentityManual, SyncTypeChanged, cutoff, hours)

		case SyncTypeFull:
			res = CompanyResult{CompanyID: st.CompanyID}
			keys, err := e.fullEnrollmentKeys(st.CompanyID)
			if err != nil {
				res.Errors = append(res.Errors, err.Error())
			}
			e.runWorkSet(&res, st.CompanyID, keys)
			e.finishCompany(&res, st, IdentityManual, SyncTypeFull, 0)

		case SyncTypeCleanup:
			res = CompanyResult{CompanyID: st.CompanyID}
			e.finishCompany(&res, st, IdentityManual, SyncTypeCleanup, 0)

		default:
			return fmt.Errorf("unknown sync type %q", opts.SyncType)
		}

		summary.merge(res)
		return nil
	})
}

// fullEnrollmentKeys enumerates every (user, course) pair reachable through
// the company's active student-role enrollments.
func (e *Engine) fullEnrollmentKeys(companyID uint) ([]ChangeKey, error) {
	var keys []ChangeKey
	err := e.DB.Table("enrollments AS en").
		Select("en.user_id AS user_id, en.course_id AS course_id").
		Joins("JOIN company_users cu ON cu.user_id = en.user_id AND cu.company_id = ? AND cu.deleted_at IS NULL", companyID).
		Joins("JOIN role_assignments ra ON ra.user_id = en.user_id AND ra.course_id = en.course_id AND ra.role = ? AND ra.deleted_at IS NULL", models.RoleStudent).
		Where("en.status = ? AND en.deleted_at IS NULL", models.EnrollmentActive).
		Scan(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("enumerating enrollments for company %d: %w", companyID, err)
	}
	return keys, nil
}
