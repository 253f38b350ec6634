package sync

import (
	"fmt"

	"reportsync/models"
)

// The four change detectors each return the (user, course) pairs whose
// source facts changed after the cutoff. A failing detector is reported as
// an error string and treated as an empty set; it never aborts the run.

// detectCompletionChanges finds course-level completions recorded after the
// cutoff for users currently in the company.
func (e *Engine) detectCompletionChanges(companyID uint, cutoff int64) ([]ChangeKey, error) {
	var keys []ChangeKey
	err := e.DB.Table("course_completions AS cc").
		Select("cc.user_id AS user_id, cc.course_id AS course_id").
		Joins("JOIN company_users cu ON cu.user_id = cc.user_id AND cu.company_id = ? AND cu.deleted_at IS NULL", companyID).
		Where("cc.time_completed > ? AND cc.deleted_at IS NULL", cutoff).
		Scan(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("completion detector: %w", err)
	}
	return keys, nil
}

// detectModuleCompletionChanges finds module completions modified after the
// cutoff, mapped to their parent course.
func (e *Engine) detectModuleCompletionChanges(companyID uint, cutoff int64) ([]ChangeKey, error) {
	var keys []ChangeKey
	err := e.DB.Table("module_completions AS mc").
		Select("mc.user_id AS user_id, cm.course_id AS course_id").
		Joins("JOIN course_modules cm ON cm.id = mc.course_module_id").
		Joins("JOIN company_users cu ON cu.user_id = mc.user_id AND cu.company_id = ? AND cu.deleted_at IS NULL", companyID).
		Where("mc.time_modified > ? AND mc.deleted_at IS NULL", cutoff).
		Scan(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("module completion detector: %w", err)
	}
	return keys, nil
}

// detectEnrollmentChanges is two-phase: first find users with any enrolment
// modified after the cutoff, then expand to ALL of each user's active
// student-role enrollments. A single enrolment event (e.g. a bulk cohort
// sync) can mean the user's whole course set needs refreshing, so expanding
// only the touched course would under-report.
func (e *Engine) detectEnrollmentChanges(companyID uint, cutoff int64) ([]ChangeKey, error) {
	var userIDs []uint
	err := e.DB.Table("enrollments AS en").
		Joins("JOIN company_users cu ON cu.user_id = en.user_id AND cu.company_id = ? AND cu.deleted_at IS NULL", companyID).
		Where("en.time_modified > ? AND en.deleted_at IS NULL", cutoff).
		Distinct().
		Pluck("en.user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("enrollment detector: %w", err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	var keys []ChangeKey
	err = e.DB.Table("enrollments AS en").
		Select("en.user_id AS user_id, en.course_id AS course_id").
		Joins("JOIN role_assignments ra ON ra.user_id = en.user_id AND ra.course_id = en.course_id AND ra.role = ? AND ra.deleted_at IS NULL", models.RoleStudent).
		Where("en.user_id IN ? AND en.status = ? AND en.deleted_at IS NULL", userIDs, models.EnrollmentActive).
		Scan(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("enrollment detector (expansion): %w", err)
	}
	return keys, nil
}

// detectProfileChanges finds users whose profile changed after the cutoff
// and after the derived row's own version, joined to the courses already
// tracked for them. It refreshes names and emails in existing rows; it
// never creates rows for untracked courses.
func (e *Engine) detectProfileChanges(companyID uint, cutoff int64) ([]ChangeKey, error) {
	var keys []ChangeKey
	err := e.DB.Table("users AS u").
		Select("pr.user_id AS user_id, pr.course_id AS course_id").
		Joins("JOIN progress_rows pr ON pr.user_id = u.id AND pr.company_id = ? AND pr.deleted_at IS NULL", companyID).
		Where("u.time_modified > ? AND u.time_modified > pr.last_updated AND pr.is_deleted = ? AND u.deleted_at IS NULL", cutoff, false).
		Scan(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("profile detector: %w", err)
	}
	return keys, nil
}

// collectChangedKeys runs all four detectors and merges their results into
// a deduplicated work set. Detector failures come back as error strings;
// recompute is idempotent so duplicate pairs simply collapse.
func (e *Engine) collectChangedKeys(companyID uint, cutoff int64) ([]ChangeKey, []string) {
	detectors := []func(uint, int64) ([]ChangeKey, error){
		e.detectCompletionChanges,
		e.detectModuleCompletionChanges,
		e.detectEnrollmentChanges,
		e.detectProfileChanges,
	}

	seen := make(map[ChangeKey]struct{})
	var workSet []ChangeKey
	var errs []string

	for _, detect := range detectors {
		keys, err := detect(companyID, cutoff)
		if err != nil {
			logSync(fmt.Sprintf("company %d: %v", companyID, err))
			errs = append(errs, err.Error())
			continue
		}
		for _, key := range keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			workSet = append(workSet, key)
		}
	}

	return workSet, errs
}
