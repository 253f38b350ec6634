package sync

import (
	"errors"
	"fmt"
	"time"

	"reportsync/models"
	"reportsync/models/report"

	"gorm.io/gorm"
)

// RecomputeResult reports what a single recompute did to the derived row
type RecomputeResult struct {
	Created bool
	Updated bool
	Deleted bool
}

// moduleAggregate summarizes a user's module completion inside one course
type moduleAggregate struct {
	Total     int64 `gorm:"column:total"`
	Completed int64 `gorm:"column:completed"`
	MaxTime   int64 `gorm:"column:max_time"`
}

// Recompute re-derives the full projection for one (user, company, course)
// key from the source tables and upserts it. When the source data no longer
// qualifies the key (user deleted/suspended/missing, user not in the
// company, course hidden, no enrolment row at all) any existing derived row
// is soft-deleted instead.
func (e *Engine) Recompute(userID, companyID, courseID uint) (RecomputeResult, error) {
	var result RecomputeResult

	var user models.User
	err := e.DB.Where("id = ? AND deleted = ? AND suspended = ?", userID, false, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e.disqualify(userID, companyID, courseID)
	}
	if err != nil {
		return result, fmt.Errorf("loading user %d: %w", userID, err)
	}

	var memberCount int64
	if err := e.DB.Model(&models.CompanyUser{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&memberCount).Error; err != nil {
		return result, fmt.Errorf("checking membership for user %d: %w", userID, err)
	}
	if memberCount == 0 {
		return e.disqualify(userID, companyID, courseID)
	}

	var course models.Course
	err = e.DB.Where("id = ? AND visible = ? AND is_deleted = ?", courseID, true, false).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e.disqualify(userID, companyID, courseID)
	}
	if err != nil {
		return result, fmt.Errorf("loading course %d: %w", courseID, err)
	}

	var enrollment models.Enrollment
	hasEnrollment := true
	err = e.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hasEnrollment = false
	} else if err != nil {
		return result, fmt.Errorf("loading enrollment for user %d course %d: %w", userID, courseID, err)
	}
	if !hasEnrollment {
		// No enrolment record at all disqualifies the key. A row that is
		// present but inactive keeps the key alive with status not_enrolled.
		return e.disqualify(userID, companyID, courseID)
	}

	var completion models.CourseCompletion
	hasCompletion := true
	err = e.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&completion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hasCompletion = false
	} else if err != nil {
		return result, fmt.Errorf("loading completion for user %d course %d: %w", userID, courseID, err)
	}

	var agg moduleAggregate
	err = e.DB.Table("course_modules AS cm").
		Select("COUNT(cm.id) AS total, "+
			"COALESCE(SUM(CASE WHEN mc.completion_state >= 1 THEN 1 ELSE 0 END), 0) AS completed, "+
			"COALESCE(MAX(CASE WHEN mc.completion_state >= 1 THEN mc.time_modified ELSE 0 END), 0) AS max_time").
		Joins("LEFT JOIN module_completions mc ON mc.course_module_id = cm.id AND mc.user_id = ? AND mc.deleted_at IS NULL", userID).
		Where("cm.course_id = ? AND cm.completion_enabled = ? AND cm.deleted_at IS NULL", courseID, true).
		Scan(&agg).Error
	if err != nil {
		return result, fmt.Errorf("aggregating modules for user %d course %d: %w", userID, courseID, err)
	}

	row := e.deriveRow(user, course, enrollment, completion, hasCompletion, agg)
	row.UserID = userID
	row.CompanyID = companyID
	row.CourseID = courseID

	return e.upsertRow(row)
}

// deriveRow computes the derived fields from current source truth
func (e *Engine) deriveRow(user models.User, course models.Course, enrollment models.Enrollment,
	completion models.CourseCompletion, hasCompletion bool, agg moduleAggregate) report.ProgressRow {

	row := report.ProgressRow{
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		CourseName: course.FullName,
	}

	allModulesDone := agg.Total > 0 && agg.Completed == agg.Total

	if hasCompletion && completion.TimeStarted > 0 {
		row.TimeStarted = completion.TimeStarted
	} else if enrollment.TimeCreated > 0 {
		row.TimeStarted = enrollment.TimeCreated
	}

	if hasCompletion && completion.TimeCompleted > 0 {
		row.TimeCompleted = completion.TimeCompleted
	} else if allModulesDone {
		row.TimeCompleted = agg.MaxTime
	}

	switch {
	case row.TimeCompleted > 0 || allModulesDone:
		row.Percentage = 100.0
		row.Status = report.StatusCompleted
	case agg.Completed > 0:
		row.Percentage = float64(agg.Completed) / float64(agg.Total) * 100.0
		row.Status = report.StatusInProgress
	case enrollment.Status == models.EnrollmentActive:
		row.Status = report.StatusNotStarted
	default:
		row.Status = report.StatusNotEnrolled
	}

	return row
}

// upsertRow overwrites the existing derived row for the key or inserts a
// new one. Writes are always full overwrites, never partial patches.
func (e *Engine) upsertRow(row report.ProgressRow) (RecomputeResult, error) {
	var result RecomputeResult
	now := time.Now().Unix()

	var existing report.ProgressRow
	err := e.DB.Where("user_id = ? AND course_id = ? AND company_id = ?",
		row.UserID, row.CourseID, row.CompanyID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row.LastUpdated = now
		row.IsDeleted = false
		if err := e.DB.Create(&row).Error; err != nil {
			return result, fmt.Errorf("inserting row for user %d course %d: %w", row.UserID, row.CourseID, err)
		}
		result.Created = true
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("loading row for user %d course %d: %w", row.UserID, row.CourseID, err)
	}

	existing.FirstName = row.FirstName
	existing.LastName = row.LastName
	existing.Email = row.Email
	existing.CourseName = row.CourseName
	existing.TimeStarted = row.TimeStarted
	existing.TimeCompleted = row.TimeCompleted
	existing.Percentage = row.Percentage
	existing.Status = row.Status
	existing.LastUpdated = now
	existing.IsDeleted = false

	if err := e.DB.Save(&existing).Error; err != nil {
		return result, fmt.Errorf("updating row for user %d course %d: %w", row.UserID, row.CourseID, err)
	}
	result.Updated = true
	return result, nil
}

// disqualify soft-deletes any live derived row for the key
func (e *Engine) disqualify(userID, companyID, courseID uint) (RecomputeResult, error) {
	var result RecomputeResult
	res := e.DB.Model(&report.ProgressRow{}).
		Where("user_id = ? AND course_id = ? AND company_id = ? AND is_deleted = ?",
			userID, courseID, companyID, false).
		Updates(map[string]interface{}{
			"is_deleted":   true,
			"last_updated": time.Now().Unix(),
		})
	if res.Error != nil {
		return result, fmt.Errorf("soft-deleting row for user %d course %d: %w", userID, courseID, res.Error)
	}
	result.Deleted = res.RowsAffected > 0
	return result, nil
}
