package sync

import (
	"testing"
	"time"

	"reportsync/models"
	"reportsync/models/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQualifiedRow(t *testing.T, e *Engine, st models.APISettings) (models.User, models.Course) {
	t.Helper()
	now := time.Now().Unix()
	user := seedUser(t, e.DB, st.CompanyID, "Ada", "Lovelace", 0)
	course := seedCourse(t, e.DB, "CourseA", true)
	seedEnrollment(t, e.DB, user.ID, course.ID, models.EnrollmentActive, now-1000, now-1000)

	_, err := e.Recompute(user.ID, st.CompanyID, course.ID)
	require.NoError(t, err)
	return user, course
}

func TestDeletionSweepIsIndependentOfChanges(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")
	user, course := seedQualifiedRow(t, e, st)

	// Remove the user from the company without touching any change source
	// the detectors watch.
	require.NoError(t, e.DB.Unscoped().
		Where("company_id = ? AND user_id = ?", st.CompanyID, user.ID).
		Delete(&models.CompanyUser{}).Error)

	swept, err := e.DetectAndSoftDelete(st.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	row := loadRow(t, e.DB, user.ID, course.ID, st.CompanyID)
	require.NotNil(t, row)
	assert.True(t, row.IsDeleted)
}

func TestDeletionSweepSuspendedUser(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")
	user, course := seedQualifiedRow(t, e, st)

	require.NoError(t, e.DB.Model(&models.User{}).
		Where("id = ?", user.ID).Update("suspended", true).Error)

	swept, err := e.DetectAndSoftDelete(st.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	row := loadRow(t, e.DB, user.ID, course.ID, st.CompanyID)
	assert.True(t, row.IsDeleted)
}

func TestDeletionSweepHiddenCourse(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")
	user, course := seedQualifiedRow(t, e, st)

	require.NoError(t, e.DB.Model(&models.Course{}).
		Where("id = ?", course.ID).Update("visible", false).Error)

	swept, err := e.DetectAndSoftDelete(st.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	row := loadRow(t, e.DB, user.ID, course.ID, st.CompanyID)
	assert.True(t, row.IsDeleted)
}

func TestDeletionSweepLeavesQualifiedRowsAlone(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")
	user, course := seedQualifiedRow(t, e, st)

	swept, err := e.DetectAndSoftDelete(st.CompanyID)
	require.NoError(t, err)
	assert.Zero(t, swept)

	row := loadRow(t, e.DB, user.ID, course.ID, st.CompanyID)
	assert.False(t, row.IsDeleted)
}

func TestPurgeRemovesOnlyOldSoftDeletedRows(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")

	old := time.Now().AddDate(0, 0, -60).Unix()
	recent := time.Now().Unix()

	require.NoError(t, e.DB.Create(&report.ProgressRow{
		UserID: 1, CourseID: 1, CompanyID: st.CompanyID,
		Status: report.StatusNotStarted, IsDeleted: true, LastUpdated: old,
	}).Error)
	require.NoError(t, e.DB.Create(&report.ProgressRow{
		UserID: 2, CourseID: 1, CompanyID: st.CompanyID,
		Status: report.StatusNotStarted, IsDeleted: true, LastUpdated: recent,
	}).Error)
	require.NoError(t, e.DB.Create(&report.ProgressRow{
		UserID: 3, CourseID: 1, CompanyID: st.CompanyID,
		Status: report.StatusCompleted, IsDeleted: false, LastUpdated: old,
	}).Error)

	purged, err := e.PurgeDeletedRows(st.CompanyID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var remaining int64
	require.NoError(t, e.DB.Unscoped().Model(&report.ProgressRow{}).
		Where("company_id = ?", st.CompanyID).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}
