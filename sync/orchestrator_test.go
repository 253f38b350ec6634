package sync

import (
	"testing"
	"time"

	"reportsync/models"
	"reportsync/models/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduledSyncEndToEnd(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")
	now := time.Now().Unix()

	user1 := seedUser(t, e.DB, st.CompanyID, "Ada", "Lovelace", 0)
	user2 := seedUser(t, e.DB, st.CompanyID, "Bob", "Smith", 0)
	course10 := seedCourse(t, e.DB, "Course10", true)
	course20 := seedCourse(t, e.DB, "Course20", true)

	// Enrolments predate the lookback window; only user 1's completion of
	// course 10 is fresh source activity.
	oldTime := now - int64(e.LookbackHours)*3600 - 1000
	seedEnrollment(t, e.DB, user1.ID, course10.ID, models.EnrollmentActive, oldTime, oldTime)
	seedEnrollment(t, e.DB, user1.ID, course20.ID, models.EnrollmentActive, oldTime, oldTime)
	seedEnrollment(t, e.DB, user2.ID, course10.ID, models.EnrollmentActive, oldTime, oldTime)
	completedAt := now - 100
	seedCompletion(t, e.DB, user1.ID, course10.ID, oldTime, completedAt)

	summary, err := e.RunScheduledSync()
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.False(t, summary.Skipped)
	assert.False(t, summary.TimedOut)
	assert.Equal(t, 1, summary.Companies)
	assert.Equal(t, 1, summary.Created)
	assert.Empty(t, summary.Errors)

	row := loadRow(t, e.DB, user1.ID, course10.ID, st.CompanyID)
	require.NotNil(t, row)
	assert.Equal(t, report.StatusCompleted, row.Status)
	assert.Equal(t, 100.0, row.Percentage)
	assert.Equal(t, completedAt, row.TimeCompleted)

	// No source activity, no rows.
	assert.Nil(t, loadRow(t, e.DB, user1.ID, course20.ID, st.CompanyID))
	assert.Nil(t, loadRow(t, e.DB, user2.ID, course10.ID, st.CompanyID))

	// Checkpoint written under the scheduled identity.
	cp, err := e.loadCheckpoint(st.CompanyID, checkpointHash(st.APIToken, IdentityScheduled))
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, report.SyncStatusSuccess, cp.LastSyncStatus)
	assert.Equal(t, 1, cp.LastSyncRecords)
	assert.Equal(t, 1, cp.TotalSyncs)

	// Run summary persisted for the status tooling.
	var lastRun models.GlobalConfig
	require.NoError(t, e.DB.Where("name = ?", lastRunConfigKey).First(&lastRun).Error)
	assert.Contains(t, lastRun.Value, summary.RunID)

	// Lock released at the end of the run.
	ok, err := e.acquireLock()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestScheduledSyncSkipsWhenLockHeld(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")

	holder := &Engine{DB: e.DB, LockTimeoutSeconds: 3600}
	ok, err := holder.acquireLock()
	require.NoError(t, err)
	require.True(t, ok)

	summary, err := e.RunScheduledSync()
	require.NoError(t, err)
	assert.True(t, summary.Skipped)
	assert.Zero(t, summary.Companies)

	// A skipped run writes nothing.
	cp, err := e.loadCheckpoint(st.CompanyID, checkpointHash(st.APIToken, IdentityScheduled))
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestScheduledSyncIgnoresUnconfiguredCompanies(t *testing.T) {
	e := newTestEngine(t)
	configured := seedCompany(t, e.DB, "Acme")

	// Globex has no API settings record at all.
	unconfigured := models.Company{Name: "Globex", ShortName: "globex"}
	require.NoError(t, e.DB.Create(&unconfigured).Error)

	// Hooli is configured but disabled.
	disabledCompany := models.Company{Name: "Hooli", ShortName: "hooli"}
	require.NoError(t, e.DB.Create(&disabledCompany).Error)
	require.NoError(t, e.DB.Create(&models.APISettings{
		CompanyID: disabledCompany.ID, Enabled: false, APIToken: "t",
	}).Error)

	summary, err := e.RunScheduledSync()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Companies)

	var checkpoints []report.SyncCheckpoint
	require.NoError(t, e.DB.Find(&checkpoints).Error)
	require.Len(t, checkpoints, 1)
	assert.Equal(t, configured.CompanyID, checkpoints[0].CompanyID)
}

func TestBudgetStopsRunEarly(t *testing.T) {
	e := newTestEngine(t)
	seedCompany(t, e.DB, "Acme")
	seedCompany(t, e.DB, "Globex")

	// Zero budget: the run must stop before touching any company.
	e.MaxRunSeconds = 0
	e.MarginSeconds = 0

	summary, err := e.RunScheduledSync()
	require.NoError(t, err)
	assert.True(t, summary.TimedOut)
	assert.Zero(t, summary.Companies)

	var checkpoints int64
	require.NoError(t, e.DB.Model(&report.SyncCheckpoint{}).Count(&checkpoints).Error)
	assert.Zero(t, checkpoints)
}

func TestBudgetStopsWorkSetMidCompany(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")
	now := time.Now().Unix()

	user := seedUser(t, e.DB, st.CompanyID, "Ada", "Lovelace", 0)
	course := seedCourse(t, e.DB, "CourseA", true)
	seedEnrollment(t, e.DB, user.ID, course.ID, models.EnrollmentActive, now-500, now-50)

	e.MaxRunSeconds = 0
	e.MarginSeconds = 0
	e.startedAt = time.Now()

	res := CompanyResult{CompanyID: st.CompanyID}
	e.runWorkSet(&res, st.CompanyID, []ChangeKey{{UserID: user.ID, CourseID: course.ID}})

	assert.True(t, res.TimedOut)
	assert.Zero(t, res.Created)
	assert.Nil(t, loadRow(t, e.DB, user.ID, course.ID, st.CompanyID))
}

func TestDetectorFailureMarksCheckpointFailed(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")

	require.NoError(t, e.DB.Migrator().DropTable(&models.CourseCompletion{}))

	summary, err := e.RunScheduledSync()
	require.NoError(t, err)
	require.NotEmpty(t, summary.Errors)

	cp, err := e.loadCheckpoint(st.CompanyID, checkpointHash(st.APIToken, IdentityScheduled))
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, report.SyncStatusFailed, cp.LastSyncStatus)
	assert.Contains(t, cp.LastSyncError, "completion detector")
}

func TestSecondRunUsesCheckpointCutoff(t *testing.T) {
	e := newTestEngine(t)
	st := seedCompany(t, e.DB, "Acme")
	now := time.Now().Unix()

	user := seedUser(t, e.DB, st.CompanyID, "Ada", "Lovelace", 0)
	course := seedCourse(t, e.DB, "CourseA", true)
	oldTime := now - int64(e.LookbackHours)*3600 - 1000
	seedEnrollment(t, e.DB, user.ID, course.ID, models.EnrollmentActive, oldTime, oldTime)
	seedCompletion(t, e.DB, user.ID, course.ID, oldTime, now-100)

	first, err := e.RunScheduledSync()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	// Nothing changed after the first run's checkpoint, so the completion
	// no longer falls inside the second run's window.
	second, err := e.RunScheduledSync()
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Updated)

	cp, err := e.loadCheckpoint(st.CompanyID, checkpointHash(st.APIToken, IdentityScheduled))
	require.NoError(t, err)
	assert.Equal(t, 2, cp.TotalSyncs)
}
