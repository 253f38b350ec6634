package sync

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"reportsync/models"
	"reportsync/models/report"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.CompanyUser{},
		&models.Course{},
		&models.CourseModule{},
		&models.Enrollment{},
		&models.RoleAssignment{},
		&models.CourseCompletion{},
		&models.ModuleCompletion{},
		&models.APISettings{},
		&models.GlobalConfig{},
		&report.ProgressRow{},
		&report.SyncCheckpoint{},
	))

	return db
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return &Engine{
		DB:                 setupTestDB(t),
		LookbackHours:      24,
		MaxRunSeconds:      300,
		LockTimeoutSeconds: 3600,
		MarginSeconds:      0,
		startedAt:          time.Now(),
	}
}

func seedCompany(t *testing.T, db *gorm.DB, name string) models.APISettings {
	t.Helper()
	company := models.Company{Name: name, ShortName: strings.ToLower(name)}
	require.NoError(t, db.Create(&company).Error)

	settings := models.APISettings{
		CompanyID: company.ID,
		Enabled:   true,
		APIToken:  "token-" + name,
	}
	require.NoError(t, db.Create(&settings).Error)
	return settings
}

func seedUser(t *testing.T, db *gorm.DB, companyID uint, first, last string, timeModified int64) models.User {
	t.Helper()
	user := models.User{
		FirstName:    first,
		LastName:     last,
		Email:        strings.ToLower(first + "." + last + "@example.com"),
		TimeModified: timeModified,
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.CompanyUser{CompanyID: companyID, UserID: user.ID}).Error)
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, name string, visible bool) models.Course {
	t.Helper()
	course := models.Course{FullName: name, ShortName: strings.ToLower(name), Visible: visible}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedModule(t *testing.T, db *gorm.DB, courseID uint, name string) models.CourseModule {
	t.Helper()
	module := models.CourseModule{CourseID: courseID, Name: name, CompletionEnabled: true, Visible: true}
	require.NoError(t, db.Create(&module).Error)
	return module
}

func seedEnrollment(t *testing.T, db *gorm.DB, userID, courseID uint, status string, timeCreated, timeModified int64) models.Enrollment {
	t.Helper()
	enrollment := models.Enrollment{
		UserID:       userID,
		CourseID:     courseID,
		Status:       status,
		TimeCreated:  timeCreated,
		TimeModified: timeModified,
	}
	require.NoError(t, db.Create(&enrollment).Error)
	require.NoError(t, db.Create(&models.RoleAssignment{
		UserID: userID, CourseID: courseID, Role: models.RoleStudent,
	}).Error)
	return enrollment
}

func seedCompletion(t *testing.T, db *gorm.DB, userID, courseID uint, started, completed int64) models.CourseCompletion {
	t.Helper()
	completion := models.CourseCompletion{
		UserID:        userID,
		CourseID:      courseID,
		TimeStarted:   started,
		TimeCompleted: completed,
	}
	require.NoError(t, db.Create(&completion).Error)
	return completion
}

func seedModuleCompletion(t *testing.T, db *gorm.DB, userID, moduleID uint, state int, timeModified int64) models.ModuleCompletion {
	t.Helper()
	mc := models.ModuleCompletion{
		UserID:          userID,
		CourseModuleID:  moduleID,
		CompletionState: state,
		TimeModified:    timeModified,
	}
	require.NoError(t, db.Create(&mc).Error)
	return mc
}

func loadRow(t *testing.T, db *gorm.DB, userID, courseID, companyID uint) *report.ProgressRow {
	t.Helper()
	var row report.ProgressRow
	err := db.Where("user_id = ? AND course_id = ? AND company_id = ?", userID, courseID, companyID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	require.NoError(t, err)
	return &row
}
