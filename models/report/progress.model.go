package report

import (
	"gorm.io/gorm"
)

// Derived progress status values
const (
	StatusCompleted   = "completed"
	StatusInProgress  = "in_progress"
	StatusNotStarted  = "not_started"
	StatusNotEnrolled = "not_enrolled"
)

// ProgressRow is the denormalized reporting row for one (user, course,
// company) triple. It is fully overwritten on every recompute; LastUpdated
// is the row's logical version. Consumers must filter IsDeleted.
type ProgressRow struct {
	gorm.Model
	UserID    uint `json:"user_id" gorm:"uniqueIndex:idx_user_course_company;not null"`
	CourseID  uint `json:"course_id" gorm:"uniqueIndex:idx_user_course_company;not null"`
	CompanyID uint `json:"company_id" gorm:"uniqueIndex:idx_user_course_company;index;not null"`

	FirstName  string `json:"firstname"`
	LastName   string `json:"lastname"`
	Email      string `json:"email"`
	CourseName string `json:"coursename"`

	TimeStarted   int64   `json:"timestarted" gorm:"default:0"`   // epoch seconds, 0 = unset
	TimeCompleted int64   `json:"timecompleted" gorm:"default:0"` // epoch seconds, 0 = unset
	Percentage    float64 `json:"percentage" gorm:"default:0"`
	Status        string  `json:"status" gorm:"default:'not_started'"`

	LastUpdated int64 `json:"last_updated" gorm:"default:0"`
	IsDeleted   bool  `json:"is_deleted" gorm:"default:false;index"`
}
