package models

import (
	"gorm.io/gorm"
)

// CourseCompletion is a course-level completion record from the source
// schema. TimeCompleted=0 means the course is started but not finished.
type CourseCompletion struct {
	gorm.Model
	UserID        uint  `json:"user_id" gorm:"index;not null"`
	CourseID      uint  `json:"course_id" gorm:"index;not null"`
	TimeStarted   int64 `json:"timestarted" gorm:"default:0"`
	TimeCompleted int64 `json:"timecompleted" gorm:"default:0"`
}

// ModuleCompletion records a user's completion state for one course module.
// CompletionState >= 1 means the module counts as complete.
type ModuleCompletion struct {
	gorm.Model
	UserID          uint  `json:"user_id" gorm:"index;not null"`
	CourseModuleID  uint  `json:"course_module_id" gorm:"index;not null"`
	CompletionState int   `json:"completionstate" gorm:"default:0"`
	TimeModified    int64 `json:"timemodified" gorm:"default:0"`
}
