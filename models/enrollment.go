package models

import (
	"gorm.io/gorm"
)

// Enrollment status values
const (
	EnrollmentActive    = "active"
	EnrollmentSuspended = "suspended"
)

// RoleStudent gates which role assignments count as course participation
const RoleStudent = "student"

// Enrollment links a user to a course. TimeModified is the epoch second of
// the last enrolment change and drives the enrollment detector.
type Enrollment struct {
	gorm.Model
	UserID       uint   `json:"user_id" gorm:"index;not null"`
	CourseID     uint   `json:"course_id" gorm:"index;not null"`
	Status       string `json:"status" gorm:"default:'active'"` // active, suspended
	TimeStart    int64  `json:"timestart" gorm:"default:0"`
	TimeCreated  int64  `json:"timecreated" gorm:"default:0"`
	TimeModified int64  `json:"timemodified" gorm:"default:0"`
}

// RoleAssignment records a role a user holds in a course context
type RoleAssignment struct {
	gorm.Model
	UserID   uint   `json:"user_id" gorm:"index;not null"`
	CourseID uint   `json:"course_id" gorm:"index;not null"`
	Role     string `json:"role" gorm:"default:'student'"`
}
