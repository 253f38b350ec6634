package models

import (
	"gorm.io/gorm"
)

// Course is a course in the source schema. Hidden courses (Visible=false)
// disqualify their derived progress rows.
type Course struct {
	gorm.Model
	FullName  string `json:"fullname"`
	ShortName string `json:"shortname"`
	Visible   bool   `json:"visible" gorm:"default:true"`
	IsDeleted bool   `gorm:"default:false"`
}

// CourseModule is an activity inside a course. Only modules with completion
// tracking enabled count toward the progress percentage.
type CourseModule struct {
	gorm.Model
	CourseID          uint   `json:"course_id" gorm:"index;not null"`
	Name              string `json:"name"`
	CompletionEnabled bool   `json:"completion_enabled" gorm:"default:true"`
	Visible           bool   `json:"visible" gorm:"default:true"`
}
