package models

import (
	"gorm.io/gorm"
)

// User is a row in the source user table. TimeModified carries the epoch
// second of the last profile edit and drives the profile-change detector.
type User struct {
	gorm.Model
	FirstName    string `json:"firstname"`
	LastName     string `json:"lastname"`
	Email        string `json:"email" gorm:"index;not null"`
	Suspended    bool   `json:"suspended" gorm:"default:false"`
	Deleted      bool   `json:"deleted" gorm:"default:false"`
	TimeModified int64  `json:"timemodified" gorm:"default:0"`
}
