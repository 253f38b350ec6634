package models

import (
	"gorm.io/gorm"
)

// GlobalConfig is a shared key/value row. The sync engine stores its run
// lock and last-run summary here.
type GlobalConfig struct {
	gorm.Model
	Name  string `json:"name" gorm:"uniqueIndex;not null"`
	Value string `json:"value"`
}
