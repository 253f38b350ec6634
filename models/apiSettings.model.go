package models

import (
	"gorm.io/gorm"
)

// APISettings is the per-company integration record. Companies without a
// row (or with Enabled=false) are skipped by the reconciliation run. The
// APIToken is hashed together with the sync identity to key checkpoints.
// CourseAllowlist (CSV of course IDs) only filters what the reporting API
// serves; the engine always computes the full truth.
type APISettings struct {
	gorm.Model
	CompanyID       uint   `json:"company_id" gorm:"uniqueIndex;not null"`
	Enabled         bool   `json:"enabled" gorm:"default:true"`
	APIToken        string `json:"-"`
	CourseAllowlist string `json:"course_allowlist"`
}

func (APISettings) TableName() string { return "api_settings" }
