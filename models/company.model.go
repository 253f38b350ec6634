package models

import (
	"gorm.io/gorm"
)

// Company is a tenant in the source schema
type Company struct {
	gorm.Model
	Name      string `json:"name"`
	ShortName string `json:"shortname"`
	IsDeleted bool   `gorm:"default:false"`
}

// CompanyUser maps a user into a company
type CompanyUser struct {
	gorm.Model
	CompanyID uint `json:"company_id" gorm:"index;not null"`
	UserID    uint `json:"user_id" gorm:"index;not null"`
}
