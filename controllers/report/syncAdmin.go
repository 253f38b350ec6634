package controllers

import (
	"reportsync/config"
	"reportsync/database"
	"reportsync/middleware"
	"reportsync/models/report"
	syncengine "reportsync/sync"

	"github.com/gofiber/fiber/v2"
)

// ProgressQuery is the validated query for GetCompanyProgress
type ProgressQuery struct {
	CompanyID uint
	CourseID  uint
	Page      int
	Limit     int
}

// TriggerRequest is the validated manual sync trigger body
type TriggerRequest struct {
	SyncType  string `json:"sync_type" validate:"required,oneof=changed full cleanup"`
	CompanyID uint   `json:"company_id" validate:"required,gt=0"`
	HoursBack int    `json:"hours_back" validate:"omitempty,gte=1,lte=720"`
	Confirm   bool   `json:"confirm" validate:"required,eq=true"`
}

// PurgeRequest is the validated maintenance purge body
type PurgeRequest struct {
	CompanyID     uint `json:"company_id" validate:"required,gt=0"`
	RetentionDays int  `json:"retention_days" validate:"omitempty,gte=1"`
	Confirm       bool `json:"confirm" validate:"required,eq=true"`
}

// TriggerSync runs a manual reconciliation for one company. The run happens
// in the foreground so the operator gets the summary back; a held lock
// comes back as a conflict, not an error.
func TriggerSync(c *fiber.Ctx) error {
	req := c.Locals("validatedTrigger").(*TriggerRequest)

	engine := syncengine.NewEngine(database.Database.Db)
	summary, err := engine.RunManualSync(syncengine.ManualSyncOptions{
		SyncType:  req.SyncType,
		CompanyID: req.CompanyID,
		HoursBack: req.HoursBack,
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Sync run failed: "+err.Error(), nil)
	}
	if summary.Skipped {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Another sync run is already in progress!", summary)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sync run completed!", summary)
}

// GetSyncStatus returns the checkpoint rows for a company
func GetSyncStatus(c *fiber.Ctx) error {
	companyID := c.Locals("companyID").(uint)

	var checkpoints []report.SyncCheckpoint
	if err := database.Database.Db.Where("company_id = ?", companyID).
		Order("updated_at desc").Find(&checkpoints).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch sync status!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sync status fetched successfully!", fiber.Map{
		"checkpoints": checkpoints,
	})
}

// PurgeDeletedRows physically removes long-soft-deleted rows for a company
func PurgeDeletedRows(c *fiber.Ctx) error {
	req := c.Locals("validatedPurge").(*PurgeRequest)

	days := req.RetentionDays
	if days <= 0 {
		days = config.AppConfig.PurgeRetentionDays
	}

	engine := syncengine.NewEngine(database.Database.Db)
	purged, err := engine.PurgeDeletedRows(req.CompanyID, days)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Purge failed: "+err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Purge completed!", fiber.Map{
		"purged": purged,
	})
}
