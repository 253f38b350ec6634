package reportRoutes

import (
	controllers "reportsync/controllers/report"
	"reportsync/middleware"
	validators "reportsync/validators/report"

	"github.com/gofiber/fiber/v2"
)

// SetupReportRoutes sets up the reporting and sync admin routes
func SetupReportRoutes(app *fiber.App) {
	reportGroup := app.Group("/report")

	// Consumer-facing reads of the derived progress table
	reportGroup.Get("/progress/:company_id", middleware.JWTMiddleware, validators.ProgressQuery(), controllers.GetCompanyProgress)

	// Operator tooling
	reportGroup.Get("/sync/status/:company_id", middleware.JWTMiddleware, middleware.AdminOnly, validators.CompanyParam(), controllers.GetSyncStatus)
	reportGroup.Post("/sync/trigger", middleware.JWTMiddleware, middleware.AdminOnly, validators.TriggerSync(), controllers.TriggerSync)
	reportGroup.Delete("/progress/purge", middleware.JWTMiddleware, middleware.AdminOnly, validators.PurgeRows(), controllers.PurgeDeletedRows)
}
