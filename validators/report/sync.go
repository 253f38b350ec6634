package reportValidator

import (
	"strconv"
	"strings"

	controllers "reportsync/controllers/report"
	"reportsync/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// TriggerSync validates the manual sync trigger body
func TriggerSync() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(controllers.TriggerRequest)
		if err := c.BodyParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(req); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "SyncType":
					errors["sync_type"] = "Sync type must be one of: changed, full, cleanup!"
				case "CompanyID":
					errors["company_id"] = "Company ID is required!"
				case "HoursBack":
					errors["hours_back"] = "Hours back must be between 1 and 720!"
				case "Confirm":
					errors["confirm"] = "Confirm must be true to run a manual sync!"
				}
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedTrigger", req)
		return c.Next()
	}
}

// PurgeRows validates the maintenance purge body
func PurgeRows() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(controllers.PurgeRequest)
		if err := c.BodyParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(req); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "CompanyID":
					errors["company_id"] = "Company ID is required!"
				case "RetentionDays":
					errors["retention_days"] = "Retention days must be at least 1!"
				case "Confirm":
					errors["confirm"] = "Confirm must be true to purge rows!"
				}
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPurge", req)
		return c.Next()
	}
}

// CompanyParam validates the company ID path parameter
func CompanyParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyIDStr := strings.TrimSpace(c.Params("company_id"))
		if companyIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Company ID is required!", nil)
		}

		companyID, err := strconv.Atoi(companyIDStr)
		if err != nil || companyID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Company ID!", nil)
		}

		c.Locals("companyID", uint(companyID))
		return c.Next()
	}
}

// ProgressQuery validates the progress listing query parameters
func ProgressQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyIDStr := strings.TrimSpace(c.Params("company_id"))
		companyID, err := strconv.Atoi(companyIDStr)
		if err != nil || companyID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Company ID!", nil)
		}

		query := &controllers.ProgressQuery{
			CompanyID: uint(companyID),
			Page:      c.QueryInt("page", 1),
			Limit:     c.QueryInt("limit", 50),
		}
		if courseID := c.QueryInt("course_id", 0); courseID > 0 {
			query.CourseID = uint(courseID)
		}

		errors := make(map[string]string)
		if query.Page < 1 {
			errors["page"] = "Page must be greater than 0!"
		}
		if query.Limit < 1 || query.Limit > 500 {
			errors["limit"] = "Limit must be between 1 and 500!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProgressQuery", query)
		return c.Next()
	}
}
