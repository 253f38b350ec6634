package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reportsync/cache"
	"reportsync/database"
	"reportsync/middleware"
	"reportsync/models"
	"reportsync/models/report"

	"github.com/gofiber/fiber/v2"
)

// GetCompanyProgress serves the denormalized progress rows for a company.
// Reads go through the Redis cache; the sync engine invalidates the
// company's keys on write and this handler repopulates on the next miss.
func GetCompanyProgress(c *fiber.Ctx) error {
	query := c.Locals("validatedProgressQuery").(*ProgressQuery)

	var settings models.APISettings
	if err := database.Database.Db.Where("company_id = ? AND enabled = ?", query.CompanyID, true).
		First(&settings).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Company is not configured for reporting!", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cacheKey := cache.ProgressKey(query.CompanyID,
		fmt.Sprintf("%d:%d:%d", query.CourseID, query.Page, query.Limit))
	if raw, ok := cache.Cache.Get(ctx, cacheKey); ok {
		var cached fiber.Map
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", cached)
		}
	}

	db := database.Database.Db.Model(&report.ProgressRow{}).
		Where("company_id = ? AND is_deleted = ?", query.CompanyID, false)

	if query.CourseID > 0 {
		db = db.Where("course_id = ?", query.CourseID)
	}
	if allowed := parseAllowlist(settings.CourseAllowlist); len(allowed) > 0 {
		db = db.Where("course_id IN ?", allowed)
	}

	var total int64
	db.Count(&total)

	var rows []report.ProgressRow
	if err := db.Order("last_updated desc").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress rows!", nil)
	}

	data := fiber.Map{
		"rows":  rows,
		"total": total,
		"page":  query.Page,
		"limit": query.Limit,
	}

	if raw, err := json.Marshal(data); err == nil {
		cache.Cache.Set(ctx, cacheKey, string(raw), 10*time.Minute)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", data)
}

// parseAllowlist splits the CSV course allowlist from the API settings
func parseAllowlist(raw string) []uint {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	allowed := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || id <= 0 {
			continue
		}
		allowed = append(allowed, uint(id))
	}
	return allowed
}
