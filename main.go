package main

import (
	"log"

	"reportsync/cache"
	"reportsync/config"
	"reportsync/database"
	reportRoutes "reportsync/routers/reportRoutes"
	syncengine "reportsync/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/robfig/cron/v3"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	cache.ConnectCache()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	reportRoutes.SetupReportRoutes(app)

	// Background reconciliation keeps the derived table in sync
	c := cron.New()
	syncengine.StartSyncScheduler(c)
	c.Start()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
