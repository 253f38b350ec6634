package sync

import (
	"reportsync/config"
	"reportsync/database"

	"github.com/robfig/cron/v3"
)

// StartSyncScheduler registers the recurring reconciliation run
func StartSyncScheduler(c *cron.Cron) {
	spec := config.AppConfig.SyncCron

	c.AddFunc(spec, func() {
		engine := NewEngine(database.Database.Db)
		if _, err := engine.RunScheduledSync(); err != nil {
			logSync("scheduled run failed: " + err.Error())
		}
	})

	logSync("report sync scheduler started with schedule " + spec)
}
