package sync

import (
	"log"
	"time"

	"reportsync/config"

	"gorm.io/gorm"
)

// Engine runs the reconciliation that keeps the derived progress table
// consistent with the source schema. One Engine instance serves one run;
// the scheduler builds a fresh one per tick.
type Engine struct {
	DB *gorm.DB

	LookbackHours      int // change window when a company has no checkpoint
	MaxRunSeconds      int // wall-clock ceiling for the whole run
	LockTimeoutSeconds int // run lock staleness threshold
	MarginSeconds      int // stop issuing work this close to the ceiling

	startedAt time.Time
}

// NewEngine builds an Engine from global config
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{
		DB:                 db,
		LookbackHours:      config.AppConfig.SyncLookbackHours,
		MaxRunSeconds:      config.AppConfig.SyncMaxRunSeconds,
		LockTimeoutSeconds: config.AppConfig.SyncLockTimeoutSeconds,
		MarginSeconds:      30,
	}
}

// ChangeKey identifies one (user, course) pair needing recomputation
type ChangeKey struct {
	UserID   uint `json:"user_id"`
	CourseID uint `json:"course_id"`
}

// budgetExhausted reports whether the run is close enough to its wall-clock
// ceiling that no new work should start. Checked before each company and
// before each recompute; already-committed writes are never rolled back.
func (e *Engine) budgetExhausted() bool {
	limit := time.Duration(e.MaxRunSeconds-e.MarginSeconds) * time.Second
	return time.Since(e.startedAt) >= limit
}

// logSync logs sync engine events with timestamp
func logSync(message string) {
	log.Printf("[REPORT-SYNC %s] %s", time.Now().Format(time.RFC3339), message)
}
