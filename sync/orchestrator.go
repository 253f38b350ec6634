package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reportsync/cache"
	"reportsync/config"
	"reportsync/models"
	"reportsync/utils"

	"github.com/google/uuid"
)

const lastRunConfigKey = "report_sync_last_run"

// CompanyResult holds what one run did to one company
type CompanyResult struct {
	CompanyID   uint     `json:"company_id"`
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Deleted     int      `json:"deleted"`
	SoftDeleted int64    `json:"soft_deleted"`
	Errors      []string `json:"errors,omitempty"`
	TimedOut    bool     `json:"timed_out,omitempty"`
}

// RunSummary aggregates a whole run. Per-company results are merged into
// it by pure reduction; nothing shares mutable state across companies.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Identity   string    `json:"identity"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Companies   int      `json:"companies"`
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Deleted     int      `json:"deleted"`
	SoftDeleted int64    `json:"soft_deleted"`
	Errors      []string `json:"errors,omitempty"`
	TimedOut    bool     `json:"timed_out,omitempty"`
	Skipped     bool     `json:"skipped,omitempty"`
}

// merge folds one company's result into the run summary
func (s *RunSummary) merge(res CompanyResult) {
	s.Companies++
	s.Created += res.Created
	s.Updated += res.Updated
	s.Deleted += res.Deleted
	s.SoftDeleted += res.SoftDeleted
	for _, msg := range res.Errors {
		s.Errors = append(s.Errors, fmt.Sprintf("company %d: %s", res.CompanyID, msg))
	}
	if res.TimedOut {
		s.TimedOut = true
	}
}

// RunScheduledSync is the scheduled reconciliation run: take the run lock,
// iterate every company with an enabled API settings record, reconcile each
// against its checkpoint cutoff, and record checkpoints and a run summary.
// A held lock makes the run a logged no-op. A failure inside one company is
// recorded on that company and never stops the others.
func (e *Engine) RunScheduledSync() (*RunSummary, error) {
	return e.run(IdentityScheduled, func(summary *RunSummary, settings []models.APISettings) error {
		now := time.Now().Unix()

		for _, st := range settings {
			if e.budgetExhausted() {
				summary.TimedOut = true
				logSync(fmt.Sprintf("run %s: budget exhausted, %d companies left for next run",
					summary.RunID, len(settings)-summary.Companies))
				break
			}

			cutoff, err := e.companyCutoff(st, IdentityScheduled, now)
			if err != nil {
				summary.merge(CompanyResult{CompanyID: st.CompanyID, Errors: []string{err.Error()}})
				continue
			}

			res := e.processCompany(st, IdentityScheduled, "changed", cutoff, e.LookbackHours)
			summary.merge(res)
		}
		return nil
	})
}

// run wraps a sync body with lock handling and finalization shared by the
// scheduled and manual entry points.
func (e *Engine) run(identity string, body func(*RunSummary, []models.APISettings) error) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Identity:  identity,
		StartedAt: time.Now(),
	}
	e.startedAt = summary.StartedAt

	ok, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		summary.Skipped = true
		summary.FinishedAt = time.Now()
		logSync(fmt.Sprintf("run %s skipped: another sync run holds the lock", summary.RunID))
		return summary, nil
	}
	defer e.releaseLock()

	logSync(fmt.Sprintf("run %s (%s) started", summary.RunID, identity))

	var settings []models.APISettings
	if err := e.DB.Where("enabled = ?", true).Find(&settings).Error; err != nil {
		// Critical failure: nothing was processed, the lock still releases.
		return nil, fmt.Errorf("enumerating companies: %w", err)
	}

	if err := body(summary, settings); err != nil {
		return nil, err
	}

	summary.FinishedAt = time.Now()
	e.finalize(summary)
	return summary, nil
}

// companyCutoff computes the change cutoff for a company: its checkpoint
// timestamp when one exists, otherwise now minus the configured lookback.
func (e *Engine) companyCutoff(st models.APISettings, identity string, now int64) (int64, error) {
	cp, err := e.loadCheckpoint(st.CompanyID, checkpointHash(st.APIToken, identity))
	if err != nil {
		return 0, err
	}
	if cp != nil {
		return cp.LastSyncTimestamp, nil
	}
	return now - int64(e.LookbackHours)*3600, nil
}

// processCompany reconciles one company: detect changes, recompute each key
// under the budget, then always sweep deletions and write the checkpoint.
func (e *Engine) processCompany(st models.APISettings, identity, mode string, cutoff int64, windowHours int) CompanyResult {
	res := CompanyResult{CompanyID: st.CompanyID}

	keys, detErrs := e.collectChangedKeys(st.CompanyID, cutoff)
	res.Errors = append(res.Errors, detErrs...)

	e.runWorkSet(&res, st.CompanyID, keys)
	e.finishCompany(&res, st, identity, mode, windowHours)
	return res
}

// runWorkSet recomputes each key in the work set, stopping early when the
// wall-clock budget is nearly spent. Per-key failures are recorded and the
// loop moves on; one bad key never aborts the batch.
func (e *Engine) runWorkSet(res *CompanyResult, companyID uint, keys []ChangeKey) {
	for _, key := range keys {
		if e.budgetExhausted() {
			res.TimedOut = true
			logSync(fmt.Sprintf("company %d: budget exhausted with %d-key work set partially done",
				companyID, len(keys)))
			break
		}

		rr, err := e.Recompute(key.UserID, companyID, key.CourseID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("recompute user %d course %d: %v",
				key.UserID, key.CourseID, err))
			continue
		}
		if rr.Created {
			res.Created++
		}
		if rr.Updated {
			res.Updated++
		}
		if rr.Deleted {
			res.Deleted++
		}
	}
}

// finishCompany runs the unconditional deletion sweep, invalidates the
// company's cache when anything changed, and writes the checkpoint. This
// ordering is required: the sweep must see the post-recompute state, and
// the checkpoint must reflect the whole cycle.
func (e *Engine) finishCompany(res *CompanyResult, st models.APISettings, identity, mode string, windowHours int) {
	softDeleted, err := e.DetectAndSoftDelete(st.CompanyID)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
	} else {
		res.SoftDeleted = softDeleted
	}

	if res.Created+res.Updated+res.Deleted > 0 || res.SoftDeleted > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := cache.Cache.InvalidateCompany(ctx, st.CompanyID); err != nil {
			logSync(fmt.Sprintf("company %d: cache invalidation failed: %v", st.CompanyID, err))
		}
		cancel()
	}

	err = e.saveCheckpoint(st.CompanyID, checkpointHash(st.APIToken, identity), mode,
		windowHours, time.Now().Unix(), res.Created+res.Updated, res.Errors)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		logSync(fmt.Sprintf("company %d: %v", st.CompanyID, err))
	}

	logSync(fmt.Sprintf("company %d: created=%d updated=%d deleted=%d swept=%d errors=%d",
		st.CompanyID, res.Created, res.Updated, res.Deleted, res.SoftDeleted, len(res.Errors)))
}

// finalize persists the run summary and raises an alert on a failed run
func (e *Engine) finalize(summary *RunSummary) {
	e.saveLastRun(summary)

	logSync(fmt.Sprintf("run %s finished: companies=%d created=%d updated=%d deleted=%d swept=%d errors=%d timedout=%v",
		summary.RunID, summary.Companies, summary.Created, summary.Updated,
		summary.Deleted, summary.SoftDeleted, len(summary.Errors), summary.TimedOut))

	if len(summary.Errors) > 0 && config.AppConfig != nil && config.AppConfig.AlertEmail != "" {
		go utils.SendSyncFailureEmail(config.AppConfig.AlertEmail, summary.RunID, summary.Errors)
	}
}

// saveLastRun stores the run summary JSON in global config for the admin
// status tooling.
func (e *Engine) saveLastRun(summary *RunSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		logSync("failed to encode run summary: " + err.Error())
		return
	}

	var row models.GlobalConfig
	err = e.DB.Where("name = ?", lastRunConfigKey).First(&row).Error
	if err != nil {
		row = models.GlobalConfig{Name: lastRunConfigKey, Value: string(raw)}
		if err := e.DB.Create(&row).Error; err != nil {
			logSync("failed to save run summary: " + err.Error())
		}
		return
	}

	row.Value = string(raw)
	if err := e.DB.Save(&row).Error; err != nil {
		logSync("failed to save run summary: " + err.Error())
	}
}
