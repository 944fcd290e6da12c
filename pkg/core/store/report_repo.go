package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/pipeline"
)

// ReportJobRepo persists valuation job state. Semantics are merge-update by
// report ID: each write overwrites only the fields it carries
// (last-write-wins per field, no transactions required).
//
// Schema assumption (managed by migrations elsewhere):
//
//	CREATE TABLE IF NOT EXISTS valuation_reports (
//	  id            UUID PRIMARY KEY,
//	  company_name  TEXT,
//	  status        TEXT,
//	  progress      INT,
//	  message       TEXT,
//	  stage_outputs JSONB DEFAULT '{}'::jsonb,
//	  result        JSONB,
//	  created_at    TIMESTAMPTZ,
//	  updated_at    TIMESTAMPTZ
//	);
type ReportJobRepo struct {
	cache *ProgressCache // optional; nil disables the polling cache
}

// NewReportJobRepo creates a repository instance. A nil cache is allowed.
func NewReportJobRepo(cache *ProgressCache) *ReportJobRepo {
	return &ReportJobRepo{cache: cache}
}

// Ensure the repo satisfies the pipeline's persistence boundary.
var _ pipeline.StatusWriter = (*ReportJobRepo)(nil)

// JobRecord is the persisted job-status row.
type JobRecord struct {
	ReportID     string                      `json:"report_id"`
	CompanyName  string                      `json:"company_name"`
	Status       string                      `json:"status"`
	Progress     int                         `json:"progress"`
	Message      string                      `json:"message"`
	StageOutputs map[int]*passes.StageOutput `json:"stage_outputs,omitempty"`
	Result       *pipeline.Result            `json:"result,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// CreateJob inserts the initial pending record for a new valuation run.
func (r *ReportJobRepo) CreateJob(ctx context.Context, reportID, companyName string) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `
		INSERT INTO valuation_reports (id, company_name, status, progress, message, stage_outputs, created_at, updated_at)
		VALUES ($1, $2, 'pending', 0, 'Queued for processing', '{}'::jsonb, NOW(), NOW())
	`
	if _, err := pool.Exec(ctx, query, reportID, companyName); err != nil {
		return fmt.Errorf("failed to create job record: %w", err)
	}
	return nil
}

// Apply merges one status update into the job record. Stage outputs are
// keyed by stage number inside the JSONB column so each write is atomic
// whole-object for that stage.
func (r *ReportJobRepo) Apply(ctx context.Context, update pipeline.StatusUpdate) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `
		UPDATE valuation_reports
		SET status = $2, progress = $3, message = $4, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := pool.Exec(ctx, query, update.ReportID, update.Status, update.Progress, update.Message); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	if update.StageOutput != nil {
		outputJSON, err := json.Marshal(update.StageOutput)
		if err != nil {
			return fmt.Errorf("failed to marshal stage output: %w", err)
		}
		stageKey := fmt.Sprintf("{%d}", update.StageOutput.Stage)
		query := `
			UPDATE valuation_reports
			SET stage_outputs = jsonb_set(COALESCE(stage_outputs, '{}'::jsonb), $2, $3::jsonb), updated_at = NOW()
			WHERE id = $1
		`
		if _, err := pool.Exec(ctx, query, update.ReportID, stageKey, outputJSON); err != nil {
			return fmt.Errorf("failed to attach stage output: %w", err)
		}
	}

	if update.Result != nil {
		resultJSON, err := json.Marshal(update.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		query := `UPDATE valuation_reports SET result = $2, updated_at = NOW() WHERE id = $1`
		if _, err := pool.Exec(ctx, query, update.ReportID, resultJSON); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
	}

	// Best-effort cache refresh so UI polling skips Postgres.
	r.cache.Put(ctx, update.ReportID, ProgressSnapshot{
		Status:    update.Status,
		Progress:  update.Progress,
		Message:   update.Message,
		UpdatedAt: time.Now(),
	})

	return nil
}

// Load retrieves the full job record for a report ID.
func (r *ReportJobRepo) Load(ctx context.Context, reportID string) (*JobRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT id, company_name, status, progress, message, stage_outputs, result, created_at, updated_at
		FROM valuation_reports WHERE id = $1
	`

	var record JobRecord
	var stageOutputsJSON, resultJSON []byte
	err := pool.QueryRow(ctx, query, reportID).Scan(
		&record.ReportID, &record.CompanyName, &record.Status, &record.Progress,
		&record.Message, &stageOutputsJSON, &resultJSON, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no report found for ID %s", reportID)
		}
		return nil, fmt.Errorf("failed to load job record: %w", err)
	}

	if len(stageOutputsJSON) > 0 {
		if err := json.Unmarshal(stageOutputsJSON, &record.StageOutputs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stage outputs: %w", err)
		}
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &record.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}

	return &record, nil
}
