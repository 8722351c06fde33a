// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/config"
	"github.com/nordweld/weldsync/pkg/extract"
	"github.com/nordweld/weldsync/pkg/ledger"
	"github.com/nordweld/weldsync/pkg/loader"
	"github.com/nordweld/weldsync/pkg/maintenance"
	"github.com/nordweld/weldsync/pkg/normalize"
	"github.com/nordweld/weldsync/pkg/quarantine"
	"github.com/nordweld/weldsync/pkg/reconcile"
	"github.com/nordweld/weldsync/pkg/retry"
	"github.com/nordweld/weldsync/pkg/seeder"
)

// Options configures one pipeline run.
type Options struct {
	// Source is an extract file, a directory of WeldingDB_* exports, or a
	// glob pattern.
	Source string

	// Trigger describes what started the run (SCHEDULED, MANUAL, ...).
	Trigger string

	// Description is attached to the pre-import backup.
	Description string

	SkipBackup             bool
	SkipCleanup            bool
	CleanupKeepDays        int
	CleanupPermanentDelete bool
}

// Summary reports what one run did.
type Summary struct {
	Source           string           `json:"source"`
	Trigger          string           `json:"trigger"`
	BackupID         string           `json:"backup_id,omitempty"`
	SyncID           int64            `json:"sync_id"`
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
	ExtractFiles     []string         `json:"extract_files"`
	ImportedRows     int              `json:"imported_rows"`
	TableRows        int64            `json:"table_rows"`
	QuarantinedDates int              `json:"quarantined_dates"`
	Families         *reconcile.Stats `json:"families,omitempty"`
}

// Pipeline runs the full import sequence: locate extracts, normalize, back
// up, seed, bulk load, reconcile, clean up. One Pipeline serves many runs.
type Pipeline struct {
	cfg     *config.Config
	db      *sqlx.DB
	logger  *zap.Logger
	retrier *retry.Retrier
	backup  maintenance.BackupRunner
	cleaner maintenance.Cleaner
}

// New wires a Pipeline with the default backup and cleanup collaborators.
func New(cfg *config.Config, db *sqlx.DB, logger *zap.Logger, retrier *retry.Retrier) *Pipeline {
	backup := maintenance.NewBackup(db, logger, cfg.BackupDir)
	return &Pipeline{
		cfg:     cfg,
		db:      db,
		logger:  logger,
		retrier: retrier,
		backup:  backup,
		cleaner: maintenance.NewCleaner(db, logger, backup),
	}
}

// WithBackupRunner replaces the backup collaborator.
func (p *Pipeline) WithBackupRunner(b maintenance.BackupRunner) *Pipeline {
	p.backup = b
	return p
}

// WithCleaner replaces the cleanup collaborator.
func (p *Pipeline) WithCleaner(c maintenance.Cleaner) *Pipeline {
	p.cleaner = c
	return p
}

// Run executes the pipeline once. Failures before the run ledger opens leave
// no trace in SyncLog; failures after it close the entry as FAILED with the
// cause. Completed reconciliation families stay committed even when a later
// family fails.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{
		Source:    opts.Source,
		Trigger:   opts.Trigger,
		StartedAt: time.Now(),
	}

	// Locate and read the extracts first: a run with no input must fail
	// before anything touches the database.
	files, err := extract.ResolveExtractFiles(opts.Source)
	if err != nil {
		return nil, err
	}
	summary.ExtractFiles = files

	tables := make([]*extract.Table, 0, len(files))
	for _, file := range files {
		table, err := extract.ReadExtract(file, p.logger)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	q := quarantine.NewList()
	records := normalize.New(p.logger, q).Normalize(tables)
	summary.ImportedRows = len(records)

	if opts.SkipBackup {
		p.logger.Info("Skipping pre-import backup")
	} else {
		description := opts.Description
		if description == "" {
			description = fmt.Sprintf("Pre-import backup %s", summary.StartedAt.Format("2006-01-02 15:04:05"))
		}
		backupID, err := p.backup.CreateFullBackup(ctx, opts.Trigger, description)
		if err != nil {
			return nil, fmt.Errorf("pre-import backup failed: %w", err)
		}
		summary.BackupID = backupID
	}

	runLog := ledger.New(p.db, p.logger)
	syncID, err := runLog.Begin(ctx, ledger.SyncTypeWeldingImport, summary.BackupID)
	if err != nil {
		return nil, err
	}
	summary.SyncID = syncID

	fail := func(cause error) (*Summary, error) {
		if ferr := runLog.Fail(ctx, syncID, cause.Error()); ferr != nil {
			p.logger.Warn("Could not record run failure", zap.Error(ferr))
		}
		return nil, cause
	}

	seeder.New(p.db, p.logger).Seed(ctx, records)

	loadResult, err := loader.New(p.db, p.logger, p.retrier, q, p.cfg.ChunkSize).Load(ctx, records)
	if err != nil {
		return fail(fmt.Errorf("bulk load failed: %w", err))
	}
	summary.TableRows = loadResult.TableCount

	// The artifact is written after the load so it also carries values
	// caught by the per-chunk revalidation.
	q.WriteArtifact(filepath.Dir(files[0]), p.logger)
	summary.QuarantinedDates = q.Len()

	stats, err := reconcile.New(p.db, p.logger).Run(ctx)
	summary.Families = stats
	if err != nil {
		return fail(fmt.Errorf("reconciliation failed: %w", err))
	}

	totals := stats.Totals()
	detailsJSON, _ := json.Marshal(stats)
	err = runLog.Complete(ctx, syncID, ledger.Totals{
		Added:   totals.Added,
		Updated: totals.Updated,
		Deleted: totals.Deleted,
		Skipped: totals.Skipped,
	}, string(detailsJSON))
	if err != nil {
		return nil, err
	}

	if opts.SkipCleanup {
		p.logger.Info("Skipping post-import cleanup")
	} else {
		keepDays := opts.CleanupKeepDays
		if keepDays <= 0 {
			keepDays = 90
		}
		if err := p.cleaner.CleanAll(ctx, keepDays, opts.CleanupPermanentDelete); err != nil {
			p.logger.Warn("Post-import cleanup failed", zap.Error(err))
		}
	}

	summary.FinishedAt = time.Now()

	p.logger.Info("Pipeline run finished",
		zap.Int64("syncID", syncID),
		zap.Int("importedRows", summary.ImportedRows),
		zap.Int64("tableRows", summary.TableRows),
		zap.Int("quarantinedDates", summary.QuarantinedDates),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))

	return summary, nil
}
