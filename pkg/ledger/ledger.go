// pkg/ledger/ledger.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/model"
)

// SyncTypeWeldingImport is the SyncType recorded for full extract imports.
const SyncTypeWeldingImport = "WELDING_IMPORT"

// Totals are the aggregate record counts written to a completed ledger entry.
type Totals struct {
	Added   int
	Updated int
	Deleted int
	Skipped int
}

// Ledger writes the append-only SyncLog run history. Every pipeline
// invocation opens an entry before mutating shared tables and closes it with
// a terminal status; a row stuck in RUNNING means the process died mid-run.
type Ledger struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Ledger.
func New(db *sqlx.DB, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, logger: logger, now: time.Now}
}

// Begin opens a RUNNING entry and returns its SyncID. backupID may be empty
// when the run skipped the backup stage.
func (l *Ledger) Begin(ctx context.Context, syncType, backupID string) (int64, error) {
	var backup sql.NullString
	if backupID != "" {
		backup = sql.NullString{String: backupID, Valid: true}
	}

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO SyncLog (SyncType, BackupID, StartTime, Status)
		VALUES (?, ?, ?, ?)`,
		syncType, backup, l.now(), model.RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to open sync log entry: %w", err)
	}

	syncID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read sync log id: %w", err)
	}

	l.logger.Info("Opened sync log entry",
		zap.Int64("syncID", syncID),
		zap.String("syncType", syncType))

	return syncID, nil
}

// Complete closes an entry as COMPLETED with aggregate counts and a
// per-family details document.
func (l *Ledger) Complete(ctx context.Context, syncID int64, totals Totals, detailsJSON string) error {
	end := l.now()

	_, err := l.db.ExecContext(ctx, `
		UPDATE SyncLog SET
			Status = ?,
			RecordsAdded = ?,
			RecordsUpdated = ?,
			RecordsDeleted = ?,
			RecordsSkipped = ?,
			DetailsJSON = ?,
			EndTime = ?,
			Duration = TIMESTAMPDIFF(SECOND, StartTime, ?)
		WHERE SyncID = ?`,
		model.RunStatusCompleted,
		totals.Added, totals.Updated, totals.Deleted, totals.Skipped,
		detailsJSON, end, end, syncID)
	if err != nil {
		return fmt.Errorf("failed to complete sync log entry %d: %w", syncID, err)
	}

	l.logger.Info("Closed sync log entry",
		zap.Int64("syncID", syncID),
		zap.Int("added", totals.Added),
		zap.Int("updated", totals.Updated),
		zap.Int("deleted", totals.Deleted),
		zap.Int("skipped", totals.Skipped))

	return nil
}

// Fail closes an entry as FAILED with the error message. Callers treat this
// as best-effort: the original failure matters more than the bookkeeping.
func (l *Ledger) Fail(ctx context.Context, syncID int64, errMsg string) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE SyncLog SET
			Status = ?,
			ErrorMessage = ?,
			EndTime = ?
		WHERE SyncID = ?`,
		model.RunStatusFailed, errMsg, l.now(), syncID)
	if err != nil {
		return fmt.Errorf("failed to mark sync log entry %d failed: %w", syncID, err)
	}
	return nil
}
