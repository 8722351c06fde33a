// pkg/maintenance/cleanup.go
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Cleaner runs the post-import housekeeping pass.
type Cleaner interface {
	CleanAll(ctx context.Context, daysToKeep int, permanentDelete bool) error
}

// softDeleteTables are the tables carrying the soft-delete lifecycle, paired
// with their key column for logging.
var softDeleteTables = []struct {
	Table  string
	KeyCol string
}{
	{"HydroTestPackageList", "TestPackageID"},
	{"SystemList", "SystemCode"},
	{"SubsystemList", "SubSystemCode"},
}

// DataCleaner removes expired soft-deleted rows, failed run history, and old
// backups.
type DataCleaner struct {
	db     *sqlx.DB
	logger *zap.Logger
	backup *Backup
	now    func() time.Time
}

// NewCleaner creates a DataCleaner. backup may be nil when backup retention
// is managed elsewhere.
func NewCleaner(db *sqlx.DB, logger *zap.Logger, backup *Backup) *DataCleaner {
	return &DataCleaner{db: db, logger: logger, backup: backup, now: time.Now}
}

// CleanAll runs every housekeeping step. Failures in one step are logged and
// the remaining steps still run; housekeeping never takes an import down.
func (c *DataCleaner) CleanAll(ctx context.Context, daysToKeep int, permanentDelete bool) error {
	if err := c.CleanOldDeletedRecords(ctx, daysToKeep, permanentDelete); err != nil {
		c.logger.Warn("Failed to clean soft-deleted records", zap.Error(err))
	}
	if err := c.CleanOldLogs(ctx, daysToKeep); err != nil {
		c.logger.Warn("Failed to clean run history", zap.Error(err))
	}
	if c.backup != nil {
		if err := c.backup.DeleteOldBackups(ctx, 30, 10); err != nil {
			c.logger.Warn("Failed to clean old backups", zap.Error(err))
		}
	}
	return nil
}

// CleanOldDeletedRecords handles soft-deleted master rows past the retention
// window. With permanentDelete it removes them for real; otherwise it only
// reports what would go, so operators can review before committing to a
// destructive run. Manually modified rows are never purged.
func (c *DataCleaner) CleanOldDeletedRecords(ctx context.Context, daysToKeep int, permanentDelete bool) error {
	cutoff := c.now().AddDate(0, 0, -daysToKeep)

	for _, t := range softDeleteTables {
		if permanentDelete {
			res, err := c.db.ExecContext(ctx, fmt.Sprintf(`
				DELETE FROM %s
				WHERE IsDeleted = TRUE
				  AND DeletedTime < ?
				  AND (IsManuallyModified IS NULL OR IsManuallyModified = FALSE)`, t.Table),
				cutoff)
			if err != nil {
				return fmt.Errorf("purge %s: %w", t.Table, err)
			}
			n, _ := res.RowsAffected()
			c.logger.Info("Purged expired soft-deleted rows",
				zap.String("table", t.Table),
				zap.Int64("rows", n))
		} else {
			var n int64
			err := c.db.GetContext(ctx, &n, fmt.Sprintf(`
				SELECT COUNT(*) FROM %s
				WHERE IsDeleted = TRUE
				  AND DeletedTime < ?
				  AND (IsManuallyModified IS NULL OR IsManuallyModified = FALSE)`, t.Table),
				cutoff)
			if err != nil {
				return fmt.Errorf("count %s: %w", t.Table, err)
			}
			c.logger.Info("Soft-deleted rows eligible for purge",
				zap.String("table", t.Table),
				zap.Int64("rows", n))
		}
	}

	return nil
}

// CleanOldLogs deletes failed run ledger entries past the retention window.
// Completed entries are kept indefinitely as the import audit trail.
func (c *DataCleaner) CleanOldLogs(ctx context.Context, daysToKeep int) error {
	cutoff := c.now().AddDate(0, 0, -daysToKeep)

	res, err := c.db.ExecContext(ctx, `
		DELETE FROM SyncLog
		WHERE StartTime < ? AND Status = 'FAILED'`, cutoff)
	if err != nil {
		return fmt.Errorf("purge failed sync log entries: %w", err)
	}
	n, _ := res.RowsAffected()
	c.logger.Info("Purged failed run history", zap.Int64("rows", n))

	return nil
}
