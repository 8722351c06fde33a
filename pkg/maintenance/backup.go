// pkg/maintenance/backup.go
package maintenance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// backupTables are the curated master tables worth protecting before an
// import. The fact table is excluded: it is external data, large, and fully
// re-importable from the extracts at any time.
var backupTables = []string{
	"HydroTestPackageList",
	"SystemList",
	"SubsystemList",
}

// BackupRunner creates a pre-import snapshot and returns its id.
type BackupRunner interface {
	CreateFullBackup(ctx context.Context, trigger, description string) (string, error)
}

// Backup dumps the master tables to JSON files and records the snapshot in
// BackupLog.
type Backup struct {
	db     *sqlx.DB
	logger *zap.Logger
	dir    string
	now    func() time.Time
}

// NewBackup creates a Backup writing into dir.
func NewBackup(db *sqlx.DB, logger *zap.Logger, dir string) *Backup {
	return &Backup{db: db, logger: logger, dir: dir, now: time.Now}
}

// CreateFullBackup snapshots every master table into its own JSON file and
// returns the backup id. Per-table dump failures are recorded but do not fail
// the backup; a total failure marks the BackupLog row FAILED and returns the
// error.
func (b *Backup) CreateFullBackup(ctx context.Context, trigger, description string) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupID := uuid.NewString()
	backupTime := b.now()

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO BackupLog (BackupID, BackupType, BackupTrigger, BackupTime, BackupBy, Status, Description)
		VALUES (?, 'FULL', ?, ?, 'SYSTEM', 'RUNNING', ?)`,
		backupID, trigger, backupTime, description)
	if err != nil {
		return "", fmt.Errorf("failed to open backup log entry: %w", err)
	}

	files := make(map[string]string, len(backupTables))
	counts := make(map[string]int, len(backupTables))
	var totalSize int64

	stamp := backupTime.Format("20060102_150405")
	for _, table := range backupTables {
		rows, err := b.dumpTable(ctx, table)
		if err != nil {
			b.logger.Warn("Failed to dump table for backup",
				zap.String("table", table),
				zap.Error(err))
			counts[table] = 0
			continue
		}
		counts[table] = len(rows)
		if len(rows) == 0 {
			continue
		}

		path := filepath.Join(b.dir, fmt.Sprintf("backup_%s_%s_%s.json", backupID, table, stamp))
		data, err := json.MarshalIndent(rows, "", "  ")
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}
		if err != nil {
			b.markFailed(ctx, backupID, err)
			return "", fmt.Errorf("failed to write backup file for %s: %w", table, err)
		}

		files[table] = path
		totalSize += int64(len(data))
	}

	filesJSON, _ := json.Marshal(files)
	_, err = b.db.ExecContext(ctx, `
		UPDATE BackupLog SET
			Status = 'COMPLETED',
			BackupFilePath = ?,
			BackupSize = ?,
			TestPackageCount = ?,
			SystemCount = ?,
			SubsystemCount = ?
		WHERE BackupID = ?`,
		string(filesJSON), totalSize,
		counts["HydroTestPackageList"], counts["SystemList"], counts["SubsystemList"],
		backupID)
	if err != nil {
		return "", fmt.Errorf("failed to complete backup log entry: %w", err)
	}

	b.logger.Info("Created full backup",
		zap.String("backupID", backupID),
		zap.String("trigger", trigger),
		zap.Int64("bytes", totalSize))

	return backupID, nil
}

// dumpTable reads a table into generic rows suitable for JSON encoding.
func (b *Backup) dumpTable(ctx context.Context, table string) ([]map[string]interface{}, error) {
	rows, err := b.db.QueryxContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		// MapScan yields []byte for text columns; convert for readable JSON.
		for k, v := range row {
			if raw, ok := v.([]byte); ok {
				row[k] = string(raw)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (b *Backup) markFailed(ctx context.Context, backupID string, cause error) {
	_, err := b.db.ExecContext(ctx, `
		UPDATE BackupLog SET Status = 'FAILED', ErrorMessage = ? WHERE BackupID = ?`,
		cause.Error(), backupID)
	if err != nil {
		b.logger.Warn("Failed to mark backup failed",
			zap.String("backupID", backupID),
			zap.Error(err))
	}
}

// DeleteOldBackups removes backup files and log rows older than keepDays,
// always retaining the newest keepCount snapshots.
func (b *Backup) DeleteOldBackups(ctx context.Context, keepDays, keepCount int) error {
	cutoff := b.now().AddDate(0, 0, -keepDays)

	type backupRow struct {
		BackupID       string         `db:"BackupID"`
		BackupFilePath sql.NullString `db:"BackupFilePath"`
	}

	var candidates []backupRow
	err := b.db.SelectContext(ctx, &candidates, `
		SELECT BackupID, BackupFilePath
		FROM BackupLog
		WHERE BackupTime < ?
		  AND BackupID NOT IN (
			SELECT BackupID FROM (
				SELECT BackupID FROM BackupLog ORDER BY BackupTime DESC LIMIT ?
			) keep
		  )`, cutoff, keepCount)
	if err != nil {
		return fmt.Errorf("failed to list old backups: %w", err)
	}

	for _, cand := range candidates {
		if cand.BackupFilePath.Valid {
			var files map[string]string
			if err := json.Unmarshal([]byte(cand.BackupFilePath.String), &files); err == nil {
				for _, path := range files {
					if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
						b.logger.Warn("Failed to remove backup file",
							zap.String("path", path),
							zap.Error(err))
					}
				}
			}
		}
		if _, err := b.db.ExecContext(ctx, "DELETE FROM BackupLog WHERE BackupID = ?", cand.BackupID); err != nil {
			b.logger.Warn("Failed to delete backup log entry",
				zap.String("backupID", cand.BackupID),
				zap.Error(err))
			continue
		}
		b.logger.Info("Deleted old backup", zap.String("backupID", cand.BackupID))
	}

	return nil
}
