// pkg/reconcile/engine.go
package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/model"
)

// syncUser is recorded as the updater on rows the engine touches.
const syncUser = "sync"

// insertBatchSize bounds the rows per INSERT statement.
const insertBatchSize = 1000

// FamilyStats counts the mutations applied to one master table.
type FamilyStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

// Stats aggregates per-family reconciliation results.
type Stats struct {
	TestPackages FamilyStats `json:"test_packages"`
	Systems      FamilyStats `json:"systems"`
	Subsystems   FamilyStats `json:"subsystems"`
}

// Totals sums the three families.
func (s *Stats) Totals() FamilyStats {
	return FamilyStats{
		Added:   s.TestPackages.Added + s.Systems.Added + s.Subsystems.Added,
		Updated: s.TestPackages.Updated + s.Systems.Updated + s.Subsystems.Updated,
		Deleted: s.TestPackages.Deleted + s.Systems.Deleted + s.Subsystems.Deleted,
		Skipped: s.TestPackages.Skipped + s.Systems.Skipped + s.Subsystems.Skipped,
	}
}

// Engine reconciles the three master tables against the freshly loaded fact
// table: test packages first, then systems, then subsystems. Each family's
// mutations commit as they apply; a family failure aborts the remaining
// families but never rolls back completed ones.
type Engine struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

// New creates an Engine.
func New(db *sqlx.DB, logger *zap.Logger) *Engine {
	return &Engine{db: db, logger: logger, now: time.Now}
}

// Run reconciles all three families in order. The returned Stats covers every
// family that completed, even when err is non-nil.
func (e *Engine) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	families := []struct {
		name string
		fn   func(context.Context) (FamilyStats, error)
		dst  *FamilyStats
	}{
		{"test packages", e.syncTestPackages, &stats.TestPackages},
		{"systems", e.syncSystems, &stats.Systems},
		{"subsystems", e.syncSubsystems, &stats.Subsystems},
	}

	for _, fam := range families {
		fs, err := fam.fn(ctx)
		*fam.dst = fs
		if err != nil {
			return stats, fmt.Errorf("reconcile %s: %w", fam.name, err)
		}
		e.logger.Info("Reconciled master family",
			zap.String("family", fam.name),
			zap.Int("added", fs.Added),
			zap.Int("updated", fs.Updated),
			zap.Int("deleted", fs.Deleted),
			zap.Int("skipped", fs.Skipped))
	}

	return stats, nil
}

type derivedTestPackage struct {
	TestPackageID string         `db:"TestPackageID"`
	SystemCode    sql.NullString `db:"SystemCode"`
	SubSystemCode sql.NullString `db:"SubSystemCode"`
	Description   string         `db:"Description"`
}

func (e *Engine) syncTestPackages(ctx context.Context) (FamilyStats, error) {
	var stats FamilyStats
	now := e.now()

	// One representative row per trimmed key; MAX picks a deterministic
	// system/subsystem when a package spans several.
	var derived []derivedTestPackage
	err := e.db.SelectContext(ctx, &derived, `
		SELECT
			TRIM(wl.TestPackageID) AS TestPackageID,
			MAX(TRIM(wl.SystemCode)) AS SystemCode,
			MAX(TRIM(wl.SubSystemCode)) AS SubSystemCode,
			COALESCE(NULLIF(TRIM(wl.TestPackageID), ''), 'AUTO_SYNC') AS Description
		FROM WeldingList wl
		WHERE wl.TestPackageID IS NOT NULL
		  AND TRIM(wl.TestPackageID) <> ''
		GROUP BY TRIM(wl.TestPackageID)`)
	if err != nil {
		return stats, fmt.Errorf("derive test packages: %w", err)
	}

	byKey := make(map[string]derivedTestPackage, len(derived))
	keys := make([]string, 0, len(derived))
	for _, d := range derived {
		byKey[d.TestPackageID] = d
		keys = append(keys, d.TestPackageID)
	}

	existing, err := e.loadExisting(ctx, "HydroTestPackageList", "TestPackageID")
	if err != nil {
		return stats, err
	}

	plan := BuildPlan(keys, existing)
	stats.Added, stats.Updated, stats.Skipped, stats.Deleted = plan.Counts()

	if err := batched(plan.Inserts, insertBatchSize, func(batch []string) error {
		ib := sqlbuilder.MySQL.NewInsertBuilder()
		ib.InsertInto("HydroTestPackageList")
		ib.Cols("TestPackageID", "SystemCode", "SubSystemCode", "Description", "Status",
			"Remarks", "DataSource", "LastSyncTime", "IsDeleted", "created_by", "last_updated_by")
		for _, key := range batch {
			d := byKey[key]
			ib.Values(d.TestPackageID, d.SystemCode, d.SubSystemCode, d.Description, "Pending",
				"", model.DataSourceDerived, now, false, syncUser, syncUser)
		}
		query, args := ib.Build()
		_, err := e.db.ExecContext(ctx, query, args...)
		return err
	}); err != nil {
		return stats, fmt.Errorf("insert test packages: %w", err)
	}

	if err := e.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, key := range plan.FullUpdates {
			d := byKey[key]
			_, err := tx.ExecContext(ctx, `
				UPDATE HydroTestPackageList SET
					SystemCode = ?,
					SubSystemCode = ?,
					Description = ?,
					DataSource = ?,
					LastSyncTime = ?,
					IsDeleted = FALSE,
					DeletedTime = NULL,
					last_updated_by = ?
				WHERE TestPackageID = ?`,
				d.SystemCode, d.SubSystemCode, d.Description,
				model.DataSourceDerived, now, syncUser, key)
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return stats, fmt.Errorf("update test packages: %w", err)
	}

	if err := e.bookkeepingUpdate(ctx, "HydroTestPackageList", "TestPackageID", plan.BookkeepingUpdates, now); err != nil {
		return stats, fmt.Errorf("refresh manual test packages: %w", err)
	}
	if err := e.softDelete(ctx, "HydroTestPackageList", "TestPackageID", plan.SoftDeletes, now); err != nil {
		return stats, fmt.Errorf("soft-delete test packages: %w", err)
	}

	return stats, nil
}

func (e *Engine) syncSystems(ctx context.Context) (FamilyStats, error) {
	var stats FamilyStats
	now := e.now()

	var keys []string
	err := e.db.SelectContext(ctx, &keys, `
		SELECT DISTINCT TRIM(wl.SystemCode)
		FROM WeldingList wl
		WHERE wl.SystemCode IS NOT NULL
		  AND TRIM(wl.SystemCode) <> ''`)
	if err != nil {
		return stats, fmt.Errorf("derive systems: %w", err)
	}

	existing, err := e.loadExisting(ctx, "SystemList", "SystemCode")
	if err != nil {
		return stats, err
	}

	plan := BuildPlan(keys, existing)
	stats.Added, stats.Updated, stats.Skipped, stats.Deleted = plan.Counts()

	if err := batched(plan.Inserts, insertBatchSize, func(batch []string) error {
		ib := sqlbuilder.MySQL.NewInsertBuilder()
		ib.InsertInto("SystemList")
		ib.Cols("SystemCode", "SystemDescriptionENG", "SystemDescriptionRUS",
			"ProcessOrNonProcess", "Priority", "Remarks",
			"DataSource", "LastSyncTime", "created_by", "last_updated_by")
		for _, code := range batch {
			ib.Values(code, code, nil, "Process", 0, "", model.DataSourceDerived, now, syncUser, syncUser)
		}
		query, args := ib.Build()
		_, err := e.db.ExecContext(ctx, query, args...)
		return err
	}); err != nil {
		return stats, fmt.Errorf("insert systems: %w", err)
	}

	if err := e.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, code := range plan.FullUpdates {
			_, err := tx.ExecContext(ctx, `
				UPDATE SystemList SET
					SystemDescriptionENG = ?,
					ProcessOrNonProcess = 'Process',
					Priority = 0,
					Remarks = '',
					DataSource = ?,
					LastSyncTime = ?,
					IsDeleted = FALSE,
					DeletedTime = NULL,
					last_updated_by = ?
				WHERE SystemCode = ?`,
				code, model.DataSourceDerived, now, syncUser, code)
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return stats, fmt.Errorf("update systems: %w", err)
	}

	if err := e.bookkeepingUpdate(ctx, "SystemList", "SystemCode", plan.BookkeepingUpdates, now); err != nil {
		return stats, fmt.Errorf("refresh manual systems: %w", err)
	}
	if err := e.softDelete(ctx, "SystemList", "SystemCode", plan.SoftDeletes, now); err != nil {
		return stats, fmt.Errorf("soft-delete systems: %w", err)
	}

	return stats, nil
}

type derivedSubsystem struct {
	SubSystemCode string         `db:"SubSystemCode"`
	SystemCode    sql.NullString `db:"SystemCode"`
}

func (e *Engine) syncSubsystems(ctx context.Context) (FamilyStats, error) {
	var stats FamilyStats
	now := e.now()

	var derived []derivedSubsystem
	err := e.db.SelectContext(ctx, &derived, `
		SELECT
			TRIM(wl.SubSystemCode) AS SubSystemCode,
			MAX(TRIM(wl.SystemCode)) AS SystemCode
		FROM WeldingList wl
		WHERE wl.SubSystemCode IS NOT NULL
		  AND TRIM(wl.SubSystemCode) <> ''
		GROUP BY TRIM(wl.SubSystemCode)`)
	if err != nil {
		return stats, fmt.Errorf("derive subsystems: %w", err)
	}

	byKey := make(map[string]derivedSubsystem, len(derived))
	keys := make([]string, 0, len(derived))
	for _, d := range derived {
		byKey[d.SubSystemCode] = d
		keys = append(keys, d.SubSystemCode)
	}

	existing, err := e.loadExisting(ctx, "SubsystemList", "SubSystemCode")
	if err != nil {
		return stats, err
	}

	plan := BuildPlan(keys, existing)
	stats.Added, stats.Updated, stats.Skipped, stats.Deleted = plan.Counts()

	if err := batched(plan.Inserts, insertBatchSize, func(batch []string) error {
		ib := sqlbuilder.MySQL.NewInsertBuilder()
		ib.InsertInto("SubsystemList")
		ib.Cols("SubSystemCode", "SystemCode", "SubSystemDescriptionENG", "SubSystemDescriptionRUS",
			"ProcessOrNonProcess", "Priority", "Remarks",
			"DataSource", "LastSyncTime", "created_by", "last_updated_by")
		for _, key := range batch {
			d := byKey[key]
			ib.Values(d.SubSystemCode, d.SystemCode, d.SubSystemCode, nil, "Process", 0, "",
				model.DataSourceDerived, now, syncUser, syncUser)
		}
		query, args := ib.Build()
		_, err := e.db.ExecContext(ctx, query, args...)
		return err
	}); err != nil {
		return stats, fmt.Errorf("insert subsystems: %w", err)
	}

	if err := e.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, key := range plan.FullUpdates {
			d := byKey[key]
			_, err := tx.ExecContext(ctx, `
				UPDATE SubsystemList SET
					SystemCode = ?,
					SubSystemDescriptionENG = ?,
					ProcessOrNonProcess = 'Process',
					Priority = 0,
					Remarks = '',
					DataSource = ?,
					LastSyncTime = ?,
					IsDeleted = FALSE,
					DeletedTime = NULL,
					last_updated_by = ?
				WHERE SubSystemCode = ?`,
				d.SystemCode, d.SubSystemCode, model.DataSourceDerived, now, syncUser, key)
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return stats, fmt.Errorf("update subsystems: %w", err)
	}

	if err := e.bookkeepingUpdate(ctx, "SubsystemList", "SubSystemCode", plan.BookkeepingUpdates, now); err != nil {
		return stats, fmt.Errorf("refresh manual subsystems: %w", err)
	}
	if err := e.softDelete(ctx, "SubsystemList", "SubSystemCode", plan.SoftDeletes, now); err != nil {
		return stats, fmt.Errorf("soft-delete subsystems: %w", err)
	}

	return stats, nil
}

// loadExisting reads the reconciliation-relevant columns of a master table.
func (e *Engine) loadExisting(ctx context.Context, table, keyCol string) ([]ExistingRow, error) {
	var rows []ExistingRow
	query := fmt.Sprintf(`
		SELECT %s AS RowKey,
		       COALESCE(IsManuallyModified, FALSE) AS IsManuallyModified,
		       COALESCE(IsDeleted, FALSE) AS IsDeleted
		FROM %s`, keyCol, table)
	if err := e.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	return rows, nil
}

// bookkeepingUpdate refreshes sync metadata on manually modified rows without
// touching their content, and clears the deletion flag since the fact table
// references them again.
func (e *Engine) bookkeepingUpdate(ctx context.Context, table, keyCol string, keys []string, now time.Time) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`
		UPDATE %s SET
			DataSource = ?,
			LastSyncTime = ?,
			IsDeleted = FALSE,
			DeletedTime = NULL
		WHERE %s IN (?)`, table, keyCol),
		model.DataSourceDerived, now, keys)
	if err != nil {
		return err
	}
	_, err = e.db.ExecContext(ctx, e.db.Rebind(query), args...)
	return err
}

// softDelete marks rows deleted without removing them; a later import that
// references the key again resurrects the row.
func (e *Engine) softDelete(ctx context.Context, table, keyCol string, keys []string, now time.Time) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`
		UPDATE %s SET
			IsDeleted = TRUE,
			DeletedTime = ?,
			LastSyncTime = ?
		WHERE %s IN (?)`, table, keyCol),
		now, now, keys)
	if err != nil {
		return err
	}
	_, err = e.db.ExecContext(ctx, e.db.Rebind(query), args...)
	return err
}

func (e *Engine) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func batched(keys []string, size int, fn func(batch []string) error) error {
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		if err := fn(keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}
