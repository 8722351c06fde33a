// pkg/model/master.go
package model

import (
	"database/sql"
	"time"
)

// DataSourceDerived tags master rows whose content was derived from the fact
// table by the reconciliation engine.
const DataSourceDerived = "WELDING_LIST"

// System is one row of the SystemList master table.
type System struct {
	SystemCode           string         `db:"SystemCode"`
	SystemDescriptionENG string         `db:"SystemDescriptionENG"`
	SystemDescriptionRUS sql.NullString `db:"SystemDescriptionRUS"`
	ProcessOrNonProcess  string         `db:"ProcessOrNonProcess"`
	Priority             int            `db:"Priority"`
	Remarks              string         `db:"Remarks"`
	DataSource           sql.NullString `db:"DataSource"`
	LastSyncTime         sql.NullTime   `db:"LastSyncTime"`
	IsDeleted            bool           `db:"IsDeleted"`
	DeletedTime          sql.NullTime   `db:"DeletedTime"`
	IsManuallyModified   bool           `db:"IsManuallyModified"`
	CreatedBy            sql.NullString `db:"created_by"`
	LastUpdatedBy        sql.NullString `db:"last_updated_by"`
}

// Subsystem is one row of the SubsystemList master table.
type Subsystem struct {
	SubSystemCode           string         `db:"SubSystemCode"`
	SystemCode              string         `db:"SystemCode"`
	SubSystemDescriptionENG string         `db:"SubSystemDescriptionENG"`
	SubSystemDescriptionRUS sql.NullString `db:"SubSystemDescriptionRUS"`
	ProcessOrNonProcess     string         `db:"ProcessOrNonProcess"`
	Priority                int            `db:"Priority"`
	Remarks                 string         `db:"Remarks"`
	DataSource              sql.NullString `db:"DataSource"`
	LastSyncTime            sql.NullTime   `db:"LastSyncTime"`
	IsDeleted               bool           `db:"IsDeleted"`
	DeletedTime             sql.NullTime   `db:"DeletedTime"`
	IsManuallyModified      bool           `db:"IsManuallyModified"`
	CreatedBy               sql.NullString `db:"created_by"`
	LastUpdatedBy           sql.NullString `db:"last_updated_by"`
}

// TestPackage is one row of the HydroTestPackageList master table.
type TestPackage struct {
	TestPackageID      string          `db:"TestPackageID"`
	SystemCode         sql.NullString  `db:"SystemCode"`
	SubSystemCode      sql.NullString  `db:"SubSystemCode"`
	Description        string          `db:"Description"`
	PlannedDate        sql.NullTime    `db:"PlannedDate"`
	ActualDate         sql.NullTime    `db:"ActualDate"`
	Status             string          `db:"Status"`
	Pressure           sql.NullFloat64 `db:"Pressure"`
	TestDuration       sql.NullInt64   `db:"TestDuration"`
	Remarks            string          `db:"Remarks"`
	DataSource         sql.NullString  `db:"DataSource"`
	LastSyncTime       sql.NullTime    `db:"LastSyncTime"`
	IsDeleted          bool            `db:"IsDeleted"`
	DeletedTime        sql.NullTime    `db:"DeletedTime"`
	IsManuallyModified bool            `db:"IsManuallyModified"`
	CreatedBy          sql.NullString  `db:"created_by"`
	LastUpdatedBy      sql.NullString  `db:"last_updated_by"`
}

// RunStatus values for the SyncLog ledger.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// RunLedgerEntry is one row of the SyncLog table, recording a full pipeline
// invocation. Append-only; immutable once Status is terminal.
type RunLedgerEntry struct {
	SyncID         int64          `db:"SyncID"`
	SyncType       string         `db:"SyncType"`
	BackupID       sql.NullString `db:"BackupID"`
	StartTime      time.Time      `db:"StartTime"`
	EndTime        sql.NullTime   `db:"EndTime"`
	Status         string         `db:"Status"`
	RecordsAdded   int            `db:"RecordsAdded"`
	RecordsUpdated int            `db:"RecordsUpdated"`
	RecordsDeleted int            `db:"RecordsDeleted"`
	RecordsSkipped int            `db:"RecordsSkipped"`
	DetailsJSON    sql.NullString `db:"DetailsJSON"`
	ErrorMessage   sql.NullString `db:"ErrorMessage"`
	Duration       sql.NullInt64  `db:"Duration"`
}

// InvalidDateRecord is a quarantine entry for a date value that failed the
// strict format check. Produced per run and written to a CSV artifact beside
// the extract; never loaded into the relational store.
type InvalidDateRecord struct {
	SourceFile string
	Column     string
	RowIndex   int
	WeldID     string
	RawValue   string
}
