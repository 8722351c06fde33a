// pkg/seeder/seeder.go
package seeder

import (
	"context"
	"sort"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/model"
)

// seedUser is recorded as the creator of placeholder master rows.
const seedUser = "sync"

// Seeder inserts placeholder master rows for every system, subsystem and test
// package key referenced by a batch of fact records, so the bulk load never
// points at a missing master key. Existing rows are left untouched via
// INSERT IGNORE.
type Seeder struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New creates a Seeder.
func New(db *sqlx.DB, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, logger: logger}
}

// Seed writes placeholder rows for all distinct master keys in records.
// Seeding is best-effort: failures are logged and swallowed, because the
// reconciliation stage repairs master data after the load anyway.
func (s *Seeder) Seed(ctx context.Context, records []model.FactRecord) {
	systems, subsystems, testPackages := collectKeys(records)

	if len(systems) > 0 {
		if err := s.seedSystems(ctx, systems); err != nil {
			s.logger.Warn("Failed to seed SystemList placeholders", zap.Error(err))
		}
	}
	if len(subsystems) > 0 {
		if err := s.seedSubsystems(ctx, subsystems); err != nil {
			s.logger.Warn("Failed to seed SubsystemList placeholders", zap.Error(err))
		}
	}
	if len(testPackages) > 0 {
		if err := s.seedTestPackages(ctx, testPackages); err != nil {
			s.logger.Warn("Failed to seed HydroTestPackageList placeholders", zap.Error(err))
		}
	}

	s.logger.Info("Seeded master placeholders",
		zap.Int("systems", len(systems)),
		zap.Int("subsystems", len(subsystems)),
		zap.Int("testPackages", len(testPackages)))
}

type subsystemKey struct {
	SubSystemCode string
	SystemCode    string
}

type testPackageKey struct {
	TestPackageID string
	SystemCode    string
	SubSystemCode string
}

func collectKeys(records []model.FactRecord) ([]string, []subsystemKey, []testPackageKey) {
	systemSet := make(map[string]struct{})
	subsystemSet := make(map[subsystemKey]struct{})
	testPackageSet := make(map[testPackageKey]struct{})

	for i := range records {
		r := &records[i]
		if r.SystemCode != "" {
			systemSet[r.SystemCode] = struct{}{}
		}
		if r.SubSystemCode != "" && r.SystemCode != "" {
			subsystemSet[subsystemKey{r.SubSystemCode, r.SystemCode}] = struct{}{}
		}
		if r.TestPackageID != "" {
			testPackageSet[testPackageKey{r.TestPackageID, r.SystemCode, r.SubSystemCode}] = struct{}{}
		}
	}

	systems := make([]string, 0, len(systemSet))
	for k := range systemSet {
		systems = append(systems, k)
	}
	sort.Strings(systems)

	subsystems := make([]subsystemKey, 0, len(subsystemSet))
	for k := range subsystemSet {
		subsystems = append(subsystems, k)
	}
	sort.Slice(subsystems, func(i, j int) bool {
		if subsystems[i].SubSystemCode != subsystems[j].SubSystemCode {
			return subsystems[i].SubSystemCode < subsystems[j].SubSystemCode
		}
		return subsystems[i].SystemCode < subsystems[j].SystemCode
	})

	testPackages := make([]testPackageKey, 0, len(testPackageSet))
	for k := range testPackageSet {
		testPackages = append(testPackages, k)
	}
	sort.Slice(testPackages, func(i, j int) bool {
		return testPackages[i].TestPackageID < testPackages[j].TestPackageID
	})

	return systems, subsystems, testPackages
}

func (s *Seeder) seedSystems(ctx context.Context, systems []string) error {
	ib := sqlbuilder.MySQL.NewInsertBuilder()
	ib.InsertIgnoreInto("SystemList")
	ib.Cols("SystemCode", "SystemDescriptionENG", "SystemDescriptionRUS",
		"ProcessOrNonProcess", "Priority", "Remarks", "created_by", "last_updated_by")
	for _, code := range systems {
		// Description defaults to the code itself until someone curates it.
		ib.Values(code, code, nil, "Process", 0, "", seedUser, seedUser)
	}

	query, args := ib.Build()
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Seeder) seedSubsystems(ctx context.Context, subsystems []subsystemKey) error {
	ib := sqlbuilder.MySQL.NewInsertBuilder()
	ib.InsertIgnoreInto("SubsystemList")
	ib.Cols("SubSystemCode", "SystemCode", "SubSystemDescriptionENG", "SubSystemDescriptionRUS",
		"ProcessOrNonProcess", "Priority", "Remarks", "created_by", "last_updated_by")
	for _, k := range subsystems {
		ib.Values(k.SubSystemCode, k.SystemCode, k.SubSystemCode, nil, "Process", 0, "", seedUser, seedUser)
	}

	query, args := ib.Build()
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Seeder) seedTestPackages(ctx context.Context, testPackages []testPackageKey) error {
	ib := sqlbuilder.MySQL.NewInsertBuilder()
	ib.InsertIgnoreInto("HydroTestPackageList")
	ib.Cols("TestPackageID", "SystemCode", "SubSystemCode", "Description",
		"PlannedDate", "ActualDate", "Status", "Pressure", "TestDuration",
		"Remarks", "created_by", "last_updated_by")
	for _, k := range testPackages {
		var system, subsystem interface{}
		if k.SystemCode != "" {
			system = k.SystemCode
		}
		if k.SubSystemCode != "" {
			subsystem = k.SubSystemCode
		}
		ib.Values(k.TestPackageID, system, subsystem, k.TestPackageID,
			nil, nil, "Pending", nil, nil, "", seedUser, seedUser)
	}

	query, args := ib.Build()
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
