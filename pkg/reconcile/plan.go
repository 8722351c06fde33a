// pkg/reconcile/plan.go
package reconcile

import "sort"

// ExistingRow is the reconciliation-relevant slice of one master table row.
type ExistingRow struct {
	Key              string `db:"RowKey"`
	ManuallyModified bool   `db:"IsManuallyModified"`
	Deleted          bool   `db:"IsDeleted"`
}

// Plan is the set of mutations that bring a master table in line with the
// keys derived from the fact table.
//
// Manual-override policy: a row with IsManuallyModified set never has its
// content touched and is never soft-deleted. When the fact table still
// references it, it only receives a bookkeeping update (DataSource,
// LastSyncTime, deletion flag cleared); when the fact table no longer
// references it, it is left entirely alone.
type Plan struct {
	// Inserts are derived keys with no master row yet.
	Inserts []string

	// FullUpdates are present, non-manual rows: content and bookkeeping
	// both refresh from the derived projection.
	FullUpdates []string

	// BookkeepingUpdates are present, manually modified rows: content is
	// preserved, sync metadata refreshes, deletion flag clears.
	BookkeepingUpdates []string

	// SoftDeletes are live non-manual rows the fact table no longer
	// references.
	SoftDeletes []string
}

// Counts returns the plan's cardinalities as (added, updated, skipped,
// deleted). Manually modified rows count as skipped: their content was
// deliberately not synchronized.
func (p *Plan) Counts() (added, updated, skipped, deleted int) {
	return len(p.Inserts), len(p.FullUpdates), len(p.BookkeepingUpdates), len(p.SoftDeletes)
}

// BuildPlan computes the mutation plan for one master table. derivedKeys is
// the distinct key set currently present in the fact table; existing is the
// full master table. Output slices are sorted, so a plan is deterministic for
// a given input regardless of map iteration order upstream.
func BuildPlan(derivedKeys []string, existing []ExistingRow) *Plan {
	existingByKey := make(map[string]ExistingRow, len(existing))
	for _, row := range existing {
		existingByKey[row.Key] = row
	}

	derivedSet := make(map[string]struct{}, len(derivedKeys))
	plan := &Plan{}

	for _, key := range derivedKeys {
		if key == "" {
			continue
		}
		if _, seen := derivedSet[key]; seen {
			continue
		}
		derivedSet[key] = struct{}{}

		row, present := existingByKey[key]
		switch {
		case !present:
			plan.Inserts = append(plan.Inserts, key)
		case row.ManuallyModified:
			plan.BookkeepingUpdates = append(plan.BookkeepingUpdates, key)
		default:
			plan.FullUpdates = append(plan.FullUpdates, key)
		}
	}

	for _, row := range existing {
		if _, present := derivedSet[row.Key]; present {
			continue
		}
		if row.Deleted || row.ManuallyModified {
			continue
		}
		plan.SoftDeletes = append(plan.SoftDeletes, row.Key)
	}

	sort.Strings(plan.Inserts)
	sort.Strings(plan.FullUpdates)
	sort.Strings(plan.BookkeepingUpdates)
	sort.Strings(plan.SoftDeletes)

	return plan
}
