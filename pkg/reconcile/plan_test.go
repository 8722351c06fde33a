// pkg/reconcile/plan_test.go
package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPlan(t *testing.T) {
	t.Run("NewKeysAreInserts", func(t *testing.T) {
		plan := BuildPlan([]string{"TP-1", "TP-2"}, nil)
		assert.Equal(t, []string{"TP-1", "TP-2"}, plan.Inserts)
		assert.Empty(t, plan.FullUpdates)
		assert.Empty(t, plan.BookkeepingUpdates)
		assert.Empty(t, plan.SoftDeletes)
	})

	t.Run("PresentNonManualRowsGetFullUpdates", func(t *testing.T) {
		existing := []ExistingRow{{Key: "TP-1"}}
		plan := BuildPlan([]string{"TP-1"}, existing)
		assert.Equal(t, []string{"TP-1"}, plan.FullUpdates)
		assert.Empty(t, plan.Inserts)
	})

	t.Run("ManualRowsOnlyGetBookkeeping", func(t *testing.T) {
		existing := []ExistingRow{{Key: "TP-1", ManuallyModified: true}}
		plan := BuildPlan([]string{"TP-1"}, existing)
		assert.Equal(t, []string{"TP-1"}, plan.BookkeepingUpdates)
		assert.Empty(t, plan.FullUpdates)
		assert.Empty(t, plan.SoftDeletes)
	})

	t.Run("VanishedNonManualRowsAreSoftDeleted", func(t *testing.T) {
		existing := []ExistingRow{
			{Key: "TP-1"},
			{Key: "TP-GONE"},
		}
		plan := BuildPlan([]string{"TP-1"}, existing)
		assert.Equal(t, []string{"TP-GONE"}, plan.SoftDeletes)
	})

	t.Run("VanishedManualRowsAreUntouched", func(t *testing.T) {
		existing := []ExistingRow{{Key: "TP-KEEP", ManuallyModified: true}}
		plan := BuildPlan(nil, existing)
		assert.Empty(t, plan.SoftDeletes)
		assert.Empty(t, plan.BookkeepingUpdates)
	})

	t.Run("AlreadyDeletedRowsAreNotDeletedAgain", func(t *testing.T) {
		existing := []ExistingRow{{Key: "TP-OLD", Deleted: true}}
		plan := BuildPlan(nil, existing)
		assert.Empty(t, plan.SoftDeletes)
	})

	t.Run("DeletedRowReferencedAgainResurrects", func(t *testing.T) {
		existing := []ExistingRow{{Key: "TP-BACK", Deleted: true}}
		plan := BuildPlan([]string{"TP-BACK"}, existing)
		// Full update clears IsDeleted when applied.
		assert.Equal(t, []string{"TP-BACK"}, plan.FullUpdates)
	})

	t.Run("DeletedManualRowReferencedAgainGetsBookkeeping", func(t *testing.T) {
		existing := []ExistingRow{{Key: "TP-BACK", Deleted: true, ManuallyModified: true}}
		plan := BuildPlan([]string{"TP-BACK"}, existing)
		assert.Equal(t, []string{"TP-BACK"}, plan.BookkeepingUpdates)
	})

	t.Run("DuplicateAndEmptyDerivedKeysIgnored", func(t *testing.T) {
		plan := BuildPlan([]string{"TP-1", "TP-1", ""}, nil)
		assert.Equal(t, []string{"TP-1"}, plan.Inserts)
	})

	t.Run("IdempotentSecondRunHasNoWork", func(t *testing.T) {
		derived := []string{"TP-1", "TP-2"}
		// State after a first run: both rows present, non-manual, live.
		existing := []ExistingRow{{Key: "TP-1"}, {Key: "TP-2"}}
		plan := BuildPlan(derived, existing)
		assert.Empty(t, plan.Inserts)
		assert.Empty(t, plan.SoftDeletes)
		assert.Empty(t, plan.BookkeepingUpdates)
		// Full updates re-apply identical content; no visible change.
		assert.Equal(t, derived, plan.FullUpdates)
	})

	t.Run("OutputIsSorted", func(t *testing.T) {
		plan := BuildPlan([]string{"B", "A", "C"}, []ExistingRow{{Key: "Z"}, {Key: "Y"}})
		assert.Equal(t, []string{"A", "B", "C"}, plan.Inserts)
		assert.Equal(t, []string{"Y", "Z"}, plan.SoftDeletes)
	})
}

func TestPlanCounts(t *testing.T) {
	plan := &Plan{
		Inserts:            []string{"a", "b"},
		FullUpdates:        []string{"c"},
		BookkeepingUpdates: []string{"d", "e", "f"},
		SoftDeletes:        []string{"g"},
	}
	added, updated, skipped, deleted := plan.Counts()
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, 1, deleted)
}
