// pkg/loader/staging_test.go
package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordweld/weldsync/pkg/model"
	"github.com/nordweld/weldsync/pkg/quarantine"
)

func TestBuildChunkCSV(t *testing.T) {
	t.Run("HeaderAndRowStructure", func(t *testing.T) {
		rec := model.FactRecord{WeldID: "W01", Status: "已完成"}
		data := string(buildChunkCSV([]model.FactRecord{rec}))

		lines := strings.Split(data, "\r\n")
		// Header, one data row, trailing terminator.
		require.Len(t, lines, 3)
		assert.Equal(t, "", lines[2])

		header := strings.Split(lines[0], ",")
		require.Len(t, header, len(model.TargetColumns))
		assert.Equal(t, `"WeldID"`, header[0])

		fields := strings.Split(lines[1], ",")
		require.Len(t, fields, len(model.TargetColumns))
		assert.Equal(t, `"W01"`, fields[0])
	})

	t.Run("EmptyValuesBecomeUnquotedNull", func(t *testing.T) {
		rec := model.FactRecord{WeldID: "W01"}
		data := string(buildChunkCSV([]model.FactRecord{rec}))

		lines := strings.Split(data, "\r\n")
		fields := strings.Split(lines[1], ",")
		// ConstContractor is empty on this record.
		assert.Equal(t, `\N`, fields[1])
	})

	t.Run("QuotesAreDoubled", func(t *testing.T) {
		rec := model.FactRecord{WeldID: "W01"}
		rec.DrawingNumber = `DWG "rev B"`
		data := string(buildChunkCSV([]model.FactRecord{rec}))
		assert.Contains(t, data, `"DWG ""rev B"""`)
	})

	t.Run("SizeSerializedAsNumber", func(t *testing.T) {
		size := 114.3
		rec := model.FactRecord{WeldID: "W01", Size: &size}
		data := string(buildChunkCSV([]model.FactRecord{rec}))
		assert.Contains(t, data, `"114.3"`)
	})
}

func TestSanitizeValue(t *testing.T) {
	assert.Equal(t, "a b", sanitizeValue("a\nb"))
	assert.Equal(t, "a b", sanitizeValue("a\rb"))
	assert.Equal(t, "a  b", sanitizeValue("a\r\nb"))
	assert.Equal(t, "a b", sanitizeValue(`a\b`))
	assert.Equal(t, "clean", sanitizeValue("clean"))
}

func TestRevalidateDates(t *testing.T) {
	t.Run("NonCanonicalValueNulledAndQuarantined", func(t *testing.T) {
		rec := model.FactRecord{WeldID: "W01", WeldDate: "1.0"}
		q := quarantine.NewList()

		records := []model.FactRecord{rec}
		revalidateDates(records, q)

		assert.Equal(t, "", records[0].WeldDate)
		require.Equal(t, 1, q.Len())
		entry := q.Records()[0]
		assert.Equal(t, "chunk", entry.SourceFile)
		assert.Equal(t, "WeldDate", entry.Column)
		assert.Equal(t, "W01", entry.WeldID)
		assert.Equal(t, "1.0", entry.RawValue)
	})

	t.Run("CanonicalAndEmptyValuesUntouched", func(t *testing.T) {
		records := []model.FactRecord{{
			WeldID:       "W01",
			WeldDate:     "2024-03-15",
			VTReportDate: "",
		}}
		q := quarantine.NewList()

		revalidateDates(records, q)

		assert.Equal(t, "2024-03-15", records[0].WeldDate)
		assert.Equal(t, 0, q.Len())
	})
}

func TestBuildLoadSQL(t *testing.T) {
	sql := buildLoadSQL()

	assert.Contains(t, sql, "LOAD DATA LOCAL INFILE 'Reader::weldsync_chunk'")
	assert.Contains(t, sql, "REPLACE INTO TABLE WeldingList")
	assert.Contains(t, sql, "IGNORE 1 LINES")
	assert.Contains(t, sql, "@tmp_WeldDate")
	assert.Contains(t, sql, "SET WeldDate = STR_TO_DATE(NULLIF(@tmp_WeldDate, ''), '%Y-%m-%d')")
	// WeldDate only ever appears via the user variable in the column list.
	assert.NotContains(t, sql, ", WeldDate,")
}
