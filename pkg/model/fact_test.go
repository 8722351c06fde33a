// pkg/model/fact_test.go
package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeWeldID(t *testing.T) {
	assert.Equal(t, "DWG-1-2-PL-9-W01", ComposeWeldID("DWG-1", "2", "PL-9", "W01", 0))
	assert.Equal(t, "DWG-1-W01", ComposeWeldID("DWG-1", "", "", "W01", 0))
	assert.Equal(t, "AUTO-42", ComposeWeldID("", "", "", "", 42))
}

func TestDeriveStatus(t *testing.T) {
	t.Run("AllEmptyIsIncomplete", func(t *testing.T) {
		r := &FactRecord{}
		assert.Equal(t, StatusIncomplete, r.DeriveStatus())
	})

	t.Run("SinglePassIsComplete", func(t *testing.T) {
		r := &FactRecord{VTResult: ResultPass}
		assert.Equal(t, StatusComplete, r.DeriveStatus())
	})

	t.Run("AllPassIsComplete", func(t *testing.T) {
		r := &FactRecord{VTResult: ResultPass, RTResult: ResultPass, PMIResult: ResultPass}
		assert.Equal(t, StatusComplete, r.DeriveStatus())
	})

	t.Run("AnyFailureOverridesPasses", func(t *testing.T) {
		r := &FactRecord{VTResult: ResultPass, RTResult: "不合格"}
		assert.Equal(t, StatusIncomplete, r.DeriveStatus())
	})

	t.Run("NonPassValueAloneIsIncomplete", func(t *testing.T) {
		r := &FactRecord{UTResult: "待定"}
		assert.Equal(t, StatusIncomplete, r.DeriveStatus())
	})
}

func TestValuesMatchesTargetColumns(t *testing.T) {
	size := 60.3
	r := &FactRecord{
		WeldID:        "W01",
		SystemCode:    "SYS-A",
		SubSystemCode: "SUB-1",
		WeldDate:      "2024-03-15",
		Size:          &size,
		Status:        StatusComplete,
	}

	values := r.Values()
	require.Len(t, values, len(TargetColumns))

	byColumn := make(map[string]string, len(values))
	for i, col := range TargetColumns {
		byColumn[col] = values[i]
	}
	assert.Equal(t, "W01", byColumn["WeldID"])
	assert.Equal(t, "SYS-A", byColumn["SystemCode"])
	assert.Equal(t, "SUB-1", byColumn["SubSystemCode"])
	assert.Equal(t, "2024-03-15", byColumn["WeldDate"])
	assert.Equal(t, "60.3", byColumn["Size"])
	assert.Equal(t, StatusComplete, byColumn["Status"])
}

func TestFormatSizeNeverUsesExponentForm(t *testing.T) {
	assert.Equal(t, "114.3", formatSize(114.3))
	assert.Equal(t, "60", formatSize(60))
	assert.Equal(t, "0.0001", formatSize(0.0001))
	// Magnitudes where %g would switch to exponent notation.
	assert.Equal(t, "1000000000000000000000", formatSize(1e21))
	assert.Equal(t, "0.00001", formatSize(1e-5))
}

func TestDateFieldsCoverAllDateColumns(t *testing.T) {
	r := &FactRecord{}
	fields := r.DateFields()
	require.Len(t, fields, 11)

	seen := make(map[string]bool)
	for _, f := range fields {
		require.NotNil(t, f.Value)
		seen[f.Column] = true
	}
	for _, col := range []string{
		"WeldDate", "HeatTreatmentDate",
		"VTReportDate", "RTReportDate", "UTReportDate", "PTReportDate",
		"HTReportDate", "PWHTReportDate", "MTReportDate", "PMIReportDate", "FTReportDate",
	} {
		assert.True(t, seen[col], col)
	}
}

func TestDateFieldsAreMutable(t *testing.T) {
	r := &FactRecord{WeldDate: "bogus"}
	for _, f := range r.DateFields() {
		if f.Column == "WeldDate" {
			*f.Value = ""
		}
	}
	assert.Equal(t, "", r.WeldDate)
}
