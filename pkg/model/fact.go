// pkg/model/fact.go
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Literal values used by the status derivation. The extracts are produced by a
// Chinese-language inspection system, so the pass/complete markers are fixed
// Chinese tokens.
const (
	ResultPass       = "合格"
	StatusComplete   = "已完成"
	StatusIncomplete = "未完成"
)

// FactRecord is one weld joint row bound for the WeldingList fact table.
//
// All text fields use the empty string to mean "absent"; absent values are
// serialized as SQL NULL by the bulk loader. Date fields hold either "" or a
// strict YYYY-MM-DD string produced by the normalizer.
type FactRecord struct {
	WeldID string

	// Base information
	ConstContractor  string
	SystemCode       string
	SubSystemCode    string
	WeldJoint        string
	JointTypeFS      string
	DrawingNumber    string
	PageNumber       string
	RevNo            string
	PID              string
	PIDDrawingNumber string

	// Piping material
	PipingMaterialClass string
	PressureClass       string
	MediumLevel         string
	SpoolNo             string
	NDTDesignRatio      string
	Material1           string
	Material2           string
	OuterDiameter1      string
	OuterDiameter2      string
	SCH1                string
	SCH2                string

	// Welding
	WeldingType      string
	WeldJointTypeRUS string
	PipelineNumber   string
	TestPackageID    string
	WeldDate         string
	Size             *float64

	// Welder and WPS
	WelderRoot                 string
	WelderFill                 string
	WPSNumber                  string
	WeldMethodRoot             string
	WeldMethodCover            string
	WeldEnvironmentTemperature string

	// Heat treatment
	IsHeatTreatment           string
	HeatTreatmentDate         string
	HeatTreatmentReportNumber string
	HeatTreatmentWorker       string

	// NDE result triples
	VTReportNumber   string
	VTReportDate     string
	VTResult         string
	RTReportNumber   string
	RTReportDate     string
	RTResult         string
	UTReportNumber   string
	UTReportDate     string
	UTResult         string
	PTReportNumber   string
	PTReportDate     string
	PTResult         string
	HTReportNumber   string
	HTReportDate     string
	HTResult         string
	PWHTReportNumber string
	PWHTReportDate   string
	PWHTResult       string
	MTReportNumber   string
	MTReportDate     string
	MTResult         string
	PMIReportNumber  string
	PMIReportDate    string
	PMIResult        string
	FTReportNumber   string
	FTReportDate     string
	FTResult         string

	// Derived status
	Status      string
	JointStatus string
}

// TargetColumns is the fact table column list in load order. The staging CSV
// and the LOAD DATA column clause both follow this order exactly.
var TargetColumns = []string{
	"WeldID", "ConstContractor", "SystemCode", "SubSystemCode", "WeldJoint", "JointTypeFS",
	"DrawingNumber", "PageNumber", "RevNo", "PID", "PIDDrawingNumber",
	"PipingMaterialClass", "PressureClass", "MediumLevel", "SpoolNo", "NDTDesignRatio",
	"Material1", "Material2", "OuterDiameter1", "OuterDiameter2", "SCH1", "SCH2",
	"WeldingType", "WeldJointTypeRUS", "PipelineNumber", "TestPackageID", "WeldDate", "Size",
	"WelderRoot", "WelderFill", "WPSNumber", "WeldMethodRoot", "WeldMethodCover", "WeldEnvironmentTemperature",
	"IsHeatTreatment", "HeatTreatmentDate", "HeatTreatmentReportNumber", "HeatTreatmentWorker",
	"VTReportNumber", "VTReportDate", "VTResult",
	"RTReportNumber", "RTReportDate", "RTResult",
	"UTReportNumber", "UTReportDate", "UTResult",
	"PTReportNumber", "PTReportDate", "PTResult",
	"HTReportNumber", "HTReportDate", "HTResult",
	"PWHTReportNumber", "PWHTReportDate", "PWHTResult",
	"MTReportNumber", "MTReportDate", "MTResult",
	"PMIReportNumber", "PMIReportDate", "PMIResult",
	"FTReportNumber", "FTReportDate", "FTResult",
	"Status", "JointStatus",
}

// Values returns the record's fields as strings in TargetColumns order.
// The empty string means SQL NULL.
func (r *FactRecord) Values() []string {
	size := ""
	if r.Size != nil {
		size = formatSize(*r.Size)
	}
	return []string{
		r.WeldID, r.ConstContractor, r.SystemCode, r.SubSystemCode, r.WeldJoint, r.JointTypeFS,
		r.DrawingNumber, r.PageNumber, r.RevNo, r.PID, r.PIDDrawingNumber,
		r.PipingMaterialClass, r.PressureClass, r.MediumLevel, r.SpoolNo, r.NDTDesignRatio,
		r.Material1, r.Material2, r.OuterDiameter1, r.OuterDiameter2, r.SCH1, r.SCH2,
		r.WeldingType, r.WeldJointTypeRUS, r.PipelineNumber, r.TestPackageID, r.WeldDate, size,
		r.WelderRoot, r.WelderFill, r.WPSNumber, r.WeldMethodRoot, r.WeldMethodCover, r.WeldEnvironmentTemperature,
		r.IsHeatTreatment, r.HeatTreatmentDate, r.HeatTreatmentReportNumber, r.HeatTreatmentWorker,
		r.VTReportNumber, r.VTReportDate, r.VTResult,
		r.RTReportNumber, r.RTReportDate, r.RTResult,
		r.UTReportNumber, r.UTReportDate, r.UTResult,
		r.PTReportNumber, r.PTReportDate, r.PTResult,
		r.HTReportNumber, r.HTReportDate, r.HTResult,
		r.PWHTReportNumber, r.PWHTReportDate, r.PWHTResult,
		r.MTReportNumber, r.MTReportDate, r.MTResult,
		r.PMIReportNumber, r.PMIReportDate, r.PMIResult,
		r.FTReportNumber, r.FTReportDate, r.FTResult,
		r.Status, r.JointStatus,
	}
}

// NamedField is a mutable reference to a single column of a FactRecord.
type NamedField struct {
	Column string
	Value  *string
}

// DateFields returns references to the record's eleven date columns, used by
// the per-chunk revalidation pass.
func (r *FactRecord) DateFields() []NamedField {
	return []NamedField{
		{"WeldDate", &r.WeldDate},
		{"HeatTreatmentDate", &r.HeatTreatmentDate},
		{"VTReportDate", &r.VTReportDate},
		{"RTReportDate", &r.RTReportDate},
		{"PTReportDate", &r.PTReportDate},
		{"UTReportDate", &r.UTReportDate},
		{"MTReportDate", &r.MTReportDate},
		{"PMIReportDate", &r.PMIReportDate},
		{"FTReportDate", &r.FTReportDate},
		{"HTReportDate", &r.HTReportDate},
		{"PWHTReportDate", &r.PWHTReportDate},
	}
}

// ResultFields returns the nine inspection result values in evaluation order.
func (r *FactRecord) ResultFields() []string {
	return []string{
		r.VTResult, r.RTResult, r.UTResult, r.PTResult, r.HTResult,
		r.PWHTResult, r.MTResult, r.PMIResult, r.FTResult,
	}
}

// ComposeWeldID builds the natural key from drawing number, page, pipeline
// number and joint number. When all four parts are empty a synthetic
// AUTO-<rowIndex> id is generated; rowIndex is unique within the batch so the
// synthetic ids never collide.
func ComposeWeldID(drawing, page, pipeline, joint string, rowIndex int) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{drawing, page, pipeline, joint} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("AUTO-%d", rowIndex)
	}
	return strings.Join(parts, "-")
}

// DeriveStatus evaluates the completion status from the nine result fields.
// Any non-empty result other than the pass literal forces incomplete; at
// least one pass with no failures means complete; all empty means incomplete.
func (r *FactRecord) DeriveStatus() string {
	sawPass := false
	for _, v := range r.ResultFields() {
		if v == "" {
			continue
		}
		if v != ResultPass {
			return StatusIncomplete
		}
		sawPass = true
	}
	if sawPass {
		return StatusComplete
	}
	return StatusIncomplete
}

// formatSize renders a numeric size the way the loader expects: no exponent,
// no trailing zeros beyond what the value needs.
func formatSize(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
