// pkg/normalize/normalizer.go
package normalize

import (
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/extract"
	"github.com/nordweld/weldsync/pkg/model"
	"github.com/nordweld/weldsync/pkg/quarantine"
)

// UndefinedCode is the placeholder master key for rows whose extract cells do
// not name a system or subsystem.
const UndefinedCode = "UNDEFINED"

// Normalizer converts raw extract tables into typed fact records.
type Normalizer struct {
	logger     *zap.Logger
	quarantine *quarantine.List
}

// New creates a Normalizer that reports unparseable dates to q.
func New(logger *zap.Logger, q *quarantine.List) *Normalizer {
	return &Normalizer{logger: logger, quarantine: q}
}

// Normalize converts the tables into fact records in input order. Row indices
// for synthetic WeldIDs run across all tables, so ids stay unique when several
// extracts are merged into one batch.
func (n *Normalizer) Normalize(tables []*extract.Table) []model.FactRecord {
	var records []model.FactRecord
	globalIdx := 0

	for _, table := range tables {
		cols := resolveColumns(table.Header)
		source := filepath.Base(table.SourceFile)

		for rowIdx, row := range table.Rows {
			rec := n.normalizeRow(row, cols, source, rowIdx, globalIdx)
			records = append(records, rec)
			globalIdx++
		}
	}

	n.logger.Info("Normalized extract rows",
		zap.Int("files", len(tables)),
		zap.Int("rows", len(records)),
		zap.Int("quarantinedDates", n.quarantine.Len()))

	return records
}

// resolveColumns maps canonical column names to cell indices for one table.
func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if name, ok := CanonicalColumn(h); ok {
			cols[name] = i
		}
	}
	return cols
}

func (n *Normalizer) normalizeRow(row []string, cols map[string]int, source string, rowIdx, globalIdx int) model.FactRecord {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return CleanText(row[i])
	}

	rec := model.FactRecord{
		ConstContractor:  get("ConstContractor"),
		SystemCode:       get("SystemCode"),
		SubSystemCode:    get("SubSystemCode"),
		WeldJoint:        get("WeldJoint"),
		JointTypeFS:      get("JointTypeFS"),
		DrawingNumber:    get("DrawingNumber"),
		PageNumber:       get("PageNumber"),
		RevNo:            get("RevNo"),
		PIDDrawingNumber: get("PIDDrawingNumber"),

		PipingMaterialClass: get("PipingMaterialClass"),
		PressureClass:       get("PressureClass"),
		MediumLevel:         get("MediumLevel"),
		SpoolNo:             get("SpoolNo"),
		NDTDesignRatio:      get("NDTDesignRatio"),
		Material1:           get("Material1"),
		Material2:           get("Material2"),
		OuterDiameter1:      get("OuterDiameter1"),
		OuterDiameter2:      get("OuterDiameter2"),
		SCH1:                get("SCH1"),
		SCH2:                get("SCH2"),

		WeldingType:      get("WeldingType"),
		WeldJointTypeRUS: get("WeldJointTypeRUS"),
		PipelineNumber:   get("PipelineNumber"),
		TestPackageID:    get("TestPackageID"),

		WelderRoot:                 get("WelderRoot"),
		WelderFill:                 get("WelderFill"),
		WPSNumber:                  get("WPSNumber"),
		WeldMethodRoot:             get("WeldMethodRoot"),
		WeldMethodCover:            get("WeldMethodCover"),
		WeldEnvironmentTemperature: get("WeldEnvironmentTemperature"),

		IsHeatTreatment:           get("IsHeatTreatment"),
		HeatTreatmentReportNumber: get("HeatTreatmentReportNumber"),
		HeatTreatmentWorker:       get("HeatTreatmentWorker"),

		VTReportNumber:   get("VTReportNumber"),
		VTResult:         get("VTResult"),
		RTReportNumber:   get("RTReportNumber"),
		RTResult:         get("RTResult"),
		UTReportNumber:   get("UTReportNumber"),
		UTResult:         get("UTResult"),
		PTReportNumber:   get("PTReportNumber"),
		PTResult:         get("PTResult"),
		HTReportNumber:   get("HTReportNumber"),
		HTResult:         get("HTResult"),
		PWHTReportNumber: get("PWHTReportNumber"),
		PWHTResult:       get("PWHTResult"),
		MTReportNumber:   get("MTReportNumber"),
		MTResult:         get("MTResult"),
		PMIReportNumber:  get("PMIReportNumber"),
		PMIResult:        get("PMIResult"),
		FTReportNumber:   get("FTReportNumber"),
		FTResult:         get("FTResult"),

		JointStatus: get("JointStatus"),
	}

	// Master key defaults. A row with no system still needs a subsystem key
	// so the fact row can join against SubsystemList.
	if rec.SystemCode == "" {
		rec.SystemCode = UndefinedCode
	}
	if rec.SubSystemCode == "" {
		switch {
		case rec.SystemCode != "":
			rec.SubSystemCode = rec.SystemCode + "_" + UndefinedCode
		case rec.TestPackageID != "":
			rec.SubSystemCode = rec.TestPackageID + "_" + UndefinedCode
		default:
			rec.SubSystemCode = UndefinedCode
		}
	}

	rec.WeldID = model.ComposeWeldID(rec.DrawingNumber, rec.PageNumber, rec.PipelineNumber, rec.WeldJoint, globalIdx)

	if raw := get("Size"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			rec.Size = &v
		}
	}

	// Date columns: normalize to strict YYYY-MM-DD; unparseable values are
	// quarantined and loaded as NULL. Quarantine rows count from the header
	// row, matching how reviewers count rows in the spreadsheet.
	for _, f := range rec.DateFields() {
		raw := get(f.Column)
		normalized, ok := NormalizeDate(raw)
		if !ok {
			n.quarantine.Add(model.InvalidDateRecord{
				SourceFile: source,
				Column:     f.Column,
				RowIndex:   rowIdx + 2,
				WeldID:     rec.WeldID,
				RawValue:   raw,
			})
		}
		*f.Value = normalized
	}

	rec.Status = rec.DeriveStatus()

	return rec
}

// absenceTokens are cell values that mean "no value". They show up when the
// upstream system round-trips its own exports through spreadsheet tooling.
var absenceTokens = map[string]struct{}{
	"nan":  {},
	"nat":  {},
	"none": {},
	"null": {},
}

// CleanText trims a raw cell and collapses absence tokens to the empty
// string.
func CleanText(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if _, absent := absenceTokens[strings.ToLower(s)]; absent {
		return ""
	}
	return s
}
