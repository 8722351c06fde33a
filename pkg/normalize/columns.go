// pkg/normalize/columns.go
package normalize

// columnDictionary maps the inspection system's export headers to the
// canonical fact table column names. Headers not in the dictionary are
// ignored; canonical columns with no matching header stay absent.
var columnDictionary = map[string]string{
	"施工承包商":        "ConstContractor",
	"介质":           "SystemCode",
	"子系统":          "SubSystemCode",
	"图纸号":          "DrawingNumber",
	"版本号":          "RevNo",
	"页码":           "PageNumber",
	"管线号":          "PipelineNumber",
	"流程图号":         "PIDDrawingNumber",
	"管道材料等级":       "PipingMaterialClass",
	"压力等级":         "PressureClass",
	"介质级别":         "MediumLevel",
	"管段号":          "SpoolNo",
	"焊缝编号":         "WeldJoint",
	"安装/F预制/S":     "JointTypeFS",
	"设计比例":         "NDTDesignRatio",
	"母材材质1":        "Material1",
	"母材材质2":        "Material2",
	"外径1":          "OuterDiameter1",
	"外径2":          "OuterDiameter2",
	"厚度1":          "SCH1",
	"厚度2":          "SCH2",
	"焊接类型":         "WeldingType",
	"接头类型(俄标)":     "WeldJointTypeRUS",
	"WPS编号":        "WPSNumber",
	"焊接方法(根层)":     "WeldMethodRoot",
	"焊接方法(填充、盖面)":  "WeldMethodCover",
	"焊接环境温度℃":      "WeldEnvironmentTemperature",
	"焊工号根层":        "WelderRoot",
	"焊工号填充、盖面":     "WelderFill",
	"是否热处理":        "IsHeatTreatment",
	"热处理日期":        "HeatTreatmentDate",
	"热处理报告号":       "HeatTreatmentReportNumber",
	"热处理工":         "HeatTreatmentWorker",
	"试压包号":         "TestPackageID",
	"焊接日期":         "WeldDate",
	"尺寸":           "Size",
	"VT报告号":        "VTReportNumber",
	"VT报告日期":       "VTReportDate",
	"VT检测结果":       "VTResult",
	"RT报告号":        "RTReportNumber",
	"RT报告日期":       "RTReportDate",
	"RT检测结果":       "RTResult",
	"PT报告号":        "PTReportNumber",
	"PT报告日期":       "PTReportDate",
	"PT检测结果":       "PTResult",
	"UT报告号":        "UTReportNumber",
	"UT报告日期":       "UTReportDate",
	"UT检测结果":       "UTResult",
	"MT报告号":        "MTReportNumber",
	"MT报告日期":       "MTReportDate",
	"MT检测结果":       "MTResult",
	"PMI报告号":       "PMIReportNumber",
	"PMI报告日期":      "PMIReportDate",
	"PMI检测结果":      "PMIResult",
	"FT报告号":        "FTReportNumber",
	"FT报告日期":       "FTReportDate",
	"FT检测结果":       "FTResult",
	"HT报告号":        "HTReportNumber",
	"HT报告日期":       "HTReportDate",
	"HT检测结果":       "HTResult",
	"PWHT报告号":      "PWHTReportNumber",
	"PWHT报告日期":     "PWHTReportDate",
	"PWHT检测结果":     "PWHTResult",
	"焊口状态":         "JointStatus",
}

// CanonicalColumn resolves an export header to its canonical column name.
func CanonicalColumn(header string) (string, bool) {
	name, ok := columnDictionary[header]
	return name, ok
}
