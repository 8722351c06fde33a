// pkg/normalize/dates.go
package normalize

import (
	"regexp"
	"strconv"
	"time"
)

// canonicalDatePattern is the only representation allowed into the fact
// table's date columns.
var canonicalDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// dateLayouts are the accepted non-canonical representations, tried in order.
// Day-first slashed dates are what the inspection system's Russian-locale
// workstations emit, so 02/01/2006 comes after the ISO-style layouts.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"2006.01.02",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Excel serial-date window. Serials map to dates via the workbook epoch of
// 1899-12-30; the window covers roughly 1954-2119, well beyond any plausible
// weld date, and excludes small integers that are really codes.
const (
	excelSerialMin   = 20000
	excelSerialMax   = 80000
	excelEpochOffset = 25569 // days from 1899-12-30 to 1970-01-01
)

// IsCanonicalDate reports whether s is already a strict YYYY-MM-DD value.
func IsCanonicalDate(s string) bool {
	return canonicalDatePattern.MatchString(s)
}

// NormalizeDate converts a raw cell value to canonical YYYY-MM-DD form.
// It returns ok=false when the value is non-empty but unparseable; such
// values are quarantined by the caller and stored as NULL.
func NormalizeDate(raw string) (string, bool) {
	if raw == "" {
		return "", true
	}
	if IsCanonicalDate(raw) {
		return raw, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial >= excelSerialMin && serial <= excelSerialMax {
			days := int64(serial) - excelEpochOffset
			t := time.Unix(days*86400, 0).UTC()
			return t.Format("2006-01-02"), true
		}
	}

	return "", false
}
