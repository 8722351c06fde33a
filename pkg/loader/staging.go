// pkg/loader/staging.go
package loader

import (
	"bytes"
	"strings"

	"github.com/nordweld/weldsync/pkg/model"
	"github.com/nordweld/weldsync/pkg/quarantine"
)

// nullToken is how absent values appear in the staging CSV. It must be
// unquoted for LOAD DATA to read it as SQL NULL.
const nullToken = `\N`

// revalidateDates runs the second date check on a chunk right before
// serialization. Column misalignment upstream can push a non-date value into
// a date field; anything that is not strict YYYY-MM-DD at this point is
// quarantined and nulled so LOAD DATA never sees it.
func revalidateDates(records []model.FactRecord, q *quarantine.List) {
	for i := range records {
		for _, f := range records[i].DateFields() {
			v := *f.Value
			if v == "" || isCanonicalDate(v) {
				continue
			}
			q.Add(model.InvalidDateRecord{
				SourceFile: "chunk",
				Column:     f.Column,
				WeldID:     records[i].WeldID,
				RawValue:   v,
			})
			*f.Value = ""
		}
	}
}

func isCanonicalDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// buildChunkCSV serializes a chunk into the staging CSV format consumed by
// LOAD DATA: a header line, every value double-quoted with embedded quotes
// doubled, NULLs as unquoted \N, CRLF line terminators.
func buildChunkCSV(records []model.FactRecord) []byte {
	var buf bytes.Buffer

	writeRow(&buf, model.TargetColumns, false)
	for i := range records {
		writeRow(&buf, records[i].Values(), true)
	}

	return buf.Bytes()
}

func writeRow(buf *bytes.Buffer, values []string, nullEmpty bool) {
	for i, v := range values {
		if i > 0 {
			buf.WriteByte(',')
		}
		if nullEmpty && v == "" {
			buf.WriteString(nullToken)
			continue
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(sanitizeValue(v), `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}

// sanitizeValue strips characters that would break the CSV row structure or
// combine with the LOAD DATA escape character: embedded line breaks split a
// row across lines, and a stray backslash next to a quote reads as an escape
// sequence on the server side.
func sanitizeValue(v string) string {
	if !strings.ContainsAny(v, "\r\n\\") {
		return v
	}
	r := strings.NewReplacer("\r", " ", "\n", " ", "\\", " ")
	return r.Replace(v)
}
