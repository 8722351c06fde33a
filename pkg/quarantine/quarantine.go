// pkg/quarantine/quarantine.go
package quarantine

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/model"
)

// ArtifactName is the CSV file written beside the extracts when a run
// quarantines any date values.
const ArtifactName = "invalid_weld_dates.csv"

// List accumulates quarantined date values for one pipeline run. Not safe for
// concurrent use; the pipeline is single-writer.
type List struct {
	records []model.InvalidDateRecord
}

// NewList creates an empty quarantine list.
func NewList() *List {
	return &List{}
}

// Add appends one quarantine entry.
func (l *List) Add(rec model.InvalidDateRecord) {
	l.records = append(l.records, rec)
}

// Records returns the accumulated entries in insertion order.
func (l *List) Records() []model.InvalidDateRecord {
	return l.records
}

// Len returns the number of quarantined values.
func (l *List) Len() int {
	return len(l.records)
}

// WriteArtifact writes the quarantine CSV into dir. Writing is best-effort:
// a failure is logged and swallowed, since the quarantine log must never take
// the import down with it. Nothing is written when the list is empty.
func (l *List) WriteArtifact(dir string, logger *zap.Logger) {
	if len(l.records) == 0 {
		return
	}

	path := filepath.Join(dir, ArtifactName)
	f, err := os.Create(path)
	if err != nil {
		logger.Warn("Failed to write quarantine artifact",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	defer f.Close()

	// UTF-8 BOM so the file opens correctly in Excel, which is where these
	// logs get reviewed.
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		logger.Warn("Failed to write quarantine artifact",
			zap.String("path", path),
			zap.Error(err))
		return
	}

	w := csv.NewWriter(f)
	_ = w.Write([]string{"SourceFile", "Column", "RowIndex", "WeldID", "RawValue"})
	for _, rec := range l.records {
		row := []string{rec.SourceFile, rec.Column, "", rec.WeldID, rec.RawValue}
		if rec.RowIndex > 0 {
			row[2] = strconv.Itoa(rec.RowIndex)
		}
		_ = w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logger.Warn("Failed to write quarantine artifact",
			zap.String("path", path),
			zap.Error(err))
		return
	}

	logger.Warn("Quarantined non-standard date values",
		zap.Int("count", len(l.records)),
		zap.String("path", path))
}
