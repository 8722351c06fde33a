// pkg/quarantine/quarantine_test.go
package quarantine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/model"
)

func TestWriteArtifact(t *testing.T) {
	t.Run("EmptyListWritesNothing", func(t *testing.T) {
		dir := t.TempDir()
		NewList().WriteArtifact(dir, zap.NewNop())

		_, err := os.Stat(filepath.Join(dir, ArtifactName))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("EntriesWrittenInOrder", func(t *testing.T) {
		dir := t.TempDir()
		l := NewList()
		l.Add(model.InvalidDateRecord{
			SourceFile: "WeldingDB_1.xlsx",
			Column:     "WeldDate",
			RowIndex:   5,
			WeldID:     "W01",
			RawValue:   "abc",
		})
		l.Add(model.InvalidDateRecord{
			SourceFile: "chunk",
			Column:     "VTReportDate",
			WeldID:     "W02",
			RawValue:   "1.0",
		})

		l.WriteArtifact(dir, zap.NewNop())

		data, err := os.ReadFile(filepath.Join(dir, ArtifactName))
		require.NoError(t, err)

		content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
		lines := strings.Split(strings.TrimSpace(content), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "SourceFile,Column,RowIndex,WeldID,RawValue", lines[0])
		assert.Equal(t, "WeldingDB_1.xlsx,WeldDate,5,W01,abc", lines[1])
		// RowIndex is blank for chunk-pass entries.
		assert.Equal(t, "chunk,VTReportDate,,W02,1.0", lines[2])
	})
}
