// pkg/extract/reader_test.go
package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadExtractCSV(t *testing.T) {
	t.Run("BannerDiscardedHeaderCollapsed", func(t *testing.T) {
		dir := t.TempDir()
		path := writeCSV(t, dir, "WeldingDB_1.csv",
			"Welding report export,,\r\n"+
				"\"图纸号\nDrawing No\",页码,管线号\r\n"+
				"DWG-1,2,PL-9\r\n")

		table, err := ReadExtract(path, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, []string{"图纸号", "页码", "管线号"}, table.Header)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, []string{"DWG-1", "2", "PL-9"}, table.Rows[0])
	})

	t.Run("ShortRowsPaddedToHeaderWidth", func(t *testing.T) {
		dir := t.TempDir()
		path := writeCSV(t, dir, "WeldingDB_1.csv",
			"banner\r\n"+
				"图纸号,页码,管线号\r\n"+
				"DWG-1\r\n")

		table, err := ReadExtract(path, zap.NewNop())
		require.NoError(t, err)

		require.Len(t, table.Rows, 1)
		assert.Equal(t, []string{"DWG-1", "", ""}, table.Rows[0])
	})

	t.Run("MissingHeaderRowFails", func(t *testing.T) {
		dir := t.TempDir()
		path := writeCSV(t, dir, "WeldingDB_1.csv", "banner only\r\n")

		_, err := ReadExtract(path, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("UnsupportedExtensionFails", func(t *testing.T) {
		dir := t.TempDir()
		path := writeCSV(t, dir, "WeldingDB_1.xml", "<data/>")

		_, err := ReadExtract(path, zap.NewNop())
		assert.Error(t, err)
	})
}
