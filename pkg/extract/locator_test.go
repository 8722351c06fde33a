// pkg/extract/locator_test.go
package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestResolveExtractFiles(t *testing.T) {
	t.Run("SingleFile", func(t *testing.T) {
		dir := t.TempDir()
		path := touch(t, dir, "WeldingDB_1.xlsx")

		files, err := ResolveExtractFiles(path)
		require.NoError(t, err)
		assert.Equal(t, []string{path}, files)
	})

	t.Run("SingleFileWrongExtension", func(t *testing.T) {
		dir := t.TempDir()
		path := touch(t, dir, "notes.txt")

		_, err := ResolveExtractFiles(path)
		assert.Error(t, err)
	})

	t.Run("DirectoryIsSortedByName", func(t *testing.T) {
		dir := t.TempDir()
		second := touch(t, dir, "WeldingDB_2.xlsx")
		first := touch(t, dir, "WeldingDB_1.xlsx")
		touch(t, dir, "unrelated.xlsx")

		files, err := ResolveExtractFiles(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{first, second}, files)
	})

	t.Run("DirectoryIgnoresNonExtractExtensions", func(t *testing.T) {
		dir := t.TempDir()
		keep := touch(t, dir, "WeldingDB_1.csv")
		touch(t, dir, "WeldingDB_1.bak")

		files, err := ResolveExtractFiles(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{keep}, files)
	})

	t.Run("EmptyDirectoryFailsFast", func(t *testing.T) {
		dir := t.TempDir()

		_, err := ResolveExtractFiles(dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoExtractFiles)
	})

	t.Run("GlobPattern", func(t *testing.T) {
		dir := t.TempDir()
		path := touch(t, dir, "WeldingDB_7.xlsx")

		files, err := ResolveExtractFiles(filepath.Join(dir, "WeldingDB_*.xlsx"))
		require.NoError(t, err)
		assert.Equal(t, []string{path}, files)
	})

	t.Run("GlobWithNoMatchesFailsFast", func(t *testing.T) {
		dir := t.TempDir()

		_, err := ResolveExtractFiles(filepath.Join(dir, "WeldingDB_*.xlsx"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoExtractFiles)
	})
}
