// pkg/extract/locator.go
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoExtractFiles is returned when the source resolves to zero extract
// files. The pipeline fails fast on this before opening a run ledger entry.
var ErrNoExtractFiles = errors.New("no extract files found")

// extractPrefix is the file name prefix the inspection system uses for its
// periodic exports.
const extractPrefix = "WeldingDB_"

// ResolveExtractFiles expands a source argument into an ordered list of
// extract files.
//
//   - A path to an existing file resolves to that single file.
//   - A path to a directory resolves to every WeldingDB_* file inside it.
//   - Anything else is treated as a glob pattern.
//
// Multiple files are sorted by name ascending, so the lexically newest export
// is loaded last and wins on key collisions.
func ResolveExtractFiles(source string) ([]string, error) {
	info, err := os.Stat(source)
	switch {
	case err == nil && !info.IsDir():
		if !isExtractFile(source) {
			return nil, fmt.Errorf("unsupported extract file type: %s", source)
		}
		return []string{source}, nil

	case err == nil && info.IsDir():
		matches, err := filepath.Glob(filepath.Join(source, extractPrefix+"*"))
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", source, err)
		}
		files := filterExtractFiles(matches)
		if len(files) == 0 {
			return nil, fmt.Errorf("%w in directory %s", ErrNoExtractFiles, source)
		}
		sort.Strings(files)
		return files, nil

	default:
		matches, globErr := filepath.Glob(source)
		if globErr != nil {
			return nil, fmt.Errorf("invalid source pattern %s: %w", source, globErr)
		}
		files := filterExtractFiles(matches)
		if len(files) == 0 {
			return nil, fmt.Errorf("%w matching %s", ErrNoExtractFiles, source)
		}
		sort.Strings(files)
		return files, nil
	}
}

func filterExtractFiles(paths []string) []string {
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		if isExtractFile(p) {
			files = append(files, p)
		}
	}
	return files
}

func isExtractFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}
