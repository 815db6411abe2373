package downloader

import (
	"fmt"
	"os"
	"path/filepath"
)

// CleanStaging removes staging files left in dir by interrupted runs and
// returns the removed paths. Staging files of downloads still running in
// dir are removed too, so only call it when none are.
func CleanStaging(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, StagingPattern))
	if err != nil {
		return nil, fmt.Errorf("listing staging files: %w", err)
	}
	var removed []string
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, &FilesystemError{Op: "remove", Path: path, Err: err}
		}
		removed = append(removed, path)
	}
	return removed, nil
}
