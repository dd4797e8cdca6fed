package monitor

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// ScanSessions walks projectsDir recursively and returns every file with the
// given extension modified within window of now. now is captured once by the
// caller for the whole walk. Unreadable directories and files are skipped; a
// missing root yields nil.
func ScanSessions(projectsDir, ext string, window time.Duration, now time.Time) []string {
	suffix := "." + strings.TrimPrefix(ext, ".")
	var results []string

	_ = filepath.WalkDir(projectsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		// A file written after the scan started counts as fresh.
		if now.Sub(info.ModTime()) <= window {
			results = append(results, path)
		}
		return nil
	})

	return results
}
