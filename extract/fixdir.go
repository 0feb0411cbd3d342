package extract

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ARDIEY21/unblob/report"
)

// FixExtractedDirectory walks outdir, removing unsafe symlinks (absolute
// targets, or targets that escape outdir) and normalizing permissions so
// the tree is readable and traversable regardless of what the external
// extractor left behind. This is what gives consistent partial output even
// when extraction fails midway, per spec.md §4.4 step 7.
func FixExtractedDirectory(outdir string, result report.Appender) {
	if _, err := os.Stat(outdir); err != nil {
		return
	}

	_ = filepath.WalkDir(outdir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.AddReport(report.Report{
				Severity: report.SeverityWarning,
				Kind:     report.KindUnsafePath,
				Path:     path,
				Message:  "error walking extracted directory: " + err.Error(),
			})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if removeUnsafeSymlink(outdir, path, result) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			_ = os.Chmod(path, info.Mode().Perm()|0700)
		} else {
			_ = os.Chmod(path, info.Mode().Perm()|0600)
		}
		return nil
	})
}

// removeUnsafeSymlink removes path if it is a symlink pointing outside
// outdir (absolute, or relative but escaping via "..") and reports it. It
// returns true if the symlink was removed.
func removeUnsafeSymlink(outdir, path string, result report.Appender) bool {
	target, err := os.Readlink(path)
	if err != nil {
		return false
	}

	unsafe := filepath.IsAbs(target)
	if !unsafe {
		resolved := filepath.Join(filepath.Dir(path), target)
		rel, err := filepath.Rel(outdir, resolved)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			unsafe = true
		}
	}

	if !unsafe {
		return false
	}

	result.AddReport(report.Report{
		Severity: report.SeverityWarning,
		Kind:     report.KindUnsafePath,
		Path:     path,
		Message:  "removed unsafe symlink pointing to " + target,
	})
	_ = os.Remove(path)
	return true
}
