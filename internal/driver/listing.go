package driver

import (
	"io/fs"
	"path/filepath"
	"sort"

	"greenlens/internal/analysis"
)

// ListFiles returns the sorted list of files under dir whose extension is in
// exts (analysis.DefaultExtensions when nil). exclude receives paths relative
// to dir; excluded directories are not descended into.
func ListFiles(dir string, exts []string, exclude func(rel string) bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && exclude != nil {
			rel, relErr := filepath.Rel(dir, path)
			if relErr == nil && exclude(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if !d.IsDir() && analysis.HasTargetExt(path, exts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// deterministic order for output and fix application
	sort.Strings(files)
	return files, nil
}
