package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// layoutFile is a discovered layout and the directory its output goes to.
type layoutFile struct {
	path      string
	outputDir string
}

// discover lists the layouts under opts.Input. Subdirectories are mirrored
// below opts.OutputDir; a directory containing the ignore file is skipped
// with everything below it. Files with another extension are returned as
// skipped.
func discover(opts *Options) (files []layoutFile, skipped []string, err error) {
	if !opts.inputIsDir {
		return []layoutFile{{path: opts.Input, outputDir: opts.OutputDir}}, nil, nil
	}

	err = filepath.WalkDir(opts.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, err := os.Stat(filepath.Join(path, opts.IgnoreFile)); err == nil {
				opts.Logger.Debug("skipping ignored directory", "dir", path)
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == opts.IgnoreFile {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), opts.Extension) {
			skipped = append(skipped, path)
			return nil
		}

		rel, err := filepath.Rel(opts.Input, filepath.Dir(path))
		if err != nil {
			return err
		}
		files = append(files, layoutFile{
			path:      path,
			outputDir: filepath.Join(opts.OutputDir, rel),
		})
		return nil
	})
	return files, skipped, err
}
