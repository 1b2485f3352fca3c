package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// DefaultPatterns match manifest files when a directory is given.
var DefaultPatterns = []string{"*.jsonl", "*.ndjson"}

// Discover expands args into manifest files. Files are taken as given;
// directories are searched for names matching include (DefaultPatterns when
// empty) and not matching exclude, descending into subdirectories only when
// recursive is set. Files found in one directory are returned sorted.
func Discover(args []string, recursive bool, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultPatterns
	}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := discoverInDirectory(arg, recursive, include, exclude)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func discoverInDirectory(dir string, recursive bool, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldIncludeFile(path, include, exclude) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// shouldIncludeFile applies exclude patterns first, then include patterns.
func shouldIncludeFile(path string, include, exclude []string) bool {
	if matchesAnyPattern(path, exclude) {
		return false
	}
	return matchesAnyPattern(path, include)
}

func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
