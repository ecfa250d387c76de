package config

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/bmatcuk/doublestar/v4"
)

// sourcePattern selects the files compiled as entries.
const sourcePattern = "**/*.{ts,tsx,js,jsx}"

// SearchFiles lists the entry files under the input root, sorted. It skips
// node_modules, hidden directories, the output root, declaration files and
// anything matching an exclude pattern.
func (r *Resolved) SearchFiles() ([]string, error) {
	for _, pattern := range r.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	var files []string
	err := filepath.WalkDir(r.InputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(r.InputRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == r.InputRoot {
				return nil
			}
			if r.skipDir(path, d.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".d.ts") || r.excluded(rel) {
			return nil
		}
		if ok, _ := doublestar.Match(sourcePattern, rel); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", r.InputRoot, err)
	}
	sort.Strings(files)
	buildlog.Debug("found source files", map[string]any{"root": r.InputRoot, "count": len(files)})
	return files, nil
}

func (r *Resolved) skipDir(path, name, rel string) bool {
	if strings.HasPrefix(name, ".") || path == r.OutputRoot {
		return true
	}
	for _, m := range r.Modules {
		if name == m {
			return true
		}
	}
	return r.excluded(rel)
}

func (r *Resolved) excluded(rel string) bool {
	for _, pattern := range r.Exclude {
		if ok, _ := doublestar.Match(strings.TrimPrefix(pattern, "./"), rel); ok {
			return true
		}
	}
	return false
}
