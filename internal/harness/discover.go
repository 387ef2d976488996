package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path         string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist (resolved to: %s)", e.Path, e.ResolvedPath)
}

// FindScenarios expands paths into scenario files. Files are returned as
// given; directories contribute their *.yaml and *.yml files (not
// recursive) in name order. Relative paths are resolved against baseDir.
func FindScenarios(baseDir string, paths ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		resolved := p
		if !filepath.IsAbs(resolved) && baseDir != "" {
			resolved = filepath.Join(baseDir, resolved)
		}

		info, err := os.Stat(resolved)
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Path: p, ResolvedPath: resolved}
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", resolved, err)
		}
		if !info.IsDir() {
			out = append(out, resolved)
			continue
		}

		entries, err := os.ReadDir(resolved)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", resolved, err)
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch filepath.Ext(e.Name()) {
			case ".yaml", ".yml":
				files = append(files, filepath.Join(resolved, e.Name()))
			}
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}
