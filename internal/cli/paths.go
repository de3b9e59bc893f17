package cli

import (
	"fmt"
	"strings"

	"github.com/andywolf/pluginkit/internal/config"
	"github.com/andywolf/pluginkit/internal/template"
)

// ParsePaths turns repeated --path values of the form VAR=dir into template
// variables. Several pairs may share one flag value separated by commas.
//
// Examples:
//   - ["frontendDir=apps/web"] → {FRONTEND_DIR: apps/web}
//   - ["frontend_dir=web,BACKEND_DIR=api"] → {FRONTEND_DIR: web, BACKEND_DIR: api}
func ParsePaths(input []string) (map[string]string, error) {
	result := make(map[string]string)

	for _, item := range input {
		for _, segment := range strings.Split(item, ",") {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}

			key, dir, ok := strings.Cut(segment, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return nil, fmt.Errorf("invalid path %q: expected VAR=dir", segment)
			}
			dir = strings.TrimSpace(dir)
			if err := config.CheckRelative(dir); err != nil {
				return nil, fmt.Errorf("invalid path %q: %w", segment, err)
			}
			result[template.NormalizeKey(key)] = dir
		}
	}

	return result, nil
}

// SplitNames flattens plugin names given as separate arguments or
// comma-separated lists, dropping blanks. Repeats are kept so the resolver
// can reject them.
func SplitNames(input []string) []string {
	var result []string

	for _, item := range input {
		for _, name := range strings.Split(item, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			result = append(result, name)
		}
	}

	return result
}
