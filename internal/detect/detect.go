// Package detect guesses template variables from a project's manifest files
// and directory layout.
package detect

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/andywolf/pluginkit/internal/template"
)

// candidate directories per variable, first existing one wins.
var dirCandidates = []struct {
	variable string
	dirs     []string
}{
	{"SRC_DIR", []string{"src", "lib", "app", "internal"}},
	{"FRONTEND_DIR", []string{"frontend", "client", "web", "apps/web"}},
	{"BACKEND_DIR", []string{"backend", "server", "api", "apps/api"}},
	{"TEST_DIR", []string{"test", "tests", "__tests__"}},
	{"DOCS_DIR", []string{"docs", "doc"}},
}

var lockFiles = []struct {
	file    string
	manager string
}{
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"bun.lockb", "bun"},
	{"package-lock.json", "npm"},
}

// ProjectDetector reads package.json, go.mod, lock files and well-known
// directory names. Only variables it can determine are set.
type ProjectDetector struct{}

// Detect returns the detected variables for the project at root.
func (ProjectDetector) Detect(ctx context.Context, root string) (template.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := template.Context{}

	if pkg, ok := readPackageJSON(root); ok {
		if pkg.Name != "" {
			out["PROJECT_NAME"] = pkg.Name
		}
		out["LANGUAGE"] = "javascript"
		if exists(filepath.Join(root, "tsconfig.json")) || pkg.has("typescript") {
			out["LANGUAGE"] = "typescript"
		}
		if fw := detectJSFramework(pkg); fw != "" {
			out["FRAMEWORK"] = fw
		}
		out["PACKAGE_MANAGER"] = "npm"
		for _, lf := range lockFiles {
			if exists(filepath.Join(root, lf.file)) {
				out["PACKAGE_MANAGER"] = lf.manager
				break
			}
		}
	} else if module, requires, ok := readGoMod(root); ok {
		if module != "" {
			out["PROJECT_NAME"] = path.Base(module)
		}
		out["LANGUAGE"] = "go"
		if fw := detectGoFramework(requires); fw != "" {
			out["FRAMEWORK"] = fw
		}
	}

	for _, c := range dirCandidates {
		for _, dir := range c.dirs {
			if isDir(filepath.Join(root, filepath.FromSlash(dir))) {
				out[c.variable] = dir
				break
			}
		}
	}
	return out, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
