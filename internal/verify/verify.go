// Package verify audits an installed .claude tree without modifying it.
package verify

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/andywolf/pluginkit/internal/layout"
	"github.com/andywolf/pluginkit/internal/report"
)

// Report is the outcome of Verify. Valid is false when Errors is non-empty;
// warnings never affect validity.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Emit sends every finding to sink.
func (r Report) Emit(sink report.Sink) {
	for _, e := range r.Errors {
		report.Emit(sink, report.Event{Level: report.LevelError, Kind: report.KindVerify, Message: e})
	}
	for _, w := range r.Warnings {
		report.Warn(sink, report.KindVerify, "", "", w)
	}
}

// Verify checks the installation under root.
func Verify(root string) Report {
	r := Report{Errors: []string{}, Warnings: []string{}}

	claude := layout.Path(root, layout.ClaudeDir)
	if info, err := os.Stat(claude); err != nil || !info.IsDir() {
		r.Errors = append(r.Errors, fmt.Sprintf("%s directory not found", layout.ClaudeDir))
		return r
	}

	for _, rel := range layout.EssentialFiles {
		if _, err := os.Stat(layout.Path(root, rel)); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("essential file missing: %s", rel))
		}
	}

	r.Warnings = append(r.Warnings, checkScripts(root)...)

	if exists(layout.Path(root, layout.HookPackageFile)) && !exists(layout.Path(root, layout.HookDepsDir)) {
		r.Warnings = append(r.Warnings, fmt.Sprintf("hook dependencies not installed: run npm install in %s", layout.HooksDir))
	}

	r.Valid = len(r.Errors) == 0
	return r
}

func checkScripts(root string) []string {
	var warnings []string
	hooks := layout.Path(root, layout.HooksDir)
	_ = filepath.WalkDir(hooks, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Mode().Perm()&0100 != 0 {
			return nil
		}
		if layout.IsScript(path, head(path)) {
			rel, _ := filepath.Rel(root, path)
			warnings = append(warnings, fmt.Sprintf("script not executable: %s", filepath.ToSlash(rel)))
		}
		return nil
	})
	return warnings
}

func head(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, 2)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return buf[:n]
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
