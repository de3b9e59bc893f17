// Package installer writes plugin content and composed configuration into a
// project's .claude directory. Every step can be re-run safely: existing
// files are kept unless Force is set, and DryRun reports without writing.
package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/andywolf/pluginkit/internal/layout"
	"github.com/andywolf/pluginkit/internal/report"
)

// ErrDestinationExists is returned by Scaffold when .claude already exists
// and Force is not set.
var ErrDestinationExists = errors.New("destination already exists")

// Options control every installer step.
type Options struct {
	// Force overwrites existing files and allows installing into an
	// existing .claude directory.
	Force bool
	// DryRun performs every check and reports, but writes nothing.
	DryRun bool
	// Plugin tags emitted events.
	Plugin string
	Sink   report.Sink
}

func (o Options) emit(level report.Level, kind report.Kind, path, msg string) {
	report.Emit(o.Sink, report.Event{
		Level:   level,
		Kind:    kind,
		Plugin:  o.Plugin,
		Path:    path,
		Message: msg,
		DryRun:  o.DryRun,
	})
}

// FileSystemError is a failed filesystem operation on one path.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// Scaffold creates the .claude directory tree under root.
func Scaffold(root string, opts Options) error {
	claude := layout.Path(root, layout.ClaudeDir)
	if _, err := os.Stat(claude); err == nil {
		if !opts.Force {
			return fmt.Errorf("%w: %s (use --force to install anyway)", ErrDestinationExists, claude)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &FileSystemError{Op: "stat", Path: claude, Err: err}
	}

	for _, rel := range layout.ScaffoldDirs {
		dir := layout.Path(root, rel)
		opts.emit(report.LevelInfo, report.KindScaffold, rel, "create directory")
		if opts.DryRun {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &FileSystemError{Op: "create directory", Path: dir, Err: err}
		}
	}
	return nil
}
