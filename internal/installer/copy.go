package installer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/andywolf/pluginkit/internal/layout"
	"github.com/andywolf/pluginkit/internal/report"
	"github.com/andywolf/pluginkit/internal/template"
)

// Op is what Apply does with one file.
type Op string

const (
	OpCreate    Op = "create"
	OpOverwrite Op = "overwrite"
	OpSkip      Op = "skip"
)

// Action is one planned file write.
type Action struct {
	// Rel is the slash-separated path relative to the copy source.
	Rel  string
	Dest string
	Op   Op
	// Content is the bytes to write, already substituted for text files.
	Content []byte
	Mode    fs.FileMode
	// Substituted is set for allow-listed text files.
	Substituted bool
	Executable  bool
}

// PlanCopy enumerates the files under src and decides, for each, what Apply
// would do at the mirrored path under dst. When src is a regular file the
// plan holds a single action targeting dst itself. Nothing is written.
func PlanCopy(src, dst string, ctx template.Context, opts Options) ([]Action, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, &FileSystemError{Op: "read", Path: src, Err: err}
	}
	if !info.IsDir() {
		a, err := planFile(src, dst, filepath.Base(src), ctx, opts)
		if err != nil {
			return nil, err
		}
		return []Action{a}, nil
	}

	var actions []Action
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &FileSystemError{Op: "read", Path: path, Err: err}
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		a, err := planFile(path, filepath.Join(dst, rel), filepath.ToSlash(rel), ctx, opts)
		if err != nil {
			return err
		}
		actions = append(actions, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actions, nil
}

func planFile(src, dest, rel string, ctx template.Context, opts Options) (Action, error) {
	content, err := os.ReadFile(src)
	if err != nil {
		return Action{}, &FileSystemError{Op: "read", Path: src, Err: err}
	}

	a := Action{Rel: rel, Dest: dest, Op: OpCreate, Mode: 0644}
	if layout.IsText(src) {
		content = []byte(template.Replace(string(content), ctx))
		a.Substituted = true
	}
	a.Content = content
	if layout.IsScript(src, content) {
		a.Executable = true
		a.Mode = 0755
	}

	if _, err := os.Lstat(dest); err == nil {
		a.Op = OpSkip
		if opts.Force {
			a.Op = OpOverwrite
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Action{}, &FileSystemError{Op: "stat", Path: dest, Err: err}
	}
	return a, nil
}

// Apply performs the planned actions and returns one *FileSystemError per
// failed file. Failures do not stop the remaining actions.
func Apply(actions []Action, opts Options) []error {
	var errs []error
	for _, a := range actions {
		switch a.Op {
		case OpSkip:
			opts.emit(report.LevelInfo, report.KindFileSkip, a.Dest, "exists, kept")
			continue
		case OpOverwrite:
			opts.emit(report.LevelInfo, report.KindFileOverwrite, a.Dest, "overwrite")
		default:
			opts.emit(report.LevelInfo, report.KindFileCreate, a.Dest, "create")
		}
		if opts.DryRun {
			continue
		}
		if err := writeFile(a.Dest, a.Content, a.Mode); err != nil {
			opts.emit(report.LevelWarn, report.KindFileError, a.Dest, err.Error())
			errs = append(errs, err)
		}
	}
	return errs
}

// writeFile writes content and forces mode, which os.WriteFile leaves alone
// on existing files.
func writeFile(path string, content []byte, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &FileSystemError{Op: "create directory", Path: filepath.Dir(path), Err: err}
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return &FileSystemError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(path, mode); err != nil {
		return &FileSystemError{Op: "chmod", Path: path, Err: err}
	}
	return nil
}

// MarkExecutable sets mode 0755 on every script under dir. A missing dir is
// not an error.
func MarkExecutable(dir string, opts Options) []error {
	var errs []error
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return fs.SkipDir
			}
			errs = append(errs, &FileSystemError{Op: "read", Path: path, Err: err})
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
		if err != nil {
			errs = append(errs, &FileSystemError{Op: "stat", Path: path, Err: err})
			return nil
		}
		if info.Mode().Perm()&0111 == 0111 || !isScriptFile(path) {
			return nil
		}
		opts.emit(report.LevelInfo, report.KindArtifact, path, "mark executable")
		if opts.DryRun {
			return nil
		}
		if err := os.Chmod(path, 0755); err != nil {
			errs = append(errs, &FileSystemError{Op: "chmod", Path: path, Err: err})
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return errs
}

func isScriptFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 2)
	n, _ := f.Read(head)
	return layout.IsScript(path, head[:n])
}
