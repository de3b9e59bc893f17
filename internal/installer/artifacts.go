package installer

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/andywolf/pluginkit/internal/layout"
	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/report"
	"github.com/andywolf/pluginkit/internal/state"
	"github.com/andywolf/pluginkit/internal/value"
)

// GitignoreMarker starts the block AppendGitignore adds.
const GitignoreMarker = "# pluginkit:managed"

var gitignoreEntries = []string{
	".claude/hooks/node_modules/",
	".claude/settings.local.json",
	".claude/tsc-cache/",
}

// FormatJSON renders v with two-space indentation and a trailing newline.
// HTML characters are written as-is.
func FormatJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON formats v and writes it to the slash-separated rel under root.
// Artifacts are always replaced; they are derived from the whole selection.
func WriteJSON(root, rel string, v any, opts Options) error {
	data, err := FormatJSON(v)
	if err != nil {
		return &FileSystemError{Op: "encode", Path: rel, Err: err}
	}
	opts.emit(report.LevelInfo, report.KindArtifact, rel, "write")
	if opts.DryRun {
		return nil
	}
	return writeFile(layout.Path(root, rel), data, 0644)
}

// WriteRules writes the merged skill rules.
func WriteRules(root string, rules *plugin.Fragment, opts Options) error {
	return WriteJSON(root, layout.RulesFile, rules, opts)
}

// WriteSettings writes the merged settings object.
func WriteSettings(root string, settings value.Value, opts Options) error {
	return WriteJSON(root, layout.SettingsFile, settings, opts)
}

// WriteState writes the installation record.
func WriteState(root string, inst *state.Installation, opts Options) error {
	return WriteJSON(root, layout.StateFile, inst, opts)
}

// AppendGitignore adds the managed ignore block to root/.gitignore unless
// the marker is already present. It reports whether the file changed.
func AppendGitignore(root string, opts Options) (bool, error) {
	path := layout.Path(root, layout.Gitignore)
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, &FileSystemError{Op: "read", Path: path, Err: err}
	}
	if bytes.Contains(existing, []byte(GitignoreMarker)) {
		return false, nil
	}

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 {
		if !bytes.HasSuffix(existing, []byte("\n")) {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(GitignoreMarker + "\n")
	for _, entry := range gitignoreEntries {
		b.WriteString(entry + "\n")
	}

	opts.emit(report.LevelInfo, report.KindArtifact, layout.Gitignore, "append ignore block")
	if opts.DryRun {
		return true, nil
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return false, &FileSystemError{Op: "write", Path: path, Err: err}
	}
	return true, nil
}
