// Package layout names the files and directories pluginkit manages inside a
// project. Paths are relative to the project root and slash-separated; use
// Path to turn them into OS paths.
package layout

import (
	"bytes"
	"path/filepath"
	"strings"
)

const (
	ClaudeDir   = ".claude"
	SkillsDir   = ".claude/skills"
	AgentsDir   = ".claude/agents"
	CommandsDir = ".claude/commands"
	HooksDir    = ".claude/hooks"

	RulesFile    = ".claude/skills/skill-rules.json"
	SettingsFile = ".claude/settings.json"
	StateFile    = ".pluginkit.json"
	Gitignore    = ".gitignore"

	// HookPackageFile declares npm dependencies for hook scripts;
	// HookDepsDir is where installing them leaves its marker.
	HookPackageFile = ".claude/hooks/package.json"
	HookDepsDir     = ".claude/hooks/node_modules"
)

// ScaffoldDirs are created by every install.
var ScaffoldDirs = []string{SkillsDir, AgentsDir, CommandsDir, HooksDir}

// EssentialFiles must exist after a successful install.
var EssentialFiles = []string{SettingsFile, RulesFile}

// IsEssential reports whether rel is one of EssentialFiles.
func IsEssential(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, f := range EssentialFiles {
		if f == rel {
			return true
		}
	}
	return false
}

// Path joins root with the slash-separated rel.
func Path(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

var textExtensions = map[string]bool{
	".md": true, ".txt": true, ".json": true, ".yaml": true, ".yml": true,
	".toml": true, ".sh": true, ".bash": true, ".js": true, ".mjs": true,
	".cjs": true, ".ts": true, ".tsx": true, ".jsx": true, ".py": true,
	".html": true, ".css": true, ".env": true, ".ini": true,
}

// IsText reports whether name has an extension that receives template
// substitution. Everything else is copied byte for byte.
func IsText(name string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsScript reports whether a file must be executable: shell extensions, or
// content starting with a shebang.
func IsScript(name string, content []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".sh", ".bash":
		return true
	}
	return bytes.HasPrefix(content, []byte("#!"))
}
