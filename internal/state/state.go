// Package state records which plugins are installed in a project.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/andywolf/pluginkit/internal/layout"
	"github.com/google/uuid"
)

// ErrNotInstalled is returned by Load when the project has no state file.
var ErrNotInstalled = errors.New("no pluginkit installation found")

// PluginRecord is one installed plugin.
type PluginRecord struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	InstalledAt time.Time `json:"installedAt"`
}

// Installation is the content of .pluginkit.json.
type Installation struct {
	// Version is the pluginkit version that wrote the record.
	Version     string            `json:"version"`
	RunID       string            `json:"runId"`
	InstalledAt time.Time         `json:"installedAt"`
	Plugins     []PluginRecord    `json:"plugins"`
	CustomPaths map[string]string `json:"customPaths,omitempty"`
}

// New starts a record for a run at now.
func New(toolVersion string, now time.Time) *Installation {
	return &Installation{
		Version:     toolVersion,
		RunID:       uuid.NewString(),
		InstalledAt: now.UTC(),
		Plugins:     []PluginRecord{},
	}
}

// Continue starts a record for a new run that keeps prev's plugins and
// custom paths. prev may be nil.
func Continue(prev *Installation, toolVersion string, now time.Time) *Installation {
	next := New(toolVersion, now)
	if prev == nil {
		return next
	}
	next.Plugins = append(next.Plugins, prev.Plugins...)
	for k, v := range prev.CustomPaths {
		next.SetCustomPath(k, v)
	}
	return next
}

// Add records name@version, replacing an earlier record for name.
func (i *Installation) Add(name, version string, at time.Time) {
	rec := PluginRecord{Name: name, Version: version, InstalledAt: at.UTC()}
	for n, p := range i.Plugins {
		if p.Name == name {
			i.Plugins[n] = rec
			return
		}
	}
	i.Plugins = append(i.Plugins, rec)
}

// SetCustomPath records a user-supplied path override.
func (i *Installation) SetCustomPath(variable, path string) {
	if i.CustomPaths == nil {
		i.CustomPaths = make(map[string]string)
	}
	i.CustomPaths[variable] = path
}

// Lookup returns the record for name.
func (i *Installation) Lookup(name string) (PluginRecord, bool) {
	for _, p := range i.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return PluginRecord{}, false
}

// Names returns the installed plugin names, sorted.
func (i *Installation) Names() []string {
	names := make([]string, len(i.Plugins))
	for n, p := range i.Plugins {
		names[n] = p.Name
	}
	sort.Strings(names)
	return names
}

// Load reads the state file under root.
func Load(root string) (*Installation, error) {
	path := layout.Path(root, layout.StateFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrNotInstalled, root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var inst Installation
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &inst, nil
}
