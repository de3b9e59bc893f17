package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/andywolf/pluginkit/internal/value"
)

const (
	// ManifestFile is the manifest file name inside a plugin directory.
	ManifestFile = "plugin.json"
	// SettingsFragmentFile holds the plugin's contribution to settings.json.
	SettingsFragmentFile = "settings.fragment.json"
)

// ErrNotFound is returned when a plugin is not present in the catalog.
var ErrNotFound = errors.New("plugin not found")

// Plugin is a validated plugin directory.
type Plugin struct {
	Manifest *Manifest
	Dir      string
	// Fragment is nil when the plugin contributes no skill rules.
	Fragment *Fragment
	// Settings is the settings.json contribution; HasSettings reports whether
	// the plugin ships one.
	Settings    value.Value
	HasSettings bool
	// Warnings are non-fatal manifest findings.
	Warnings []string
}

// Name returns the manifest name.
func (p *Plugin) Name() string { return p.Manifest.Name }

// LoadPlugin reads and validates the manifest in dir together with the
// fragment and settings contribution it declares.
func LoadPlugin(dir string) (*Plugin, error) {
	manifestPath := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, warnings, err := ParseManifest(data)
	if err != nil {
		var mve *ManifestValidationError
		if errors.As(err, &mve) {
			mve.Source = manifestPath
		}
		return nil, err
	}

	// The catalog and the state file key plugins by directory and manifest
	// name respectively; both must agree.
	if base := filepath.Base(dir); base != m.Name {
		return nil, &ManifestValidationError{
			Source:   manifestPath,
			Problems: []string{fmt.Sprintf("name: %q must match the plugin directory name %q", m.Name, base)},
		}
	}

	p := &Plugin{Manifest: m, Dir: dir, Warnings: warnings}

	if rel := m.Provides.SkillRulesFragment; rel != "" {
		fragPath := filepath.Join(dir, filepath.FromSlash(rel))
		data, err := os.ReadFile(fragPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read skill rules fragment for %s: %w", m.Name, err)
		}
		frag, err := ParseFragment(data)
		if err != nil {
			var fve *FragmentValidationError
			if errors.As(err, &fve) {
				fve.Source = fragPath
			}
			return nil, err
		}
		p.Fragment = frag
	}

	settingsPath := filepath.Join(dir, SettingsFragmentFile)
	if data, err := os.ReadFile(settingsPath); err == nil {
		v, err := value.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", settingsPath, err)
		}
		if !v.IsObject() {
			return nil, fmt.Errorf("%s: expected a JSON object", settingsPath)
		}
		p.Settings = v
		p.HasSettings = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", settingsPath, err)
	}

	return p, nil
}

// Catalog is a directory of plugin directories, loaded lazily by name.
type Catalog struct {
	root   string
	dirs   map[string]string
	loaded map[string]*Plugin
}

// OpenCatalog lists the plugin directories under root. A plugin directory is
// any direct child containing plugin.json.
func OpenCatalog(root string) (*Catalog, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	c := &Catalog{root: root, dirs: make(map[string]string), loaded: make(map[string]*Plugin)}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
			continue
		}
		c.dirs[entry.Name()] = dir
	}
	return c, nil
}

// Root returns the catalog directory.
func (c *Catalog) Root() string { return c.root }

// Names returns the available plugin names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.dirs))
	for name := range c.dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is available.
func (c *Catalog) Has(name string) bool {
	_, ok := c.dirs[name]
	return ok
}

// Get loads and validates the plugin named name. Results are cached.
func (c *Catalog) Get(name string) (*Plugin, error) {
	if p, ok := c.loaded[name]; ok {
		return p, nil
	}
	dir, ok := c.dirs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	p, err := LoadPlugin(dir)
	if err != nil {
		return nil, err
	}
	c.loaded[name] = p
	return p, nil
}

// Dependencies returns the declared plugin dependencies of name.
func (c *Catalog) Dependencies(name string) ([]string, error) {
	p, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	return p.Manifest.Dependencies.Plugins, nil
}
