package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func manifestJSON(name string, deps ...string) string {
	quoted := make([]string, len(deps))
	for i, d := range deps {
		quoted[i] = `"` + d + `"`
	}
	return `{"name":"` + name + `","version":"1.0.0","displayName":"` + name + `","description":"d",` +
		`"author":"Test","provides":{},"dependencies":{"plugins":[` + strings.Join(quoted, ",") + `]}}`
}

func TestOpenCatalog(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "base", ManifestFile), manifestJSON("base"))
	writeFile(t, filepath.Join(root, "web", ManifestFile), manifestJSON("web", "base"))
	writeFile(t, filepath.Join(root, "notes", "README.md"), "not a plugin")
	writeFile(t, filepath.Join(root, "stray.json"), "{}")

	c, err := OpenCatalog(root)
	if err != nil {
		t.Fatalf("OpenCatalog() error: %v", err)
	}
	if diff := cmp.Diff([]string{"base", "web"}, c.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if c.Has("notes") {
		t.Error("Has(notes) = true, want false")
	}

	deps, err := c.Dependencies("web")
	if err != nil {
		t.Fatalf("Dependencies() error: %v", err)
	}
	if diff := cmp.Diff([]string{"base"}, deps); diff != "" {
		t.Errorf("Dependencies() mismatch (-want +got):\n%s", diff)
	}

	first, _ := c.Get("web")
	second, _ := c.Get("web")
	if first != second {
		t.Error("Get() should cache loaded plugins")
	}

	if _, err := c.Get("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestOpenCatalog_MissingRoot(t *testing.T) {
	if _, err := OpenCatalog(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("OpenCatalog() = nil error, want error")
	}
}

func TestLoadPlugin_FragmentAndSettings(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backend")
	writeFile(t, filepath.Join(dir, ManifestFile), `{
	  "name": "backend", "version": "1.0.0", "displayName": "Backend", "description": "d", "author": "Test",
	  "provides": {"skills": ["api"], "skillRulesFragment": "rules/fragment.json"}
	}`)
	writeFile(t, filepath.Join(dir, "rules", "fragment.json"),
		`{"skills":{"api":{"type":"domain","promptTriggers":{"keywords":["endpoint"]}}}}`)
	writeFile(t, filepath.Join(dir, SettingsFragmentFile), `{"hooks":{"Stop":[]}}`)

	p, err := LoadPlugin(dir)
	if err != nil {
		t.Fatalf("LoadPlugin() error: %v", err)
	}
	if p.Name() != "backend" {
		t.Errorf("Name() = %q", p.Name())
	}
	if p.Fragment == nil || len(p.Fragment.Skills) != 1 || p.Fragment.Skills[0].Name != "api" {
		t.Errorf("Fragment = %+v", p.Fragment)
	}
	if !p.HasSettings {
		t.Fatal("HasSettings = false")
	}
	if _, ok := p.Settings.Get("hooks"); !ok {
		t.Error("Settings missing hooks")
	}
	if len(p.Warnings) != 0 {
		t.Errorf("Warnings = %v", p.Warnings)
	}
}

func TestLoadPlugin_Errors(t *testing.T) {
	t.Run("invalid manifest names file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bad")
		writeFile(t, filepath.Join(dir, ManifestFile), `{"name":"bad"}`)
		_, err := LoadPlugin(dir)
		var mve *ManifestValidationError
		if !errors.As(err, &mve) {
			t.Fatalf("LoadPlugin() error = %v, want *ManifestValidationError", err)
		}
		if mve.Source != filepath.Join(dir, ManifestFile) {
			t.Errorf("Source = %q", mve.Source)
		}
	})

	t.Run("invalid fragment names file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "frag")
		writeFile(t, filepath.Join(dir, ManifestFile), `{"name":"frag","version":"1.0.0","displayName":"F",
		  "description":"d","provides":{"skillRulesFragment":"f.json"}}`)
		writeFile(t, filepath.Join(dir, "f.json"), `{"skills":{"x":{"promptTriggers":{"intentPatterns":["("]}}}}`)
		_, err := LoadPlugin(dir)
		var fve *FragmentValidationError
		if !errors.As(err, &fve) {
			t.Fatalf("LoadPlugin() error = %v, want *FragmentValidationError", err)
		}
		if fve.Source != filepath.Join(dir, "f.json") {
			t.Errorf("Source = %q", fve.Source)
		}
	})

	t.Run("missing fragment file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "gone")
		writeFile(t, filepath.Join(dir, ManifestFile), `{"name":"gone","version":"1.0.0","displayName":"G",
		  "description":"d","provides":{"skillRulesFragment":"missing.json"}}`)
		if _, err := LoadPlugin(dir); err == nil {
			t.Error("LoadPlugin() = nil error, want error")
		}
	})

	t.Run("settings must be an object", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "arr")
		writeFile(t, filepath.Join(dir, ManifestFile), manifestJSON("arr"))
		writeFile(t, filepath.Join(dir, SettingsFragmentFile), `[]`)
		if _, err := LoadPlugin(dir); err == nil {
			t.Error("LoadPlugin() = nil error, want error")
		}
	})
}

func TestLoadPlugin_DirectoryNameMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "renamed")
	writeFile(t, filepath.Join(dir, ManifestFile), manifestJSON("original"))

	_, err := LoadPlugin(dir)
	var mve *ManifestValidationError
	if !errors.As(err, &mve) {
		t.Fatalf("LoadPlugin() error = %v, want *ManifestValidationError", err)
	}
	want := []string{`name: "original" must match the plugin directory name "renamed"`}
	if diff := cmp.Diff(want, mve.Problems); diff != "" {
		t.Errorf("Problems mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_MismatchedNameIsNotInstallable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "web-v2", ManifestFile), manifestJSON("web"))

	c, err := OpenCatalog(root)
	if err != nil {
		t.Fatalf("OpenCatalog() error: %v", err)
	}
	if _, err := c.Get("web-v2"); err == nil {
		t.Error("Get(web-v2) = nil error, want name mismatch")
	}
	if _, err := c.Get("web"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(web) error = %v, want ErrNotFound", err)
	}
}
