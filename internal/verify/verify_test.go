package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andywolf/pluginkit/internal/report"
	"github.com/google/go-cmp/cmp"
)

func write(t *testing.T, root, rel, content string, mode os.FileMode) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(t *testing.T, root string)
		wantValid    bool
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name:       "no claude dir",
			setup:      func(t *testing.T, root string) {},
			wantErrors: []string{".claude directory not found"},
		},
		{
			name: "missing essentials",
			setup: func(t *testing.T, root string) {
				write(t, root, ".claude/settings.json", "{}", 0644)
			},
			wantErrors: []string{"essential file missing: .claude/skills/skill-rules.json"},
		},
		{
			name: "healthy install",
			setup: func(t *testing.T, root string) {
				write(t, root, ".claude/settings.json", "{}", 0644)
				write(t, root, ".claude/skills/skill-rules.json", `{"skills":{}}`, 0644)
				write(t, root, ".claude/hooks/run.sh", "echo", 0755)
				write(t, root, ".claude/hooks/README.md", "docs", 0644)
			},
			wantValid: true,
		},
		{
			name: "warnings do not invalidate",
			setup: func(t *testing.T, root string) {
				write(t, root, ".claude/settings.json", "{}", 0644)
				write(t, root, ".claude/skills/skill-rules.json", `{"skills":{}}`, 0644)
				write(t, root, ".claude/hooks/run.sh", "echo", 0644)
				write(t, root, ".claude/hooks/activate", "#!/bin/sh\n", 0644)
				write(t, root, ".claude/hooks/package.json", "{}", 0644)
			},
			wantValid: true,
			wantWarnings: []string{
				"script not executable: .claude/hooks/activate",
				"script not executable: .claude/hooks/run.sh",
				"hook dependencies not installed: run npm install in .claude/hooks",
			},
		},
		{
			name: "node_modules ignored and satisfies marker",
			setup: func(t *testing.T, root string) {
				write(t, root, ".claude/settings.json", "{}", 0644)
				write(t, root, ".claude/skills/skill-rules.json", `{"skills":{}}`, 0644)
				write(t, root, ".claude/hooks/package.json", "{}", 0644)
				write(t, root, ".claude/hooks/node_modules/.bin/tool.sh", "echo", 0644)
			},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			tt.setup(t, root)

			got := Verify(root)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if tt.wantErrors == nil {
				tt.wantErrors = []string{}
			}
			if tt.wantWarnings == nil {
				tt.wantWarnings = []string{}
			}
			if diff := cmp.Diff(tt.wantErrors, got.Errors); diff != "" {
				t.Errorf("Errors mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantWarnings, got.Warnings); diff != "" {
				t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVerify_ReadOnly(t *testing.T) {
	root := t.TempDir()
	write(t, root, ".claude/hooks/run.sh", "echo", 0644)

	Verify(root)

	info, err := os.Stat(filepath.Join(root, ".claude", "hooks", "run.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, Verify must not change files", info.Mode().Perm())
	}
	if _, err := os.Stat(filepath.Join(root, ".claude", "settings.json")); !os.IsNotExist(err) {
		t.Error("Verify must not create files")
	}
}

func TestReport_Emit(t *testing.T) {
	sink := report.NewCollector()
	Report{Errors: []string{"e"}, Warnings: []string{"w1", "w2"}}.Emit(sink)

	if got := len(sink.Filter(report.KindVerify)); got != 3 {
		t.Errorf("events = %d, want 3", got)
	}
	if got := len(sink.Warnings()); got != 3 {
		t.Errorf("warn+error events = %d, want 3", got)
	}
}
