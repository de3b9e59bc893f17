package template

import (
	"testing"

	"github.com/andywolf/pluginkit/internal/value"
	"github.com/google/go-cmp/cmp"
)

func TestReplace(t *testing.T) {
	tests := []struct {
		name string
		text string
		ctx  Context
		want string
	}{
		{
			name: "empty text",
			text: "",
			ctx:  Context{"FOO": "bar"},
			want: "",
		},
		{
			name: "no placeholders",
			text: "Hello world",
			ctx:  Context{"FOO": "bar"},
			want: "Hello world",
		},
		{
			name: "empty context",
			text: "Hello {{NAME}}",
			ctx:  Context{},
			want: "Hello {{NAME}}",
		},
		{
			name: "single substitution",
			text: "cd {{PROJECT_ROOT}}/src",
			ctx:  Context{"PROJECT_ROOT": "/work/app"},
			want: "cd /work/app/src",
		},
		{
			name: "unknown variable preserved",
			text: "{{FRONTEND_DIR}} and {{BACKEND_DIR}}",
			ctx:  Context{"FRONTEND_DIR": "web"},
			want: "web and {{BACKEND_DIR}}",
		},
		{
			name: "same variable multiple times",
			text: "{{X}}-{{X}}",
			ctx:  Context{"X": "1"},
			want: "1-1",
		},
		{
			name: "lowercase placeholder is not a variable",
			text: "{{name}}",
			ctx:  Context{"NAME": "n"},
			want: "{{name}}",
		},
		{
			name: "spaces inside braces not matched",
			text: "{{ NAME }}",
			ctx:  Context{"NAME": "n"},
			want: "{{ NAME }}",
		},
		{
			name: "empty value",
			text: "a{{EMPTY}}b",
			ctx:  Context{"EMPTY": ""},
			want: "ab",
		},
		{
			name: "value containing placeholder is not re-expanded",
			text: "{{A}}",
			ctx:  Context{"A": "{{B}}", "B": "b"},
			want: "{{B}}",
		},
		{
			name: "regex braces untouched",
			text: `\{\{.*\}\} and a{2}`,
			ctx:  Context{"A": "x"},
			want: `\{\{.*\}\} and a{2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Replace(tt.text, tt.ctx); got != tt.want {
				t.Errorf("Replace() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplace_RemovesKnownNames(t *testing.T) {
	ctx := Context{"A": "1", "B": "2"}
	texts := []string{
		"{{A}}{{B}}{{C}}",
		"prefix {{A}} {{UNKNOWN}} suffix",
		"no tokens",
	}
	for _, text := range texts {
		for _, name := range ExtractVariables(Replace(text, ctx)) {
			if _, ok := ctx[name]; ok {
				t.Errorf("Replace(%q) left %s in output", text, name)
			}
		}
	}
}

func TestReplaceDeep(t *testing.T) {
	tree, err := value.Parse([]byte(`{
		"command": "{{HOOKS_DIR}}/run.sh",
		"{{KEY}}": ["{{A}}", 1, true, null, {"nested": "x{{A}}y"}]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	got := ReplaceDeep(tree, Context{"HOOKS_DIR": ".claude/hooks", "A": "a", "KEY": "k"})

	want, err := value.Parse([]byte(`{
		"command": ".claude/hooks/run.sh",
		"{{KEY}}": ["a", 1, true, null, {"nested": "xay"}]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(got, want) {
		data, _ := got.MarshalJSON()
		t.Errorf("ReplaceDeep() = %s", data)
	}
	if diff := cmp.Diff(tree.Keys(), got.Keys()); diff != "" {
		t.Errorf("ReplaceDeep() changed key order (-want +got):\n%s", diff)
	}
}

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("{{B}} {{A}} {{B}} {{lower}} {{C_1}}")
	want := []string{"A", "B", "C_1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractVariables() mismatch (-want +got):\n%s", diff)
	}
	if got := ExtractVariables("plain"); got != nil {
		t.Errorf("ExtractVariables(plain) = %v, want nil", got)
	}
}

func TestExtractVariablesDeep(t *testing.T) {
	tree, err := value.Parse([]byte(`{"a":"{{X}}","b":["{{Y}}",{"c":"{{X}}"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"X", "Y"}, ExtractVariablesDeep(tree)); diff != "" {
		t.Errorf("ExtractVariablesDeep() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	got := Validate("{{A}} {{B}} {{C}}", Context{"B": "b"})
	if diff := cmp.Diff([]string{"A", "C"}, got); diff != "" {
		t.Errorf("Validate() mismatch (-want +got):\n%s", diff)
	}
	if got := Validate("{{A}}", Context{"A": ""}); got != nil {
		t.Errorf("Validate() = %v, want nil", got)
	}
}

func TestMerge(t *testing.T) {
	defaults := Context{"PROJECT_ROOT": "/p", "FRONTEND_DIR": "frontend"}
	detected := Context{"frontendDir": "web"}
	overrides := Context{"frontend-dir": "app/web", "backendDir": "api"}

	got := Merge(defaults, detected, overrides)
	want := Context{
		"PROJECT_ROOT": "/p",
		"FRONTEND_DIR": "app/web",
		"BACKEND_DIR":  "api",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"frontendDir":  "FRONTEND_DIR",
		"frontend-dir": "FRONTEND_DIR",
		"FRONTEND_DIR": "FRONTEND_DIR",
		"frontend.dir": "FRONTEND_DIR",
		"apiV2Path":    "API_V2_PATH",
		"project_root": "PROJECT_ROOT",
		" hooksDir ":   "HOOKS_DIR",
		"X":            "X",
	}
	for in, want := range tests {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
