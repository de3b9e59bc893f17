package wizard

import (
	"testing"

	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/template"
	"github.com/google/go-cmp/cmp"
)

func TestChoicesFrom(t *testing.T) {
	got := ChoicesFrom([]*plugin.Manifest{
		{Name: "web", Version: "2.0.0", DisplayName: "Web", Description: "Frontend rules"},
		{Name: "base", Version: "1.0.0", Description: "Shared"},
	})
	want := []PluginChoice{
		{Name: "base", Title: "base v1.0.0", Description: "Shared"},
		{Name: "web", Title: "Web v2.0.0", Description: "Frontend rules"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ChoicesFrom() mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectQuestions(t *testing.T) {
	manifests := []*plugin.Manifest{
		{Name: "base", Prompts: []plugin.Prompt{
			{Variable: "backendDir", Message: "Backend?", Default: "src"},
			{Variable: "frontend_dir", Message: "Frontend?"},
		}},
		{Name: "web", Prompts: []plugin.Prompt{
			{Variable: "BACKEND_DIR", Message: "Backend again?"},
			{Variable: "useStrict", Message: "Strict?", Type: "confirm", Default: "true"},
			{Variable: "style", Message: "Style?", Type: "select", Choices: []string{"css", "tailwind"}},
		}},
	}

	questions := collectQuestions(manifests, template.Context{"FRONTEND_DIR": "app"})

	var got []string
	for _, q := range questions {
		got = append(got, q.variable+"="+q.prompt.Message)
	}
	want := []string{"BACKEND_DIR=Backend?", "USE_STRICT=Strict?", "STYLE=Style?"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collectQuestions() mismatch (-want +got):\n%s", diff)
	}

	if !questions[1].yes {
		t.Error("confirm question should start from its default")
	}
	for _, q := range questions {
		if q.field() == nil {
			t.Errorf("field() for %s = nil", q.variable)
		}
	}
}

func TestAnswers(t *testing.T) {
	questions := []*question{
		{variable: "BACKEND_DIR", text: "  server "},
		{variable: "EMPTY", text: ""},
		{variable: "USE_STRICT", prompt: plugin.Prompt{Type: "confirm"}, yes: false},
	}
	want := map[string]string{"BACKEND_DIR": "server", "USE_STRICT": "false"}
	if diff := cmp.Diff(want, answers(questions)); diff != "" {
		t.Errorf("answers() mismatch (-want +got):\n%s", diff)
	}
}

func TestAskPrompts_NothingToAsk(t *testing.T) {
	got, err := AskPrompts([]*plugin.Manifest{{Name: "base"}}, nil)
	if err != nil {
		t.Fatalf("AskPrompts() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("AskPrompts() = %v, want empty", got)
	}
}

func TestPluginOptions(t *testing.T) {
	opts := pluginOptions([]PluginChoice{
		{Name: "base", Title: "Base v1.0.0", Description: "Shared"},
		{Name: "web", Title: "Web v2.0.0"},
	}, []string{"web"})

	if len(opts) != 2 {
		t.Fatalf("pluginOptions() returned %d options, want 2", len(opts))
	}
	if opts[0].Key != "Base v1.0.0 - Shared" || opts[0].Value != "base" {
		t.Errorf("opts[0] = %q/%q", opts[0].Key, opts[0].Value)
	}
	if opts[1].Key != "Web v2.0.0" || opts[1].Value != "web" {
		t.Errorf("opts[1] = %q/%q", opts[1].Key, opts[1].Value)
	}
}
