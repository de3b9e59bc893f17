package plugin

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFragment_KeepsOrder(t *testing.T) {
	data := `{
	  "version": "1.0",
	  "skills": {
	    "zeta": {"type": "domain", "enforcement": "suggest", "priority": "low",
	             "promptTriggers": {"keywords": ["z"]}},
	    "alpha": {"type": "guardrail", "enforcement": "block", "priority": "critical",
	              "fileTriggers": {"pathPatterns": ["src/**/*.ts"], "contentPatterns": ["prisma\\."]}}
	  }
	}`

	f, err := ParseFragment([]byte(data))
	if err != nil {
		t.Fatalf("ParseFragment() error: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha"}, f.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	alpha, ok := f.Lookup("alpha")
	if !ok {
		t.Fatal("Lookup(alpha) not found")
	}
	if alpha.Enforcement != EnforcementBlock || alpha.FileTriggers == nil || alpha.FileTriggers.ContentPatterns[0] != `prisma\.` {
		t.Errorf("alpha = %+v", alpha)
	}
	if f.Version != "1.0" {
		t.Errorf("Version = %q", f.Version)
	}
}

func TestParseFragment_InvalidPatterns(t *testing.T) {
	data := `{
	  "skills": {
	    "broken": {
	      "type": "domain",
	      "promptTriggers": {"intentPatterns": ["(create|add).*route", "(?<=x)y"]},
	      "fileTriggers": {"contentPatterns": ["[unclosed"], "pathPatterns": ["src/{a,b"]}
	    }
	  }
	}`

	_, err := ParseFragment([]byte(data))
	var fve *FragmentValidationError
	if !errors.As(err, &fve) {
		t.Fatalf("ParseFragment() error = %v, want *FragmentValidationError", err)
	}
	if len(fve.Problems) != 3 {
		t.Fatalf("got %d problems, want 3: %v", len(fve.Problems), fve.Problems)
	}
	if !strings.HasPrefix(fve.Problems[0], `skills.broken.promptTriggers.intentPatterns[1]: skill "broken" has invalid pattern "(?<=x)y"`) {
		t.Errorf("Problems[0] = %q", fve.Problems[0])
	}
	if !strings.HasPrefix(fve.Problems[1], `skills.broken.fileTriggers.contentPatterns[0]: skill "broken" has invalid pattern "[unclosed"`) {
		t.Errorf("Problems[1] = %q", fve.Problems[1])
	}
	if fve.Problems[2] != `skills.broken.fileTriggers.pathPatterns[0]: invalid glob "src/{a,b"` {
		t.Errorf("Problems[2] = %q", fve.Problems[2])
	}
}

func TestParseFragment_SchemaViolations(t *testing.T) {
	data := `{
	  "skills": {
	    "a": {"type": "library", "priority": "urgent", "triggers": []},
	    "b": {"promptTriggers": {"keywords": "not-a-list"}}
	  },
	  "extra": true
	}`

	_, err := ParseFragment([]byte(data))
	var fve *FragmentValidationError
	if !errors.As(err, &fve) {
		t.Fatalf("ParseFragment() error = %v, want *FragmentValidationError", err)
	}
	want := []string{
		`skills.a.type: invalid value "library" (allowed: domain, guardrail)`,
		`skills.a.priority: invalid value "urgent" (allowed: critical, high, medium, low)`,
		`skills.a: unexpected property "triggers"`,
		"skills.b.promptTriggers.keywords: expected array, got string",
		`(root): unexpected property "extra"`,
	}
	if diff := cmp.Diff(want, fve.Problems); diff != "" {
		t.Errorf("Problems mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFragment_MissingSkills(t *testing.T) {
	_, err := ParseFragment([]byte(`{}`))
	var fve *FragmentValidationError
	if !errors.As(err, &fve) {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	if diff := cmp.Diff([]string{"skills: is required"}, fve.Problems); diff != "" {
		t.Errorf("Problems mismatch (-want +got):\n%s", diff)
	}
}

func TestFragment_JSONRoundTrip(t *testing.T) {
	f := Fragment{
		Version: "1.0",
		Skills: []Skill{
			{Name: "b", Rule: SkillRule{Type: TypeDomain, PromptTriggers: &PromptTriggers{Keywords: []string{"x"}}}},
			{Name: "a", Rule: SkillRule{Priority: PriorityHigh}},
		},
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"version":"1.0","skills":{"b":{"type":"domain","promptTriggers":{"keywords":["x"]}},"a":{"priority":"high"}}}`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant %s", data, want)
	}

	var back Fragment
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if diff := cmp.Diff(f, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSkillRule_HasTriggers(t *testing.T) {
	tests := []struct {
		name string
		rule SkillRule
		want bool
	}{
		{"none", SkillRule{}, false},
		{"empty structs", SkillRule{PromptTriggers: &PromptTriggers{}, FileTriggers: &FileTriggers{}}, false},
		{"keyword", SkillRule{PromptTriggers: &PromptTriggers{Keywords: []string{"k"}}}, true},
		{"exclusion only", SkillRule{FileTriggers: &FileTriggers{PathExclusions: []string{"*.md"}}}, true},
	}
	for _, tt := range tests {
		if got := tt.rule.HasTriggers(); got != tt.want {
			t.Errorf("%s: HasTriggers() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
