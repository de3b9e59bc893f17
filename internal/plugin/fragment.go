package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/andywolf/pluginkit/internal/value"
	"github.com/bmatcuk/doublestar/v4"
)

// Rule types.
const (
	TypeDomain    = "domain"
	TypeGuardrail = "guardrail"
)

// Enforcement levels.
const (
	EnforcementSuggest = "suggest"
	EnforcementWarn    = "warn"
	EnforcementBlock   = "block"
)

// Priorities, highest first.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// SkillRule is the activation policy and severity of one skill.
// Empty scalar fields mean "not set by this fragment".
type SkillRule struct {
	Type           string          `json:"type,omitempty"`
	Enforcement    string          `json:"enforcement,omitempty"`
	Priority       string          `json:"priority,omitempty"`
	Description    string          `json:"description,omitempty"`
	BlockMessage   string          `json:"blockMessage,omitempty"`
	PromptTriggers *PromptTriggers `json:"promptTriggers,omitempty"`
	FileTriggers   *FileTriggers   `json:"fileTriggers,omitempty"`
}

// PromptTriggers activate a skill from the user's prompt.
type PromptTriggers struct {
	Keywords       []string `json:"keywords,omitempty"`
	IntentPatterns []string `json:"intentPatterns,omitempty"`
}

// FileTriggers activate a skill from the files being edited.
type FileTriggers struct {
	PathPatterns    []string `json:"pathPatterns,omitempty"`
	PathExclusions  []string `json:"pathExclusions,omitempty"`
	ContentPatterns []string `json:"contentPatterns,omitempty"`
}

// HasTriggers reports whether any trigger list is non-empty.
func (r SkillRule) HasTriggers() bool {
	if p := r.PromptTriggers; p != nil && (len(p.Keywords) > 0 || len(p.IntentPatterns) > 0) {
		return true
	}
	if f := r.FileTriggers; f != nil && (len(f.PathPatterns) > 0 || len(f.PathExclusions) > 0 || len(f.ContentPatterns) > 0) {
		return true
	}
	return false
}

// Skill pairs a skill name with its rule.
type Skill struct {
	Name string
	Rule SkillRule
}

// Fragment is an ordered mapping from skill name to rule. It is both one
// plugin's contribution and the shape of the merged rule set.
type Fragment struct {
	Version string
	Skills  []Skill
}

// Lookup returns the rule for name.
func (f *Fragment) Lookup(name string) (SkillRule, bool) {
	for _, s := range f.Skills {
		if s.Name == name {
			return s.Rule, true
		}
	}
	return SkillRule{}, false
}

// Names returns skill names in order.
func (f *Fragment) Names() []string {
	names := make([]string, len(f.Skills))
	for i, s := range f.Skills {
		names[i] = s.Name
	}
	return names
}

// MarshalJSON writes {"version": ..., "skills": {...}} keeping skill order.
func (f Fragment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if f.Version != "" {
		v, _ := value.Encode(f.Version)
		buf.WriteString(`"version":`)
		buf.Write(v)
		buf.WriteByte(',')
	}
	buf.WriteString(`"skills":{`)
	for i, s := range f.Skills {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := value.Encode(s.Name)
		if err != nil {
			return nil, err
		}
		rule, err := value.Encode(s.Rule)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(rule)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes without validation, keeping skill order.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	tree, err := value.Parse(data)
	if err != nil {
		return err
	}
	decoded, err := FragmentFromValue(tree)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// ToValue converts the fragment into a generic tree.
func (f *Fragment) ToValue() (value.Value, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return value.Value{}, err
	}
	return value.Parse(data)
}

// FragmentFromValue converts a generic tree into a Fragment. It assumes the
// tree has the fragment shape; use ValidateFragment first for untrusted
// input.
func FragmentFromValue(tree value.Value) (*Fragment, error) {
	f := &Fragment{}
	if v, ok := tree.Get("version"); ok {
		f.Version, _ = v.Str()
	}
	skills, ok := tree.Get("skills")
	if !ok || !skills.IsObject() {
		return nil, fmt.Errorf("fragment has no skills object")
	}
	for _, name := range skills.Keys() {
		node, _ := skills.Get(name)
		raw, err := node.MarshalJSON()
		if err != nil {
			return nil, err
		}
		var rule SkillRule
		if err := json.Unmarshal(raw, &rule); err != nil {
			return nil, fmt.Errorf("skill %q: %w", name, err)
		}
		f.Skills = append(f.Skills, Skill{Name: name, Rule: rule})
	}
	return f, nil
}

var ruleSchema = object(map[string]*schema{
	"type":         enumStr(TypeDomain, TypeGuardrail),
	"enforcement":  enumStr(EnforcementSuggest, EnforcementWarn, EnforcementBlock),
	"priority":     enumStr(PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow),
	"description":  str(),
	"blockMessage": str(),
	"promptTriggers": object(map[string]*schema{
		"keywords":       arrayOf(nonEmptyStr()),
		"intentPatterns": arrayOf(nonEmptyStr()),
	}),
	"fileTriggers": object(map[string]*schema{
		"pathPatterns":    arrayOf(nonEmptyStr()),
		"pathExclusions":  arrayOf(nonEmptyStr()),
		"contentPatterns": arrayOf(nonEmptyStr()),
	}),
})

var fragmentSchema = object(map[string]*schema{
	"$schema":     str(),
	"version":     str(),
	"description": str(),
	"skills":      &schema{typ: "object", values: ruleSchema},
}, "skills")

// ParseFragment decodes and validates fragment bytes.
func ParseFragment(data []byte) (*Fragment, error) {
	tree, err := value.Parse(data)
	if err != nil {
		return nil, &FragmentValidationError{Problems: []string{"(root): invalid JSON: " + err.Error()}}
	}
	if err := ValidateFragment(tree); err != nil {
		return nil, err
	}
	return FragmentFromValue(tree)
}

// ValidateFragment checks structure, then that every intent and content
// pattern compiles and every path glob is well formed.
func ValidateFragment(tree value.Value) error {
	var errs problems
	fragmentSchema.validate("", tree, &errs)

	skills, _ := tree.Get("skills")
	for _, name := range skills.Keys() {
		node, _ := skills.Get(name)
		base := join("skills", name)
		if pt, ok := node.Get("promptTriggers"); ok {
			checkPatterns(&errs, join(base, "promptTriggers"), "intentPatterns", name, pt)
		}
		if ft, ok := node.Get("fileTriggers"); ok {
			checkPatterns(&errs, join(base, "fileTriggers"), "contentPatterns", name, ft)
			checkGlobs(&errs, join(base, "fileTriggers"), "pathPatterns", ft)
			checkGlobs(&errs, join(base, "fileTriggers"), "pathExclusions", ft)
		}
	}
	if len(errs) > 0 {
		return &FragmentValidationError{Problems: errs}
	}
	return nil
}

// Validate re-checks an already decoded fragment, e.g. after substitution.
func (f *Fragment) Validate() error {
	tree, err := f.ToValue()
	if err != nil {
		return err
	}
	return ValidateFragment(tree)
}

func checkPatterns(errs *problems, path, field, skill string, triggers value.Value) {
	list, ok := triggers.Get(field)
	if !ok {
		return
	}
	for i, item := range list.Items() {
		p, _ := item.Str()
		if _, err := regexp.Compile(p); err != nil {
			errs.add(index(join(path, field), i), "skill %q has invalid pattern %q: %v", skill, p, err)
		}
	}
}

func checkGlobs(errs *problems, path, field string, triggers value.Value) {
	list, ok := triggers.Get(field)
	if !ok {
		return
	}
	for i, item := range list.Items() {
		p, _ := item.Str()
		if !validGlob(p) {
			errs.add(index(join(path, field), i), "invalid glob %q", p)
		}
	}
}

// placeholder matches {{VARIABLE}} tokens, which are substituted at install
// time and must not count against glob syntax.
var placeholder = regexp.MustCompile(`\{\{[A-Z_][A-Z0-9_]*\}\}`)

func validGlob(p string) bool {
	return doublestar.ValidatePattern(placeholder.ReplaceAllString(p, "_"))
}
