// Package rules folds per-plugin skill rule fragments into the single rule
// set written to .claude/skills/skill-rules.json.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/report"
	"github.com/andywolf/pluginkit/internal/template"
)

// DefaultVersion is written when no fragment declares a version.
const DefaultVersion = "1.0"

// NamedFragment is one plugin's fragment, tagged with the plugin name for
// reporting.
type NamedFragment struct {
	Plugin   string
	Fragment *plugin.Fragment
}

// Result is the merged rule set plus the non-fatal findings about it.
type Result struct {
	Rules    *plugin.Fragment
	Warnings []string
}

// Merge substitutes ctx into each fragment and folds them in order. Later
// fragments override type, enforcement, priority, description and
// blockMessage of skills already seen; trigger lists are unioned. The result
// is sorted by priority, stable on first insertion.
func Merge(fragments []NamedFragment, ctx template.Context, sink report.Sink) (*Result, error) {
	merged := &plugin.Fragment{}
	pos := make(map[string]int)

	for _, nf := range fragments {
		if nf.Fragment == nil {
			continue
		}
		frag, err := substitute(nf.Fragment, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to substitute fragment of %s: %w", nf.Plugin, err)
		}
		if merged.Version == "" {
			merged.Version = frag.Version
		}

		for _, s := range frag.Skills {
			i, seen := pos[s.Name]
			if !seen {
				pos[s.Name] = len(merged.Skills)
				merged.Skills = append(merged.Skills, plugin.Skill{Name: s.Name, Rule: cloneRule(s.Rule)})
				continue
			}
			prev := merged.Skills[i].Rule
			if prev.Enforcement != "" && s.Rule.Enforcement != "" && prev.Enforcement != s.Rule.Enforcement {
				report.Info(sink, report.KindMerge, nf.Plugin, "",
					fmt.Sprintf("skill %q enforcement %s -> %s", s.Name, prev.Enforcement, s.Rule.Enforcement))
			}
			merged.Skills[i].Rule = mergeRule(prev, s.Rule)
		}
	}
	if merged.Version == "" {
		merged.Version = DefaultVersion
	}

	for i := range merged.Skills {
		merged.Skills[i].Rule = dedupRule(merged.Skills[i].Rule)
	}
	sortByPriority(merged.Skills)

	if err := merged.Validate(); err != nil {
		var fve *plugin.FragmentValidationError
		if errors.As(err, &fve) {
			fve.Source = "merged skill rules"
		}
		return nil, err
	}

	res := &Result{Rules: merged, Warnings: Check(merged)}
	for _, w := range res.Warnings {
		report.Warn(sink, report.KindMerge, "", "", w)
	}
	return res, nil
}

// Check returns the warnings for a merged rule set: more than one blocking
// guardrail, and skills without any trigger.
func Check(f *plugin.Fragment) []string {
	var warnings []string

	var blocking []string
	for _, s := range f.Skills {
		if s.Rule.Type == plugin.TypeGuardrail && s.Rule.Enforcement == plugin.EnforcementBlock {
			blocking = append(blocking, s.Name)
		}
	}
	if len(blocking) > 1 {
		warnings = append(warnings, fmt.Sprintf("%d blocking guardrails may conflict: %s", len(blocking), strings.Join(blocking, ", ")))
	}

	for _, s := range f.Skills {
		if !s.Rule.HasTriggers() {
			warnings = append(warnings, fmt.Sprintf("skill %q has no triggers and will never activate", s.Name))
		}
	}
	return warnings
}

func substitute(f *plugin.Fragment, ctx template.Context) (*plugin.Fragment, error) {
	if len(ctx) == 0 {
		return f, nil
	}
	tree, err := f.ToValue()
	if err != nil {
		return nil, err
	}
	return plugin.FragmentFromValue(template.ReplaceDeep(tree, ctx))
}

func mergeRule(dst, src plugin.SkillRule) plugin.SkillRule {
	out := cloneRule(dst)
	if src.Type != "" {
		out.Type = src.Type
	}
	if src.Enforcement != "" {
		out.Enforcement = src.Enforcement
	}
	if src.Priority != "" {
		out.Priority = src.Priority
	}
	if src.Description != "" {
		out.Description = src.Description
	}
	if src.BlockMessage != "" {
		out.BlockMessage = src.BlockMessage
	}

	if p := src.PromptTriggers; p != nil {
		if out.PromptTriggers == nil {
			out.PromptTriggers = &plugin.PromptTriggers{}
		}
		out.PromptTriggers.Keywords = union(out.PromptTriggers.Keywords, p.Keywords)
		out.PromptTriggers.IntentPatterns = union(out.PromptTriggers.IntentPatterns, p.IntentPatterns)
	}
	if f := src.FileTriggers; f != nil {
		if out.FileTriggers == nil {
			out.FileTriggers = &plugin.FileTriggers{}
		}
		out.FileTriggers.PathPatterns = union(out.FileTriggers.PathPatterns, f.PathPatterns)
		out.FileTriggers.PathExclusions = union(out.FileTriggers.PathExclusions, f.PathExclusions)
		out.FileTriggers.ContentPatterns = union(out.FileTriggers.ContentPatterns, f.ContentPatterns)
	}
	return out
}

func dedupRule(r plugin.SkillRule) plugin.SkillRule {
	if p := r.PromptTriggers; p != nil {
		p.Keywords = union(nil, p.Keywords)
		p.IntentPatterns = union(nil, p.IntentPatterns)
	}
	if f := r.FileTriggers; f != nil {
		f.PathPatterns = union(nil, f.PathPatterns)
		f.PathExclusions = union(nil, f.PathExclusions)
		f.ContentPatterns = union(nil, f.ContentPatterns)
	}
	return r
}

func cloneRule(r plugin.SkillRule) plugin.SkillRule {
	if p := r.PromptTriggers; p != nil {
		r.PromptTriggers = &plugin.PromptTriggers{
			Keywords:       cloneStrings(p.Keywords),
			IntentPatterns: cloneStrings(p.IntentPatterns),
		}
	}
	if f := r.FileTriggers; f != nil {
		r.FileTriggers = &plugin.FileTriggers{
			PathPatterns:    cloneStrings(f.PathPatterns),
			PathExclusions:  cloneStrings(f.PathExclusions),
			ContentPatterns: cloneStrings(f.ContentPatterns),
		}
	}
	return r
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// union appends the entries of b missing from a, keeping first occurrences.
// The result is nil when both inputs are empty.
func union(a, b []string) []string {
	var out []string
	seen := make(map[string]bool, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

var priorityRank = map[string]int{
	plugin.PriorityCritical: 0,
	plugin.PriorityHigh:     1,
	plugin.PriorityMedium:   2,
	plugin.PriorityLow:      3,
}

func rank(priority string) int {
	if r, ok := priorityRank[priority]; ok {
		return r
	}
	return len(priorityRank)
}

func sortByPriority(skills []plugin.Skill) {
	sort.SliceStable(skills, func(i, j int) bool {
		return rank(skills[i].Rule.Priority) < rank(skills[j].Rule.Priority)
	})
}
