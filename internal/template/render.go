// Package template expands {{VARIABLE}} placeholders in plugin content and
// configuration trees.
package template

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/andywolf/pluginkit/internal/value"
)

// variablePattern matches {{UPPER_SNAKE}} placeholders and captures the name.
var variablePattern = regexp.MustCompile(`\{\{([A-Z_][A-Z0-9_]*)\}\}`)

// Context maps upper-snake variable names to their values.
type Context map[string]string

// Replace substitutes every placeholder whose name is present in ctx.
// Unknown placeholders are left as-is in the output.
func Replace(text string, ctx Context) string {
	if len(ctx) == 0 || !strings.Contains(text, "{{") {
		return text
	}

	return variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-2]
		if v, ok := ctx[name]; ok {
			return v
		}
		return match
	})
}

// ReplaceDeep applies Replace to every string leaf of v and returns a
// structurally identical tree. Object keys are not substituted.
func ReplaceDeep(v value.Value, ctx Context) value.Value {
	switch v.Kind() {
	case value.KindObject:
		out := value.Object()
		for _, k := range v.Keys() {
			field, _ := v.Get(k)
			out.Set(k, ReplaceDeep(field, ctx))
		}
		return out
	case value.KindArray:
		out := value.Array()
		for _, item := range v.Items() {
			out.Append(ReplaceDeep(item, ctx))
		}
		return out
	}
	if s, ok := v.Str(); ok {
		return value.String(Replace(s, ctx))
	}
	return v
}

// ExtractVariables returns the sorted, distinct placeholder names in text.
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// ExtractVariablesDeep collects placeholder names from every string leaf.
func ExtractVariablesDeep(v value.Value) []string {
	set := make(map[string]bool)
	collectVariables(v, set)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectVariables(v value.Value, set map[string]bool) {
	switch v.Kind() {
	case value.KindObject:
		for _, k := range v.Keys() {
			field, _ := v.Get(k)
			collectVariables(field, set)
		}
	case value.KindArray:
		for _, item := range v.Items() {
			collectVariables(item, set)
		}
	default:
		if s, ok := v.Str(); ok {
			for _, n := range ExtractVariables(s) {
				set[n] = true
			}
		}
	}
}

// Validate returns the sorted names referenced by text that ctx lacks.
func Validate(text string, ctx Context) []string {
	return Missing(ExtractVariables(text), ctx)
}

// Missing filters names down to those absent from ctx.
func Missing(names []string, ctx Context) []string {
	var missing []string
	for _, n := range names {
		if _, ok := ctx[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Merge overlays contexts left to right; later layers win on name
// collision. Keys are normalized with NormalizeKey.
func Merge(layers ...Context) Context {
	result := make(Context)
	for _, layer := range layers {
		for k, v := range layer {
			result[NormalizeKey(k)] = v
		}
	}
	return result
}

// FromMap builds a Context from arbitrary-cased keys.
func FromMap(m map[string]string) Context {
	return Merge(Context(m))
}

// NormalizeKey converts frontendDir, frontend-dir and FRONTEND_DIR alike to
// FRONTEND_DIR.
func NormalizeKey(key string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(key))
	for i, r := range runes {
		switch {
		case r == '-' || r == '.' || r == ' ' || r == '_':
			b.WriteRune('_')
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			b.WriteRune('_')
			b.WriteRune(r)
		default:
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
