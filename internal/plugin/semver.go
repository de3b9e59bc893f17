package plugin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// versionPattern is strict MAJOR.MINOR.PATCH with optional pre-release and
// build metadata.
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

// ValidVersion reports whether s is a full semantic version (no "v" prefix).
func ValidVersion(s string) bool {
	return versionPattern.MatchString(s) && semver.IsValid("v"+s)
}

// Range is a parsed npm-style version range such as ">=18", "^1.2.0",
// "~2.1 || 3.x" or "1.0.0 - 1.4.2".
type Range struct {
	raw  string
	sets [][]comparator // OR of ANDs
}

type comparator struct {
	op      string // one of "", ">", ">=", "<", "<=", "="; "" matches anything
	version string // canonical "vX.Y.Z[-pre]"
}

// ParseRange parses s. An empty string, "*" and "x" match every version.
func ParseRange(s string) (Range, error) {
	r := Range{raw: s}
	for _, part := range strings.Split(s, "||") {
		set, err := parseComparatorSet(strings.TrimSpace(part))
		if err != nil {
			return Range{}, fmt.Errorf("invalid version range %q: %w", s, err)
		}
		r.sets = append(r.sets, set)
	}
	return r, nil
}

// String returns the range as written.
func (r Range) String() string { return r.raw }

// Check reports whether version satisfies the range. Invalid versions never
// satisfy a range.
func (r Range) Check(version string) bool {
	v := "v" + strings.TrimPrefix(strings.TrimSpace(version), "v")
	if !semver.IsValid(v) {
		return false
	}
	for _, set := range r.sets {
		if setMatches(set, v) {
			return true
		}
	}
	return false
}

func setMatches(set []comparator, v string) bool {
	for _, c := range set {
		cmp := semver.Compare(v, c.version)
		var ok bool
		switch c.op {
		case "":
			ok = true
		case "=":
			ok = cmp == 0
		case ">":
			ok = cmp > 0
		case ">=":
			ok = cmp >= 0
		case "<":
			ok = cmp < 0
		case "<=":
			ok = cmp <= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

func parseComparatorSet(s string) ([]comparator, error) {
	if s == "" {
		return []comparator{{}}, nil
	}

	if lo, hi, ok := strings.Cut(s, " - "); ok {
		return parseHyphen(strings.TrimSpace(lo), strings.TrimSpace(hi))
	}

	var set []comparator
	fields := strings.Fields(s)
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		// Allow ">= 1.2.3" with whitespace between operator and version.
		if isOperator(tok) {
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("operator %q has no version", tok)
			}
			i++
			tok += fields[i]
		}
		cs, err := parseComparator(tok)
		if err != nil {
			return nil, err
		}
		set = append(set, cs...)
	}
	return set, nil
}

func isOperator(s string) bool {
	switch s {
	case ">", ">=", "<", "<=", "=", "^", "~", "~>":
		return true
	}
	return false
}

func parseHyphen(lo, hi string) ([]comparator, error) {
	low, err := parsePartial(lo)
	if err != nil {
		return nil, err
	}
	high, err := parsePartial(hi)
	if err != nil {
		return nil, err
	}
	set := []comparator{{op: ">=", version: low.floor()}}
	switch {
	case high.n == 0:
	case high.n == 3:
		set = append(set, comparator{op: "<=", version: high.floor()})
	default:
		set = append(set, comparator{op: "<", version: high.bump(high.n - 1)})
	}
	return set, nil
}

func parseComparator(tok string) ([]comparator, error) {
	op := ""
	for _, candidate := range []string{">=", "<=", "~>", ">", "<", "=", "^", "~"} {
		if strings.HasPrefix(tok, candidate) {
			op = candidate
			tok = tok[len(candidate):]
			break
		}
	}
	p, err := parsePartial(tok)
	if err != nil {
		return nil, err
	}

	switch op {
	case "", "=":
		switch p.n {
		case 0:
			return []comparator{{}}, nil
		case 3:
			return []comparator{{op: "=", version: p.floor()}}, nil
		}
		return []comparator{{op: ">=", version: p.floor()}, {op: "<", version: p.bump(p.n - 1)}}, nil
	case "^":
		if p.n == 0 {
			return []comparator{{}}, nil
		}
		var upper string
		switch {
		case p.major > 0 || p.n == 1:
			upper = p.bump(0)
		case p.minor > 0 || p.n == 2:
			upper = p.bump(1)
		default:
			upper = p.bump(2)
		}
		return []comparator{{op: ">=", version: p.floor()}, {op: "<", version: upper}}, nil
	case "~", "~>":
		switch p.n {
		case 0:
			return []comparator{{}}, nil
		case 1:
			return []comparator{{op: ">=", version: p.floor()}, {op: "<", version: p.bump(0)}}, nil
		}
		return []comparator{{op: ">=", version: p.floor()}, {op: "<", version: p.bump(1)}}, nil
	case ">":
		switch p.n {
		case 0:
			return nil, fmt.Errorf("%q matches no version", ">"+tok)
		case 3:
			return []comparator{{op: ">", version: p.floor()}}, nil
		}
		return []comparator{{op: ">=", version: p.bump(p.n - 1)}}, nil
	case ">=":
		if p.n == 0 {
			return []comparator{{}}, nil
		}
		return []comparator{{op: ">=", version: p.floor()}}, nil
	case "<":
		if p.n == 0 {
			return nil, fmt.Errorf("%q matches no version", "<"+tok)
		}
		return []comparator{{op: "<", version: p.floor()}}, nil
	case "<=":
		switch p.n {
		case 0:
			return []comparator{{}}, nil
		case 3:
			return []comparator{{op: "<=", version: p.floor()}}, nil
		}
		return []comparator{{op: "<", version: p.bump(p.n - 1)}}, nil
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

// partial is a possibly incomplete version such as "1", "1.2", "1.x".
type partial struct {
	major, minor, patch int
	pre                 string
	n                   int // number of numeric components given (0-3)
}

func parsePartial(s string) (partial, error) {
	s = strings.TrimPrefix(s, "v")
	if s == "" || s == "*" || s == "x" || s == "X" {
		return partial{}, nil
	}

	var p partial
	core := s
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core = s[:i]
		if s[i] == '-' {
			p.pre = strings.SplitN(s[i:], "+", 2)[0]
		}
	}

	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		return partial{}, fmt.Errorf("version %q has too many components", s)
	}
	for i, part := range parts {
		if part == "x" || part == "X" || part == "*" {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return partial{}, fmt.Errorf("version %q: component %q is not a number", s, part)
		}
		switch i {
		case 0:
			p.major = n
		case 1:
			p.minor = n
		case 2:
			p.patch = n
		}
		p.n = i + 1
	}
	if p.pre != "" && p.n < 3 {
		return partial{}, fmt.Errorf("version %q: pre-release requires a full version", s)
	}
	if p.n == 3 && !semver.IsValid(p.floor()) {
		return partial{}, fmt.Errorf("version %q is not valid semver", s)
	}
	return p, nil
}

// floor fills missing components with zero.
func (p partial) floor() string {
	return fmt.Sprintf("v%d.%d.%d%s", p.major, p.minor, p.patch, p.pre)
}

// bump returns the smallest version above every version sharing the first
// pos+1 components.
func (p partial) bump(pos int) string {
	switch pos {
	case 0:
		return fmt.Sprintf("v%d.0.0", p.major+1)
	case 1:
		return fmt.Sprintf("v%d.%d.0", p.major, p.minor+1)
	}
	return fmt.Sprintf("v%d.%d.%d", p.major, p.minor, p.patch+1)
}
