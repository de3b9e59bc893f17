package plugin

import (
	"fmt"
	"strings"
)

// ManifestValidationError reports every problem found in a plugin manifest.
type ManifestValidationError struct {
	// Source identifies the manifest (file path or plugin name).
	Source string
	// Problems are "<path>: <problem>" strings in document order.
	Problems []string
}

// Error implements the error interface.
func (e *ManifestValidationError) Error() string {
	return formatProblems("invalid plugin manifest", e.Source, e.Problems)
}

// FragmentValidationError reports every problem found in a skill rules
// fragment.
type FragmentValidationError struct {
	Source   string
	Problems []string
}

// Error implements the error interface.
func (e *FragmentValidationError) Error() string {
	return formatProblems("invalid skill rules fragment", e.Source, e.Problems)
}

func formatProblems(what, source string, problems []string) string {
	head := what
	if source != "" {
		head = fmt.Sprintf("%s %s", what, source)
	}
	switch len(problems) {
	case 0:
		return head
	case 1:
		return fmt.Sprintf("%s: %s", head, problems[0])
	}
	return fmt.Sprintf("%s: %d problems:\n  - %s", head, len(problems), strings.Join(problems, "\n  - "))
}

// problems accumulates "<path>: <problem>" strings.
type problems []string

func (p *problems) add(path, format string, args ...any) {
	if path == "" {
		path = "(root)"
	}
	*p = append(*p, path+": "+fmt.Sprintf(format, args...))
}

// addNew adds a problem unless one is already recorded at path or below it.
func (p *problems) addNew(path, format string, args ...any) {
	for _, existing := range *p {
		if strings.HasPrefix(existing, path+":") || strings.HasPrefix(existing, path+".") || strings.HasPrefix(existing, path+"[") {
			return
		}
	}
	p.add(path, format, args...)
}
