// Package resolver orders plugins so that every plugin installs after the
// plugins it depends on.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andywolf/pluginkit/internal/report"
)

// ErrNotFound must be wrapped by a DependencyFunc when name is not an
// available plugin.
var ErrNotFound = errors.New("plugin not available")

// DependencyFunc returns the declared plugin dependencies of name.
type DependencyFunc func(name string) ([]string, error)

// DuplicatePluginError is returned when a name is requested more than once.
type DuplicatePluginError struct {
	Name string
}

func (e *DuplicatePluginError) Error() string {
	return fmt.Sprintf("plugin %q requested more than once", e.Name)
}

// CircularDependencyError is returned when the dependency graph has a cycle.
// Path starts and ends with Name.
type CircularDependencyError struct {
	Name string
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected at %q: %s", e.Name, strings.Join(e.Path, " -> "))
}

// MissingPluginError is returned when a requested plugin or a dependency is
// not available. Requester is empty for top-level requests.
type MissingPluginError struct {
	Name      string
	Requester string
}

func (e *MissingPluginError) Error() string {
	if e.Requester == "" {
		return fmt.Sprintf("plugin %q not found", e.Name)
	}
	return fmt.Sprintf("plugin %q required by %q not found", e.Name, e.Requester)
}

// Option configures Resolve.
type Option func(*options)

type options struct {
	sink report.Sink
}

// WithSink sends a resolve event carrying the final order to sink.
func WithSink(sink report.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// Resolve returns requested plus all transitive dependencies, each exactly
// once, dependencies first. Independent plugins keep the requested order and
// dependencies keep their declared order.
func Resolve(requested []string, deps DependencyFunc, opts ...Option) ([]string, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	seen := make(map[string]bool, len(requested))
	for _, name := range requested {
		if seen[name] {
			return nil, &DuplicatePluginError{Name: name}
		}
		seen[name] = true
	}

	done := make(map[string]bool)
	var order []string
	for _, name := range requested {
		visiting := make(map[string]bool)
		if err := visit(name, "", nil, visiting, done, deps, &order); err != nil {
			return nil, err
		}
	}

	report.Info(o.sink, report.KindResolve, "", "", "install order: "+strings.Join(order, ", "))
	return order, nil
}

// visit appends name to order after its dependencies. visiting holds the
// names on the current path; done holds names already in order.
func visit(name, requester string, path []string, visiting, done map[string]bool, deps DependencyFunc, order *[]string) error {
	if done[name] {
		return nil
	}
	path = append(path, name)
	if visiting[name] {
		return &CircularDependencyError{Name: name, Path: cycleFrom(path, name)}
	}

	children, err := deps(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &MissingPluginError{Name: name, Requester: requester}
		}
		return fmt.Errorf("failed to read dependencies of %s: %w", name, err)
	}

	visiting[name] = true
	for _, child := range children {
		if err := visit(child, name, path, visiting, done, deps, order); err != nil {
			return err
		}
	}
	delete(visiting, name)

	done[name] = true
	*order = append(*order, name)
	return nil
}

// cycleFrom trims path to start at the first occurrence of name.
func cycleFrom(path []string, name string) []string {
	for i, p := range path {
		if p == name {
			return append([]string(nil), path[i:]...)
		}
	}
	return append([]string(nil), path...)
}
