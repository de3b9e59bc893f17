// Package engine runs an installation: resolve the selected plugins, compose
// rules and settings, copy plugin content and verify the result.
package engine

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/andywolf/pluginkit/internal/installer"
	"github.com/andywolf/pluginkit/internal/layout"
	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/report"
	"github.com/andywolf/pluginkit/internal/resolver"
	"github.com/andywolf/pluginkit/internal/rules"
	"github.com/andywolf/pluginkit/internal/state"
	"github.com/andywolf/pluginkit/internal/template"
	"github.com/andywolf/pluginkit/internal/value"
	"github.com/andywolf/pluginkit/internal/verify"
	"go.uber.org/multierr"
)

//go:embed assets/settings.json
var baseSettingsJSON []byte

// ErrAlreadyInstalled is returned when a requested plugin is recorded in the
// project's state file and Force is not set.
var ErrAlreadyInstalled = errors.New("plugin already installed")

// Source provides validated plugins by name. *plugin.Catalog implements it.
type Source interface {
	Get(name string) (*plugin.Plugin, error)
}

// Detector derives template variables from the project being installed
// into.
type Detector interface {
	Detect(ctx context.Context, root string) (template.Context, error)
}

// Request is one installation.
type Request struct {
	ProjectRoot string
	Plugins     []string
	Force       bool
	DryRun      bool
	// CustomPaths override every other template variable source.
	CustomPaths map[string]string
	// Answers hold prompt responses keyed by variable name.
	Answers map[string]string
	// HostVersion is checked against each manifest's compatibility range
	// when set.
	HostVersion string
}

// Result describes what a run did.
type Result struct {
	// Order and Plugins are what this run installs.
	Order   []string
	Plugins []*plugin.Plugin
	// Composed is every plugin the rules, settings and hook package are
	// built from: plugins recorded by earlier runs plus this run's, in
	// install order.
	Composed []string
	Context  template.Context
	Rules    *plugin.Fragment
	Settings value.Value
	State    *state.Installation
	// Verification is nil for dry runs.
	Verification *verify.Report
	// Events is everything the run reported.
	Events []report.Event
}

// Warnings returns the warn and error level events.
func (r *Result) Warnings() []report.Event {
	var out []report.Event
	for _, e := range r.Events {
		if e.Level == report.LevelWarn || e.Level == report.LevelError {
			out = append(out, e)
		}
	}
	return out
}

// Engine runs installations against a plugin source.
type Engine struct {
	source   Source
	detector Detector
	sink     report.Sink
	now      func() time.Time
	version  string
	base     value.Value
}

// Option configures an Engine.
type Option func(*Engine)

// WithDetector adds a project detection layer to the template context.
func WithDetector(d Detector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithSink forwards every event to sink in addition to Result.Events.
func WithSink(sink report.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithVersion sets the tool version recorded in the state file.
func WithVersion(v string) Option {
	return func(e *Engine) { e.version = v }
}

// WithBaseSettings replaces the built-in settings.json skeleton.
func WithBaseSettings(v value.Value) Option {
	return func(e *Engine) { e.base = v }
}

// New creates an Engine.
func New(source Source, opts ...Option) (*Engine, error) {
	base, err := value.Parse(baseSettingsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in settings: %w", err)
	}
	e := &Engine{
		source:  source,
		sink:    report.Discard,
		now:     time.Now,
		version: "dev",
		base:    base,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run performs req. Validation, resolution and conflict errors are returned
// before anything is written. Once writing starts, per-file failures become
// warnings and the run continues; failures writing essential artifacts are
// aggregated into the returned error, which accompanies a non-nil Result.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	collector := report.NewCollector()
	sink := report.Multi{collector, e.sink}
	res := &Result{}
	defer func() { res.Events = collector.Events() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(req.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	order, err := resolver.Resolve(req.Plugins, e.dependencies, resolver.WithSink(sink))
	if err != nil {
		return nil, err
	}
	res.Order = order

	for _, name := range order {
		p, err := e.source.Get(name)
		if err != nil {
			return nil, err
		}
		for _, w := range p.Warnings {
			report.Warn(sink, report.KindManifest, name, "", w)
		}
		if ok, err := p.Manifest.CheckCompatibility(req.HostVersion); err == nil && !ok {
			report.Warn(sink, report.KindManifest, name, "",
				fmt.Sprintf("host version %s does not satisfy %s", req.HostVersion, p.Manifest.Compatibility.ClaudeCode))
		}
		res.Plugins = append(res.Plugins, p)
	}

	prev, err := state.Load(root)
	if err != nil && !errors.Is(err, state.ErrNotInstalled) {
		return nil, err
	}
	if prev != nil && !req.Force {
		var installed []string
		for _, name := range req.Plugins {
			if _, ok := prev.Lookup(name); ok {
				installed = append(installed, name)
			}
		}
		if len(installed) > 0 {
			return nil, fmt.Errorf("%w: %s (use --force to reinstall)", ErrAlreadyInstalled, strings.Join(installed, ", "))
		}
	}

	composed, err := e.compose(res.Plugins, prev)
	if err != nil {
		return nil, err
	}
	for _, p := range composed {
		res.Composed = append(res.Composed, p.Name())
	}

	res.Context, err = e.buildContext(ctx, root, req, composed, prev)
	if err != nil {
		return nil, err
	}
	warnMissing(sink, composed, res.Context)

	var fragments []rules.NamedFragment
	for _, p := range composed {
		fragments = append(fragments, rules.NamedFragment{Plugin: p.Name(), Fragment: p.Fragment})
	}
	merged, err := rules.Merge(fragments, res.Context, sink)
	if err != nil {
		return nil, err
	}
	res.Rules = merged.Rules

	res.Settings = e.base.Clone()
	for _, p := range composed {
		if p.HasSettings {
			res.Settings = value.Merge(res.Settings, template.ReplaceDeep(p.Settings, res.Context))
		}
	}

	opts := installer.Options{Force: req.Force, DryRun: req.DryRun, Sink: sink}
	if err := installer.Scaffold(root, opts); err != nil {
		return nil, err
	}

	now := e.now()
	res.State = state.Continue(prev, e.version, now)
	for k, v := range req.CustomPaths {
		res.State.SetCustomPath(template.NormalizeKey(k), v)
	}

	for _, p := range res.Plugins {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e.installPlugin(root, p, res.Context, opts)
		res.State.Add(p.Name(), p.Manifest.Version, now)
	}

	if pkg, ok := hookPackage(root, composed); ok {
		if err := installer.WriteJSON(root, layout.HookPackageFile, pkg, opts); err != nil {
			report.Warn(sink, report.KindFileError, "", layout.HookPackageFile, err.Error())
		}
	}
	for _, err := range installer.MarkExecutable(layout.Path(root, layout.HooksDir), opts) {
		report.Warn(sink, report.KindFileError, "", "", err.Error())
	}

	var essential error
	essential = multierr.Append(essential, installer.WriteRules(root, res.Rules, opts))
	essential = multierr.Append(essential, installer.WriteSettings(root, res.Settings, opts))
	essential = multierr.Append(essential, installer.WriteState(root, res.State, opts))

	if _, err := installer.AppendGitignore(root, opts); err != nil {
		report.Warn(sink, report.KindFileError, "", layout.Gitignore, err.Error())
	}

	if !req.DryRun {
		rep := verify.Verify(root)
		rep.Emit(sink)
		res.Verification = &rep
	}
	return res, essential
}

// compose returns the plugins the configuration artifacts are built from.
// Without an earlier installation that is the run's own plugins; otherwise
// the recorded plugins are resolved together with them so that rewriting
// skill-rules.json and settings.json keeps every installed contribution.
func (e *Engine) compose(run []*plugin.Plugin, prev *state.Installation) ([]*plugin.Plugin, error) {
	if prev == nil || len(prev.Plugins) == 0 {
		return run, nil
	}

	loaded := make(map[string]*plugin.Plugin, len(run))
	var names []string
	for _, rec := range prev.Plugins {
		names = append(names, rec.Name)
	}
	for _, p := range run {
		loaded[p.Name()] = p
		if _, ok := prev.Lookup(p.Name()); !ok {
			names = append(names, p.Name())
		}
	}

	order, err := resolver.Resolve(names, e.dependencies)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve installed plugins: %w", err)
	}
	out := make([]*plugin.Plugin, 0, len(order))
	for _, name := range order {
		p, ok := loaded[name]
		if !ok {
			if p, err = e.source.Get(name); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// dependencies adapts the source to the resolver.
func (e *Engine) dependencies(name string) ([]string, error) {
	p, err := e.source.Get(name)
	if errors.Is(err, plugin.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", resolver.ErrNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return p.Manifest.Dependencies.Plugins, nil
}

// buildContext layers, lowest precedence first: built-in paths and manifest
// defaults, detected values, prompt answers, previously recorded custom
// paths, requested custom paths.
func (e *Engine) buildContext(ctx context.Context, root string, req Request, plugins []*plugin.Plugin, prev *state.Installation) (template.Context, error) {
	defaults := template.Context{
		"PROJECT_ROOT": root,
		"PROJECT_NAME": filepath.Base(root),
		"CLAUDE_DIR":   layout.ClaudeDir,
		"SKILLS_DIR":   layout.SkillsDir,
		"AGENTS_DIR":   layout.AgentsDir,
		"COMMANDS_DIR": layout.CommandsDir,
		"HOOKS_DIR":    layout.HooksDir,
	}
	var manifestLayers []template.Context
	for _, p := range plugins {
		layer := template.FromMap(p.Manifest.Templates.Paths)
		for _, q := range p.Manifest.Prompts {
			if q.Default != "" {
				layer[template.NormalizeKey(q.Variable)] = q.Default
			}
		}
		manifestLayers = append(manifestLayers, layer)
	}

	var detected template.Context
	if e.detector != nil {
		var err error
		detected, err = e.detector.Detect(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("project detection failed: %w", err)
		}
	}

	var recorded map[string]string
	if prev != nil {
		recorded = prev.CustomPaths
	}

	layers := []template.Context{defaults}
	layers = append(layers, manifestLayers...)
	layers = append(layers, detected, template.FromMap(req.Answers), template.FromMap(recorded), template.FromMap(req.CustomPaths))
	return template.Merge(layers...), nil
}

// warnMissing reports placeholders in fragments and settings that the
// context cannot fill. File content is checked as it is copied.
func warnMissing(sink report.Sink, plugins []*plugin.Plugin, ctx template.Context) {
	for _, p := range plugins {
		var names []string
		if p.Fragment != nil {
			if tree, err := p.Fragment.ToValue(); err == nil {
				names = append(names, template.ExtractVariablesDeep(tree)...)
			}
		}
		if p.HasSettings {
			names = append(names, template.ExtractVariablesDeep(p.Settings)...)
		}
		seen := make(map[string]bool)
		for _, name := range template.Missing(names, ctx) {
			if seen[name] {
				continue
			}
			seen[name] = true
			report.Warn(sink, report.KindTemplateMissing, p.Name(), "", fmt.Sprintf("{{%s}} has no value and is left as-is", name))
		}
	}
}
