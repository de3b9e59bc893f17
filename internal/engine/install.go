package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/andywolf/pluginkit/internal/installer"
	"github.com/andywolf/pluginkit/internal/layout"
	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/report"
	"github.com/andywolf/pluginkit/internal/template"
	"github.com/andywolf/pluginkit/internal/value"
)

// copyJob maps one provided item from the plugin directory into .claude.
type copyJob struct {
	src string
	dst string
}

func jobs(root string, p *plugin.Plugin) []copyJob {
	var out []copyJob
	add := func(kind, destDir string, names []string) {
		for _, name := range names {
			out = append(out, copyJob{
				src: filepath.Join(p.Dir, kind, name),
				dst: filepath.Join(layout.Path(root, destDir), name),
			})
		}
	}
	add("skills", layout.SkillsDir, p.Manifest.Provides.Skills)
	add("agents", layout.AgentsDir, p.Manifest.Provides.Agents)
	add("commands", layout.CommandsDir, p.Manifest.Provides.Commands)
	add("hooks", layout.HooksDir, p.Manifest.Provides.Hooks)
	return out
}

// installPlugin copies everything p provides. Failures are reported as
// warnings; plugin content is never essential.
func (e *Engine) installPlugin(root string, p *plugin.Plugin, ctx template.Context, opts installer.Options) {
	opts.Plugin = p.Name()
	for _, job := range jobs(root, p) {
		actions, err := installer.PlanCopy(job.src, job.dst, ctx, opts)
		if err != nil {
			report.Warn(opts.Sink, report.KindFileError, p.Name(), job.src, err.Error())
			continue
		}
		for _, a := range actions {
			if !a.Substituted || a.Op == installer.OpSkip {
				continue
			}
			for _, name := range template.ExtractVariables(string(a.Content)) {
				report.Warn(opts.Sink, report.KindTemplateMissing, p.Name(), a.Dest,
					fmt.Sprintf("{{%s}} has no value and is left as-is", name))
			}
		}
		for _, err := range installer.Apply(actions, opts) {
			report.Warn(opts.Sink, report.KindFileError, p.Name(), "", err.Error())
		}
	}
}

// hookPackage builds .claude/hooks/package.json from the npm dependencies
// the plugins declare, merged over an existing file. It reports false when
// no plugin needs npm packages.
func hookPackage(root string, plugins []*plugin.Plugin) (value.Value, bool) {
	deps := value.Object()
	for _, p := range plugins {
		for _, name := range sortedKeys(p.Manifest.Dependencies.Npm) {
			deps.Set(name, value.String(p.Manifest.Dependencies.Npm[name]))
		}
	}
	if deps.Len() == 0 {
		return value.Value{}, false
	}

	pkg := value.Object()
	pkg.Set("name", value.String("claude-hooks"))
	pkg.Set("private", value.Bool(true))
	pkg.Set("type", value.String("module"))
	if data, err := os.ReadFile(layout.Path(root, layout.HookPackageFile)); err == nil {
		if existing, err := value.Parse(data); err == nil && existing.IsObject() {
			pkg = existing
		}
	}

	wrapper := value.Object()
	wrapper.Set("dependencies", deps)
	return value.Merge(pkg, wrapper), true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
