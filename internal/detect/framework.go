package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// framework is a named framework with the dependencies that identify it.
type framework struct {
	name     string
	patterns []string
}

// jsFrameworks are checked in order; the first match wins. Meta-frameworks
// come before the libraries they build on.
var jsFrameworks = []framework{
	{name: "next.js", patterns: []string{"next"}},
	{name: "nuxt", patterns: []string{"nuxt"}},
	{name: "sveltekit", patterns: []string{"@sveltejs/kit"}},
	{name: "react", patterns: []string{"react"}},
	{name: "vue", patterns: []string{"vue"}},
	{name: "svelte", patterns: []string{"svelte"}},
	{name: "angular", patterns: []string{"@angular/core"}},
	{name: "nestjs", patterns: []string{"@nestjs/core"}},
	{name: "express", patterns: []string{"express"}},
	{name: "fastify", patterns: []string{"fastify"}},
}

var goFrameworks = []framework{
	{name: "gin", patterns: []string{"github.com/gin-gonic/gin"}},
	{name: "echo", patterns: []string{"github.com/labstack/echo"}},
	{name: "fiber", patterns: []string{"github.com/gofiber/fiber"}},
	{name: "chi", patterns: []string{"github.com/go-chi/chi"}},
	{name: "cobra", patterns: []string{"github.com/spf13/cobra"}},
}

// packageJSON is the subset of package.json detection reads.
type packageJSON struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func readPackageJSON(root string) (*packageJSON, bool) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil, false
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, false
	}
	return &pkg, true
}

func (p *packageJSON) has(dep string) bool {
	if _, ok := p.Dependencies[dep]; ok {
		return true
	}
	_, ok := p.DevDependencies[dep]
	return ok
}

func detectJSFramework(pkg *packageJSON) string {
	for _, fw := range jsFrameworks {
		for _, dep := range fw.patterns {
			if pkg.has(dep) {
				return fw.name
			}
		}
	}
	return ""
}

// readGoMod returns the module path and required module paths. A go.mod
// that does not parse still marks the project as Go.
func readGoMod(root string) (module string, requires []string, ok bool) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return "", nil, false
	}
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return "", nil, true
	}
	if f.Module != nil {
		module = f.Module.Mod.Path
	}
	for _, r := range f.Require {
		requires = append(requires, r.Mod.Path)
	}
	return module, requires, true
}

func detectGoFramework(requires []string) string {
	for _, fw := range goFrameworks {
		for _, pattern := range fw.patterns {
			for _, path := range requires {
				if strings.HasPrefix(path, pattern) {
					return fw.name
				}
			}
		}
	}
	return ""
}
