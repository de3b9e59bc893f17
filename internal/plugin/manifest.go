// Package plugin loads and validates plugin manifests and skill rule
// fragments, and discovers plugins on disk.
package plugin

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/andywolf/pluginkit/internal/value"
)

// Manifest is the parsed content of a plugin.json file.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Author      string   `json:"author,omitempty"`
	License     string   `json:"license,omitempty"`
	Homepage    string   `json:"homepage,omitempty"`
	Repository  string   `json:"repository,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`

	Compatibility Compatibility `json:"compatibility"`
	Provides      Provides      `json:"provides"`
	Dependencies  Dependencies  `json:"dependencies"`

	// Hints consumed by skill activation, validated here.
	PathPatterns    []string `json:"pathPatterns,omitempty"`
	ContentPatterns []string `json:"contentPatterns,omitempty"`

	Templates Templates `json:"templates"`
	Prompts   []Prompt  `json:"prompts,omitempty"`
}

// Compatibility holds semver ranges for the host tool and Node.js.
type Compatibility struct {
	ClaudeCode string `json:"claudeCode,omitempty"`
	Node       string `json:"node,omitempty"`
}

// Provides lists what the plugin contributes to the destination tree.
type Provides struct {
	Skills             []string `json:"skills,omitempty"`
	Agents             []string `json:"agents,omitempty"`
	Commands           []string `json:"commands,omitempty"`
	Hooks              []string `json:"hooks,omitempty"`
	SkillRulesFragment string   `json:"skillRulesFragment,omitempty"`
}

// Dependencies lists plugins that must install first and npm packages the
// hooks need.
type Dependencies struct {
	Plugins []string          `json:"plugins,omitempty"`
	Npm     map[string]string `json:"npm,omitempty"`
}

// Templates declares default values for path variables.
type Templates struct {
	Paths map[string]string `json:"paths,omitempty"`
}

// Prompt is a question asked during interactive installs; the answer is
// stored under Variable in the template context.
type Prompt struct {
	Variable string   `json:"variable"`
	Message  string   `json:"message"`
	Default  string   `json:"default,omitempty"`
	Type     string   `json:"type,omitempty"`
	Choices  []string `json:"choices,omitempty"`
}

const (
	namePattern     = `^[a-z0-9]+(-[a-z0-9]+)*$`
	skillPattern    = `^[a-z0-9][a-z0-9_-]*$`
	markdownPattern = `^[A-Za-z0-9][A-Za-z0-9._-]*\.md$`
	filePattern     = `^[A-Za-z0-9][A-Za-z0-9._-]*$`
	variablePattern = `^[A-Za-z_][A-Za-z0-9_-]*$`
)

// authorPattern accepts "Name", "Name <email>" and "Name <email> (url)".
var authorPattern = regexp.MustCompile(`^[^<>()]+?( <[^<>\s]+@[^<>\s]+>)?( \([^()\s]+\))?$`)

var manifestSchema = object(map[string]*schema{
	"$schema":     str(),
	"name":        patternStr(namePattern),
	"version":     patternStr(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`),
	"displayName": nonEmptyStr(),
	"description": nonEmptyStr(),
	"author":      str(),
	"license":     str(),
	"homepage":    str(),
	"repository":  str(),
	"keywords":    arrayOf(str()),
	"compatibility": object(map[string]*schema{
		"claudeCode": nonEmptyStr(),
		"node":       nonEmptyStr(),
	}),
	"provides": object(map[string]*schema{
		"skills":             arrayOf(patternStr(skillPattern)),
		"agents":             arrayOf(patternStr(markdownPattern)),
		"commands":           arrayOf(patternStr(markdownPattern)),
		"hooks":              arrayOf(patternStr(filePattern)),
		"skillRulesFragment": nonEmptyStr(),
	}),
	"dependencies": object(map[string]*schema{
		"plugins": arrayOf(patternStr(namePattern)),
		"npm":     mapOf(str()),
	}),
	"pathPatterns":    arrayOf(nonEmptyStr()),
	"contentPatterns": arrayOf(nonEmptyStr()),
	"templates": object(map[string]*schema{
		"paths": mapOf(str()),
	}),
	"prompts": arrayOf(object(map[string]*schema{
		"variable": patternStr(variablePattern),
		"message":  nonEmptyStr(),
		"default":  str(),
		"type":     enumStr("input", "confirm", "select"),
		"choices":  arrayOf(str()),
	}, "variable", "message")),
}, "name", "version", "displayName", "description", "provides")

// ParseManifest decodes and validates manifest bytes. Structural and
// semantic problems are reported together in one *ManifestValidationError;
// semantic checks skip fields whose structure is already reported.
// Non-fatal style findings are returned as warnings alongside a valid
// manifest.
func ParseManifest(data []byte) (*Manifest, []string, error) {
	tree, err := value.Parse(data)
	if err != nil {
		return nil, nil, &ManifestValidationError{Problems: []string{"(root): invalid JSON: " + err.Error()}}
	}

	var errs problems
	manifestSchema.validate("", tree, &errs)
	if !tree.IsObject() {
		return nil, nil, &ManifestValidationError{Problems: errs}
	}
	structural := len(errs) > 0

	raw, err := tree.MarshalJSON()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to re-encode manifest: %w", err)
	}
	// Fields of the wrong type are left zero and already reported above.
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil && !structural {
		return nil, nil, &ManifestValidationError{Problems: []string{"(root): " + err.Error()}}
	}

	warnings := m.semanticChecks(&errs)
	if len(errs) > 0 {
		return nil, nil, &ManifestValidationError{Source: m.Name, Problems: errs}
	}
	return &m, warnings, nil
}

// semanticChecks validates what the schema cannot express and returns style
// warnings.
func (m *Manifest) semanticChecks(errs *problems) []string {
	if !ValidVersion(m.Version) {
		errs.addNew("version", "%q is not a valid semantic version", m.Version)
	}
	if m.Compatibility.ClaudeCode != "" {
		if _, err := ParseRange(m.Compatibility.ClaudeCode); err != nil {
			errs.addNew("compatibility.claudeCode", "%v", err)
		}
	}
	if m.Compatibility.Node != "" {
		if _, err := ParseRange(m.Compatibility.Node); err != nil {
			errs.addNew("compatibility.node", "%v", err)
		}
	}
	if f := m.Provides.SkillRulesFragment; f != "" && !filepath.IsLocal(filepath.FromSlash(f)) {
		errs.addNew("provides.skillRulesFragment", "%q must be a relative path inside the plugin", f)
	}
	for i, p := range m.PathPatterns {
		if !validGlob(p) {
			errs.addNew(index("pathPatterns", i), "invalid glob %q", p)
		}
	}
	for i, p := range m.ContentPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs.addNew(index("contentPatterns", i), "invalid pattern %q: %v", p, err)
		}
	}
	for i, dep := range m.Dependencies.Plugins {
		if dep == m.Name {
			errs.addNew(index("dependencies.plugins", i), "plugin cannot depend on itself")
		}
	}
	for i, p := range m.Prompts {
		if p.Type == "select" && len(p.Choices) == 0 {
			errs.addNew(index("prompts", i)+".choices", "select prompt needs at least one choice")
		}
	}

	var warnings []string
	if m.Author != "" && !authorPattern.MatchString(m.Author) {
		warnings = append(warnings, fmt.Sprintf("author: %q should look like \"Name <email> (url)\"", m.Author))
	}
	if m.Author == "" {
		warnings = append(warnings, "author: not set")
	}
	return warnings
}

// CheckCompatibility reports whether hostVersion satisfies the manifest's
// claudeCode range. An empty range or host version is always compatible.
func (m *Manifest) CheckCompatibility(hostVersion string) (bool, error) {
	if m.Compatibility.ClaudeCode == "" || hostVersion == "" {
		return true, nil
	}
	r, err := ParseRange(m.Compatibility.ClaudeCode)
	if err != nil {
		return false, err
	}
	return r.Check(hostVersion), nil
}

// String returns "displayName vX.Y.Z".
func (m *Manifest) String() string {
	display := m.DisplayName
	if display == "" {
		display = m.Name
	}
	return fmt.Sprintf("%s v%s", display, m.Version)
}
