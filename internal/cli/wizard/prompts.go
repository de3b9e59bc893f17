// Package wizard provides interactive prompts for CLI commands.
package wizard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/template"
	"github.com/charmbracelet/huh"
)

// PluginChoice is one selectable plugin.
type PluginChoice struct {
	Name        string
	Title       string
	Description string
}

// ChoicesFrom describes the manifests for the selection list, sorted by name.
func ChoicesFrom(manifests []*plugin.Manifest) []PluginChoice {
	choices := make([]PluginChoice, 0, len(manifests))
	for _, m := range manifests {
		choices = append(choices, PluginChoice{Name: m.Name, Title: m.String(), Description: m.Description})
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i].Name < choices[j].Name })
	return choices
}

// SelectPlugins asks which plugins to install. Names in preselected start
// checked.
func SelectPlugins(choices []PluginChoice, preselected []string) ([]string, error) {
	selected := append([]string(nil), preselected...)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Plugins to install").
				Description("Dependencies are added automatically.").
				Options(pluginOptions(choices, preselected)...).
				Value(&selected).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("select at least one plugin")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("prompt cancelled: %w", err)
	}
	return selected, nil
}

func pluginOptions(choices []PluginChoice, preselected []string) []huh.Option[string] {
	checked := make(map[string]bool, len(preselected))
	for _, name := range preselected {
		checked[name] = true
	}
	opts := make([]huh.Option[string], 0, len(choices))
	for _, c := range choices {
		label := c.Title
		if c.Description != "" {
			label += " - " + c.Description
		}
		opts = append(opts, huh.NewOption(label, c.Name).Selected(checked[c.Name]))
	}
	return opts
}

// question is one manifest prompt bound to the value huh writes into.
type question struct {
	variable string
	prompt   plugin.Prompt
	text     string
	yes      bool
}

func (q *question) answer() string {
	if q.prompt.Type == "confirm" {
		return strconv.FormatBool(q.yes)
	}
	return strings.TrimSpace(q.text)
}

// collectQuestions merges the prompts of every plugin in install order.
// A variable is asked once, by the first plugin declaring it, and not at
// all when fixed already holds it.
func collectQuestions(manifests []*plugin.Manifest, fixed template.Context) []*question {
	var out []*question
	seen := make(map[string]bool)
	for _, m := range manifests {
		for _, p := range m.Prompts {
			key := template.NormalizeKey(p.Variable)
			if seen[key] {
				continue
			}
			seen[key] = true
			if _, ok := fixed[key]; ok {
				continue
			}
			q := &question{variable: key, prompt: p, text: p.Default}
			if p.Type == "confirm" {
				q.yes, _ = strconv.ParseBool(p.Default)
			}
			out = append(out, q)
		}
	}
	return out
}

func (q *question) field() huh.Field {
	title := q.prompt.Message
	switch q.prompt.Type {
	case "confirm":
		return huh.NewConfirm().Title(title).Value(&q.yes)
	case "select":
		opts := make([]huh.Option[string], 0, len(q.prompt.Choices))
		for _, c := range q.prompt.Choices {
			opts = append(opts, huh.NewOption(c, c))
		}
		return huh.NewSelect[string]().Title(title).Options(opts...).Value(&q.text)
	default:
		return huh.NewInput().Title(title).Placeholder(q.prompt.Default).Value(&q.text)
	}
}

func answers(questions []*question) map[string]string {
	out := make(map[string]string, len(questions))
	for _, q := range questions {
		if v := q.answer(); v != "" {
			out[q.variable] = v
		}
	}
	return out
}

// AskPrompts asks the manifest prompts of the selected plugins and returns
// the answers keyed by normalized variable name. Variables already present
// in fixed are not asked.
func AskPrompts(manifests []*plugin.Manifest, fixed template.Context) (map[string]string, error) {
	questions := collectQuestions(manifests, fixed)
	if len(questions) == 0 {
		return map[string]string{}, nil
	}

	fields := make([]huh.Field, 0, len(questions))
	for _, q := range questions {
		fields = append(fields, q.field())
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, fmt.Errorf("prompt cancelled: %w", err)
	}
	return answers(questions), nil
}

// ConfirmInstall shows the resolved install order and asks to proceed.
func ConfirmInstall(order []string, root string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Install Plan").
				Description(fmt.Sprintf("Project: %s\nOrder: %s", root, strings.Join(order, " -> "))),

			huh.NewConfirm().
				Title("Install these plugins?").
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}
