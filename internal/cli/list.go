package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/state"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plugins",
	Long: `List the plugins in the catalog with their versions and dependencies.

Plugins recorded in the project's .pluginkit.json are marked with the
installed version.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPlugins(cmd.OutOrStdout(), cfg.PluginsDir, cfg.Project.Root)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listPlugins(out io.Writer, pluginsDir, root string) error {
	catalog, err := plugin.OpenCatalog(pluginsDir)
	if err != nil {
		return err
	}

	installed, err := state.Load(root)
	if err != nil && !errors.Is(err, state.ErrNotInstalled) {
		return err
	}

	names := catalog.Names()
	if len(names) == 0 {
		fmt.Fprintf(out, "No plugins found in %s.\n", pluginsDir)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tINSTALLED\tDEPENDS ON\tDESCRIPTION")
	for _, name := range names {
		have := "-"
		if installed != nil {
			if rec, ok := installed.Lookup(name); ok {
				have = rec.Version
			}
		}

		p, err := catalog.Get(name)
		if err != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, "invalid", have, "-", firstLine(err.Error()))
			continue
		}
		deps := "-"
		if d := p.Manifest.Dependencies.Plugins; len(d) > 0 {
			deps = strings.Join(d, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, p.Manifest.Version, have, deps, p.Manifest.Description)
	}
	return w.Flush()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
