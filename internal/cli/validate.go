package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate plugin manifests and skill rule fragments",
	Long: `Validate plugins without installing them.

Each path may be a plugin directory, a plugin.json file or a skill rules
fragment. Without arguments every plugin in the catalog is validated.

Examples:
  pluginkit validate
  pluginkit validate plugins/web
  pluginkit validate plugins/web/skill-rules.fragment.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validatePaths(cmd.OutOrStdout(), cfg.PluginsDir, args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validatePaths(out io.Writer, pluginsDir string, paths []string) error {
	if len(paths) == 0 {
		catalog, err := plugin.OpenCatalog(pluginsDir)
		if err != nil {
			return err
		}
		for _, name := range catalog.Names() {
			paths = append(paths, filepath.Join(pluginsDir, name))
		}
		if len(paths) == 0 {
			fmt.Fprintf(out, "No plugins found in %s.\n", pluginsDir)
			return nil
		}
	}

	var errs error
	for _, path := range paths {
		warnings, err := validatePath(path)
		if err != nil {
			fmt.Fprintf(out, "FAIL %s\n%v\n", path, err)
			errs = multierr.Append(errs, fmt.Errorf("%s: invalid", path))
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", path)
		for _, w := range warnings {
			fmt.Fprintf(out, "     warning: %s\n", w)
		}
	}
	return errs
}

// validatePath dispatches on what path points at.
func validatePath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		p, err := plugin.LoadPlugin(path)
		if err != nil {
			return nil, err
		}
		return p.Warnings, nil
	}
	if filepath.Base(path) == plugin.ManifestFile {
		p, err := plugin.LoadPlugin(filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		return p.Warnings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, err = plugin.ParseFragment(data)
	return nil, err
}
