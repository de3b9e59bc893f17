package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andywolf/pluginkit/internal/config"
	"github.com/andywolf/pluginkit/internal/detect"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize project configuration",
	Long: `Initialize pluginkit configuration for the current project.

This creates a .pluginkit.yaml file. Directory variables detected in the
project (src, frontend, backend, tests, docs) are written under paths so
they can be reviewed before installing.

Example:
  pluginkit init
  pluginkit init --plugin base,web --plugins-dir ../claude-plugins`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := initOptions{pluginsDir: cfg.PluginsDir}
		opts.plugins, _ = cmd.Flags().GetStringSlice("plugin")
		opts.force, _ = cmd.Flags().GetBool("force")
		opts.detect, _ = cmd.Flags().GetBool("detect")
		return initProject(cmd.Context(), cmd.OutOrStdout(), cfg.Project.Root, opts)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringSlice("plugin", nil, "Plugins to record under project.plugins")
	initCmd.Flags().Bool("detect", true, "Fill paths from project detection")
	initCmd.Flags().Bool("force", false, "Overwrite existing config")
}

type initOptions struct {
	pluginsDir string
	plugins    []string
	force      bool
	detect     bool
}

func initProject(ctx context.Context, out io.Writer, root string, opts initOptions) error {
	configPath := filepath.Join(root, config.FileName+".yaml")

	if _, err := os.Stat(configPath); err == nil && !opts.force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	paths := map[string]string{}
	if opts.detect {
		detected, err := detect.ProjectDetector{}.Detect(ctx, root)
		if err != nil {
			return err
		}
		for k, v := range detected {
			if strings.HasSuffix(k, "_DIR") {
				paths[strings.ToLower(k)] = v
			}
		}
	}

	data, err := config.Marshal(config.Starter(opts.pluginsDir, SplitNames(opts.plugins), paths))
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n\n", configPath)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Review plugins_dir and the detected paths")
	fmt.Fprintln(out, "  2. List the plugins to install under project.plugins")
	fmt.Fprintln(out, "  3. Run 'pluginkit install' (add --dry-run to preview)")

	return nil
}
