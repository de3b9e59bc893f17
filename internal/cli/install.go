package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/andywolf/pluginkit/internal/cli/wizard"
	"github.com/andywolf/pluginkit/internal/detect"
	"github.com/andywolf/pluginkit/internal/engine"
	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/report"
	"github.com/andywolf/pluginkit/internal/resolver"
	"github.com/andywolf/pluginkit/internal/template"
	"github.com/andywolf/pluginkit/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var installCmd = &cobra.Command{
	Use:   "install [plugins...]",
	Short: "Install plugins into the project",
	Long: `Install plugins and their dependencies into the project's .claude directory.

Plugins default to project.plugins from .pluginkit.yaml. Path variables from
the config file, --path flags, manifest prompts and project detection are
substituted into plugin content.

Examples:
  pluginkit install web
  pluginkit install base,web --path frontendDir=apps/web --dry-run
  pluginkit install --interactive`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().Bool("force", false, "Overwrite existing files and reinstall recorded plugins")
	installCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	installCmd.Flags().StringArray("path", nil, "Path variable as VAR=dir (repeatable)")
	installCmd.Flags().BoolP("interactive", "i", false, "Choose plugins and answer manifest prompts interactively")
	installCmd.Flags().String("events-log", "", "Append every install event as JSON lines to this file")
}

type installOptions struct {
	root        string
	pluginsDir  string
	plugins     []string
	paths       map[string]string
	force       bool
	dryRun      bool
	interactive bool
	hostVersion string
}

func runInstall(cmd *cobra.Command, args []string) (err error) {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	flagPaths, _ := cmd.Flags().GetStringArray("path")
	parsed, err := ParsePaths(flagPaths)
	if err != nil {
		return err
	}

	opts := installOptions{
		root:        cfg.Project.Root,
		pluginsDir:  cfg.PluginsDir,
		plugins:     SplitNames(args),
		paths:       template.Merge(cfg.Variables(), parsed),
		hostVersion: cfg.HostVersion,
	}
	if len(opts.plugins) == 0 {
		opts.plugins = cfg.Project.Plugins
	}
	opts.force, _ = cmd.Flags().GetBool("force")
	opts.dryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.interactive, _ = cmd.Flags().GetBool("interactive")

	var sink report.Sink = report.NewZapSink(logger)
	if path, _ := cmd.Flags().GetString("events-log"); path != "" {
		fileSink, openErr := report.NewFileSink(path)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, fileSink.Close()) }()
		sink = report.Multi{sink, fileSink}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return install(ctx, cmd.OutOrStdout(), opts, sink)
}

func install(ctx context.Context, out io.Writer, opts installOptions, sink report.Sink) error {
	catalog, err := plugin.OpenCatalog(opts.pluginsDir)
	if err != nil {
		return err
	}

	names := opts.plugins
	var answers map[string]string
	if opts.interactive {
		names, answers, err = interview(catalog, opts, sink)
		if err != nil {
			return err
		}
		if names == nil {
			fmt.Fprintln(out, "Installation cancelled.")
			return nil
		}
	}
	if len(names) == 0 {
		return errors.New("no plugins selected (pass plugin names, set project.plugins, or use --interactive)")
	}

	eng, err := engine.New(catalog,
		engine.WithDetector(detect.ProjectDetector{}),
		engine.WithSink(sink),
		engine.WithVersion(version.Semver()),
	)
	if err != nil {
		return err
	}

	res, err := eng.Run(ctx, engine.Request{
		ProjectRoot: opts.root,
		Plugins:     names,
		Force:       opts.force,
		DryRun:      opts.dryRun,
		CustomPaths: opts.paths,
		Answers:     answers,
		HostVersion: opts.hostVersion,
	})
	if res != nil {
		printSummary(out, res, opts.dryRun)
	}
	return err
}

// interview runs the selection, prompt and confirmation forms. A nil
// selection means the user declined.
func interview(catalog *plugin.Catalog, opts installOptions, sink report.Sink) ([]string, map[string]string, error) {
	var manifests []*plugin.Manifest
	for _, name := range catalog.Names() {
		p, err := catalog.Get(name)
		if err != nil {
			report.Warn(sink, report.KindManifest, name, "", "skipping invalid plugin: "+err.Error())
			continue
		}
		manifests = append(manifests, p.Manifest)
	}
	if len(manifests) == 0 {
		return nil, nil, fmt.Errorf("no valid plugins in %s", catalog.Root())
	}

	names, err := wizard.SelectPlugins(wizard.ChoicesFrom(manifests), opts.plugins)
	if err != nil {
		return nil, nil, err
	}
	order, err := resolver.Resolve(names, catalog.Dependencies)
	if err != nil {
		return nil, nil, err
	}

	selected := make([]*plugin.Manifest, 0, len(order))
	for _, name := range order {
		p, err := catalog.Get(name)
		if err != nil {
			return nil, nil, err
		}
		selected = append(selected, p.Manifest)
	}
	answers, err := wizard.AskPrompts(selected, template.FromMap(opts.paths))
	if err != nil {
		return nil, nil, err
	}

	ok, err := wizard.ConfirmInstall(order, opts.root)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}
	return names, answers, nil
}
