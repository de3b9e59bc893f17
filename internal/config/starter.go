package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const starterHeader = `# pluginkit configuration
# Environment variables override these values, e.g. PLUGINKIT_PLUGINS_DIR.

`

// starterFile mirrors Config with yaml tags for writing.
type starterFile struct {
	PluginsDir  string            `yaml:"plugins_dir"`
	HostVersion string            `yaml:"host_version,omitempty"`
	Project     starterProject    `yaml:"project"`
	Paths       map[string]string `yaml:"paths,omitempty"`
	Log         starterLog        `yaml:"log"`
}

type starterProject struct {
	Root    string   `yaml:"root"`
	Plugins []string `yaml:"plugins"`
}

type starterLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Marshal renders cfg as a commented .pluginkit.yaml.
func Marshal(cfg *Config) ([]byte, error) {
	f := starterFile{
		PluginsDir:  cfg.PluginsDir,
		HostVersion: cfg.HostVersion,
		Project:     starterProject{Root: cfg.Project.Root, Plugins: cfg.Project.Plugins},
		Paths:       cfg.Paths,
		Log:         starterLog{Level: cfg.Log.Level, Format: cfg.Log.Format},
	}
	if f.Project.Plugins == nil {
		f.Project.Plugins = []string{}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append([]byte(starterHeader), data...), nil
}

// Starter returns the configuration `pluginkit init` writes.
func Starter(pluginsDir string, plugins []string, paths map[string]string) *Config {
	cfg := &Config{
		PluginsDir: pluginsDir,
		Project:    ProjectConfig{Plugins: plugins},
		Paths:      paths,
	}
	applyDefaults(cfg)
	return cfg
}
