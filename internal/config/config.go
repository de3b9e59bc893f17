// Package config loads pluginkit's project configuration from
// .pluginkit.yaml, PLUGINKIT_* environment variables and bound flags.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/andywolf/pluginkit/internal/plugin"
	"github.com/andywolf/pluginkit/internal/template"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// FileName is the project configuration file, without extension.
const FileName = ".pluginkit"

// EnvPrefix prefixes every environment override, e.g. PLUGINKIT_PLUGINS_DIR.
const EnvPrefix = "PLUGINKIT"

// Config represents the full pluginkit configuration
type Config struct {
	// PluginsDir is the catalog directory holding one directory per plugin.
	PluginsDir string `mapstructure:"plugins_dir"`
	// HostVersion is checked against each manifest's compatibility range.
	HostVersion string            `mapstructure:"host_version"`
	Project     ProjectConfig     `mapstructure:"project"`
	Paths       map[string]string `mapstructure:"paths"`
	Log         LogConfig         `mapstructure:"log"`
}

// ProjectConfig describes the project being installed into
type ProjectConfig struct {
	Root    string   `mapstructure:"root"`
	Plugins []string `mapstructure:"plugins"`
}

// LogConfig controls the CLI logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

var defaults = map[string]any{
	"plugins_dir":  "plugins",
	"project.root": ".",
	"log.level":    "info",
	"log.format":   "console",
}

var variableName = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// SetDefaults registers defaults on v so environment variables can override
// keys that no config file sets.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load loads configuration from the global viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v and applies defaults
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.PluginsDir == "" {
		cfg.PluginsDir = defaults["plugins_dir"].(string)
	}

	if cfg.Project.Root == "" {
		cfg.Project.Root = defaults["project.root"].(string)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults["log.level"].(string)
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults["log.format"].(string)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PluginsDir == "" {
		return fmt.Errorf("plugins_dir is required")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.Log.Format)
	}

	if c.HostVersion != "" && !plugin.ValidVersion(c.HostVersion) {
		return fmt.Errorf("invalid host_version: %s", c.HostVersion)
	}

	seen := make(map[string]bool)
	for _, name := range c.Project.Plugins {
		if seen[name] {
			return fmt.Errorf("duplicate plugin in project.plugins: %s", name)
		}
		seen[name] = true
	}

	for key, dir := range c.Paths {
		if !variableName.MatchString(template.NormalizeKey(key)) {
			return fmt.Errorf("invalid path variable: %s", key)
		}
		if err := CheckRelative(dir); err != nil {
			return fmt.Errorf("invalid path for %s: %w", key, err)
		}
	}

	return nil
}

// Variables returns Paths as template variables.
func (c *Config) Variables() template.Context {
	return template.FromMap(c.Paths)
}

// CheckRelative rejects empty, absolute and parent-escaping directories.
// Custom paths are substituted into files under .claude and must stay
// inside the project.
func CheckRelative(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("path is empty")
	}
	if filepath.IsAbs(dir) || strings.HasPrefix(dir, "/") {
		return fmt.Errorf("%s is absolute", dir)
	}
	clean := filepath.ToSlash(filepath.Clean(dir))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%s leaves the project", dir)
	}
	return nil
}
