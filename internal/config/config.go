// Package config loads the engine's tunable settings: how aggressively
// extractor-cell history is pruned, the default unit new bounds are
// parsed in when they arrive as data rather than Go source, and log
// verbosity. Settings merge in layers: built-in defaults, an optional
// discovered workspace config file, then an explicit --config path.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"ltlcore/internal/timeline"
)

const (
	// WorkspaceDirName is the directory name for project-level config.
	WorkspaceDirName = ".ltlcore"
	// WorkspaceConfigFile is the config file name inside the workspace directory.
	WorkspaceConfigFile = "config.yaml"
	// MaxSearchDepth limits how many parent directories to walk when discovering a workspace.
	MaxSearchDepth = 10
)

// WorkspaceOptions controls workspace discovery behavior.
type WorkspaceOptions struct {
	// Disable skips workspace discovery entirely.
	Disable bool
	// ExplicitDir uses this directory as workspace root instead of walking up.
	ExplicitDir string
}

// Config captures the engine's tunable settings.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Log     LogConfig     `yaml:"log"`
}

// RuntimeConfig controls the `runtime` package's bookkeeping.
type RuntimeConfig struct {
	// HistoryRetention bounds how far behind the current time extractor
	// cell history is kept; a GC pass may prune anything older
	// (e.g. "30s"). An empty or unparseable value falls back to 30s in
	// RetentionDuration. Nothing prunes automatically: callers still call
	// Runtime.GC explicitly.
	HistoryRetention string `yaml:"history_retention"`
	// DefaultDurationUnit is the timeline.Unit a caller building formulas
	// from parsed data (rather than Go source calling timeline.Secs/Millis
	// directly) should assume when a bound arrives as a bare number.
	DefaultDurationUnit string `yaml:"default_duration_unit"`
}

// LogConfig controls internal/tracelog's verbosity and destination.
type LogConfig struct {
	// Verbosity is one of "quiet", "normal", "verbose".
	Verbosity string `yaml:"verbosity"`
	// File is the path tracelog appends rotated JSONL records to. Empty
	// disables file logging.
	File string `yaml:"file"`
}

// DefaultConfig provides reasonable defaults for local development.
func DefaultConfig() Config {
	return Config{
		Runtime: RuntimeConfig{
			HistoryRetention:    "30s",
			DefaultDurationUnit: "milliseconds",
		},
		Log: LogConfig{
			Verbosity: "normal",
			File:      "ltlcore.jsonl",
		},
	}
}

// Load reads YAML config from disk and overlays defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// DiscoverWorkspace walks up from startDir looking for a .ltlcore/config.yaml file.
// Returns the workspace root directory (parent of .ltlcore/) or empty string if not found.
func DiscoverWorkspace(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}

	for i := 0; i < MaxSearchDepth; i++ {
		candidate := filepath.Join(dir, WorkspaceDirName, WorkspaceConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// LoadWithWorkspace implements the multi-layer config merge:
//
//	DefaultConfig() <- .ltlcore/config.yaml <- explicit --config
//
// Returns the merged config and the workspace directory (empty if none found).
func LoadWithWorkspace(explicitConfig string, opts WorkspaceOptions) (Config, string, error) {
	cfg := DefaultConfig()
	wsDir := ""

	if !opts.Disable {
		var err error
		if opts.ExplicitDir != "" {
			candidate := filepath.Join(opts.ExplicitDir, WorkspaceDirName, WorkspaceConfigFile)
			if _, statErr := os.Stat(candidate); statErr == nil {
				wsDir = opts.ExplicitDir
			}
		} else {
			cwd, cwdErr := os.Getwd()
			if cwdErr != nil {
				return cfg, "", fmt.Errorf("getting working directory: %w", cwdErr)
			}
			wsDir, err = DiscoverWorkspace(cwd)
			if err != nil {
				return cfg, "", fmt.Errorf("discovering workspace: %w", err)
			}
		}

		if wsDir != "" {
			wsConfigPath := filepath.Join(wsDir, WorkspaceDirName, WorkspaceConfigFile)
			raw, err := os.ReadFile(wsConfigPath)
			if err != nil {
				return cfg, "", fmt.Errorf("reading workspace config %s: %w", wsConfigPath, err)
			}
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, "", fmt.Errorf("parsing workspace config %s: %w", wsConfigPath, err)
			}
			cfg = resolveWorkspacePaths(cfg, wsDir)
		}
	}

	if explicitConfig != "" {
		raw, err := os.ReadFile(explicitConfig)
		if err != nil {
			return cfg, wsDir, fmt.Errorf("reading explicit config %s: %w", explicitConfig, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, wsDir, fmt.Errorf("parsing explicit config %s: %w", explicitConfig, err)
		}
	}

	return cfg, wsDir, cfg.Validate()
}

// InitWorkspace creates a .ltlcore/ directory with a template config at root.
func InitWorkspace(root string) error {
	wsDir := filepath.Join(root, WorkspaceDirName)

	if _, err := os.Stat(wsDir); err == nil {
		return fmt.Errorf("workspace directory already exists: %s", wsDir)
	}

	if err := os.MkdirAll(wsDir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", wsDir, err)
	}

	templateConfig := `# ltlcore project-level configuration
# Values here override defaults but are overridden by an explicit --config.

# runtime:
#   history_retention: "30s"
#   default_duration_unit: "seconds"

# log:
#   verbosity: "verbose"
#   file: "data/ltlcore.jsonl"
`
	configPath := filepath.Join(wsDir, WorkspaceConfigFile)
	if err := os.WriteFile(configPath, []byte(templateConfig), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	gitignoreContent := "# Runtime data (rotated trace logs) - do not version control\ndata/\n"
	gitignorePath := filepath.Join(wsDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte(gitignoreContent), 0644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	return nil
}

// resolveWorkspacePaths resolves relative paths in the config against the workspace directory.
func resolveWorkspacePaths(cfg Config, wsDir string) Config {
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(wsDir, cfg.Log.File)
	}
	return cfg
}

// Validate ensures required fields hold recognized values.
func (c *Config) Validate() error {
	switch c.Log.Verbosity {
	case "quiet", "normal", "verbose":
	default:
		return fmt.Errorf("log.verbosity %q is not one of quiet, normal, verbose", c.Log.Verbosity)
	}
	switch c.Runtime.DefaultDurationUnit {
	case "milliseconds", "seconds":
	default:
		return fmt.Errorf("runtime.default_duration_unit %q is not one of milliseconds, seconds", c.Runtime.DefaultDurationUnit)
	}
	return nil
}

// RetentionDuration returns the parsed history retention window with a
// sane default when the config value is empty or unparseable.
func (r RuntimeConfig) RetentionDuration() time.Duration {
	if r.HistoryRetention == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(r.HistoryRetention)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// DefaultUnit returns the configured default timeline.Unit, defaulting
// to Milliseconds for any unrecognized value.
func (r RuntimeConfig) DefaultUnit() timeline.Unit {
	if r.DefaultDurationUnit == "seconds" {
		return timeline.Seconds
	}
	return timeline.Milliseconds
}
