package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project configuration file looked up in the project root.
const FileName = ".distcheck.yaml"

// StateDirName is the per-project state directory (run history).
const StateDirName = ".distcheck"

// Config holds the smoke-test configuration for one project.
type Config struct {
	// ProjectDir is the absolute project root. Not read from YAML.
	ProjectDir string `yaml:"-"`

	// RequiredFiles are checked in order, relative to ProjectDir.
	RequiredFiles []string `yaml:"required_files"`

	EnvFile     string `yaml:"env_file"`
	EnvTemplate string `yaml:"env_template"`

	InstallCommand string `yaml:"install_command"`
	BuildCommand   string `yaml:"build_command"`

	// OutputDir is where the build tool deposits the static bundle.
	OutputDir string `yaml:"output_dir"`
	// EntryFile is the HTML entry point inside OutputDir.
	EntryFile string `yaml:"entry_file"`

	// PolicyMarker and TagMarker must both appear in the entry file to trigger
	// the embedded-policy warning.
	PolicyMarker string `yaml:"policy_marker"`
	TagMarker    string `yaml:"tag_marker"`

	ScaffoldFile string `yaml:"scaffold_file"`
	ScaffoldPort int    `yaml:"scaffold_port"`

	// CommandTimeout bounds each external command. Zero waits forever.
	CommandTimeout Duration `yaml:"command_timeout"`

	// HistoryLimit caps the number of stored run reports.
	HistoryLimit int `yaml:"history_limit"`

	// Registry is the key under which a registry token is stored.
	Registry string `yaml:"registry"`
}

// Duration is a time.Duration that unmarshals from strings like "90s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the built-in configuration for a Vite + npm project.
func Default() *Config {
	return &Config{
		RequiredFiles:  []string{"package.json", "vite.config.ts", "index.html", ".env.example"},
		EnvFile:        ".env",
		EnvTemplate:    ".env.example",
		InstallCommand: "npm ci --include=dev",
		BuildCommand:   "npm run build",
		OutputDir:      "dist",
		EntryFile:      "index.html",
		PolicyMarker:   "Content-Security-Policy",
		TagMarker:      "<meta",
		ScaffoldFile:   "test_server.py",
		ScaffoldPort:   4173,
		HistoryLimit:   20,
		Registry:       "registry.npmjs.org",
	}
}

// Load returns the configuration for projectDir. The defaults are overlaid
// with configPath when given, otherwise with projectDir/.distcheck.yaml if it
// exists, and finally with DISTCHECK_* environment variables.
func Load(projectDir, configPath string) (*Config, error) {
	if projectDir == "" {
		projectDir = "."
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	cfg := Default()
	cfg.ProjectDir = abs

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(abs, FileName)
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err) && !explicit:
		// no project config, defaults apply
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays DISTCHECK_* environment variables.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DISTCHECK_INSTALL_COMMAND")); v != "" {
		cfg.InstallCommand = v
	}
	if v := strings.TrimSpace(os.Getenv("DISTCHECK_BUILD_COMMAND")); v != "" {
		cfg.BuildCommand = v
	}
	if v := strings.TrimSpace(os.Getenv("DISTCHECK_OUTPUT_DIR")); v != "" {
		cfg.OutputDir = v
	}
}

// Validate rejects configurations the smoke run cannot execute.
func (c *Config) Validate() error {
	if len(c.RequiredFiles) == 0 {
		return fmt.Errorf("config: required_files must not be empty")
	}
	for _, f := range c.RequiredFiles {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("config: required_files contains an empty path")
		}
	}
	if strings.TrimSpace(c.InstallCommand) == "" {
		return fmt.Errorf("config: install_command must not be empty")
	}
	if strings.TrimSpace(c.BuildCommand) == "" {
		return fmt.Errorf("config: build_command must not be empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("config: output_dir must not be empty")
	}
	if c.ScaffoldPort <= 0 || c.ScaffoldPort > 65535 {
		return fmt.Errorf("config: scaffold_port %d out of range", c.ScaffoldPort)
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("config: command_timeout must not be negative")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("config: history_limit must not be negative")
	}
	return nil
}

// Path resolves a project-relative path against ProjectDir. Absolute paths
// are returned unchanged.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.ProjectDir, filepath.FromSlash(rel))
}

// StateDir returns the .distcheck/ directory for the project.
func (c *Config) StateDir() string {
	return filepath.Join(c.ProjectDir, StateDirName)
}

// ProjectExists reports whether ProjectDir is an existing directory.
func (c *Config) ProjectExists() bool {
	info, err := os.Stat(c.ProjectDir)
	return err == nil && info.IsDir()
}

// SecretsDir returns the per-user directory for the secrets file fallback
// (~/.config/distcheck on Linux). It is never inside a project.
func SecretsDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "distcheck"), nil
}

// Timeout returns CommandTimeout as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.CommandTimeout)
}
