// Package projectconfig provides the ProjectConfig struct and loader for
// .hirebench.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConfigFileName is the project configuration file looked up from the
// submission directory upwards.
const ConfigFileName = ".hirebench.yaml"

// EnvPrefix prefixes the environment overrides, e.g. HIREBENCH_MIN_SCORE or
// HIREBENCH_LINTER_BINARY.
const EnvPrefix = "HIREBENCH"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultLinterBinary  = "shellcheck"
	DefaultLinterTimeout = 30

	DefaultParallel = false
	DefaultWorkers  = 4

	DefaultReportFormat = "markdown"
	DefaultMinScore     = 0

	maxSearchDepth = 10
)

// DefaultLinterArgs are the arguments passed to the linter before the script path.
var DefaultLinterArgs = []string{"-S", "warning"}

// LinterConfig holds the shell linter invocation.
type LinterConfig struct {
	Binary  string   `mapstructure:"binary"`
	Args    []string `mapstructure:"args"`
	Timeout int      `mapstructure:"timeout"`
}

// HistoryConfig holds the run history store settings. An empty DSN disables
// history.
type HistoryConfig struct {
	DSN       string `mapstructure:"dsn"`
	Candidate string `mapstructure:"candidate"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ProjectConfig is the top-level configuration loaded from .hirebench.yaml.
type ProjectConfig struct {
	Keywords string        `mapstructure:"keywords"`
	Linter   LinterConfig  `mapstructure:"linter"`
	Parallel bool          `mapstructure:"parallel"`
	Workers  int           `mapstructure:"workers"`
	History  HistoryConfig `mapstructure:"history"`
	Report   ReportConfig  `mapstructure:"report"`
	MinScore int           `mapstructure:"min_score"`

	// Path is the config file that was read, empty when only defaults and
	// the environment apply.
	Path string `mapstructure:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Linter: LinterConfig{
			Binary:  DefaultLinterBinary,
			Args:    append([]string(nil), DefaultLinterArgs...),
			Timeout: DefaultLinterTimeout,
		},
		Parallel: DefaultParallel,
		Workers:  DefaultWorkers,
		Report: ReportConfig{
			Format: DefaultReportFormat,
		},
		MinScore: DefaultMinScore,
	}
}

// Load finds .hirebench.yaml by walking up from startDir (max 10 levels),
// applies HIREBENCH_* environment overrides and fills in missing fields with
// defaults. A .env file next to the config file (or in startDir when there
// is none) is loaded into the environment first. If no config file is found,
// returns defaults with a nil error. Real I/O errors are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	path, err := findConfigFile(startDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
	}

	envDir := startDir
	if path != "" {
		envDir = filepath.Dir(path)
	}
	return load(path, envDir)
}

// LoadFile reads an explicit config file. Unlike Load, a missing file is an error.
func LoadFile(path string) (*ProjectConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return load(path, filepath.Dir(path))
}

func load(path, envDir string) (*ProjectConfig, error) {
	if err := loadDotEnv(envDir); err != nil {
		return nil, err
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ConfigFileName, err)
	}
	cfg.Path = path

	// Paths in the file are relative to the file.
	if path != "" && v.InConfig("keywords") && cfg.Keywords != "" && !filepath.IsAbs(cfg.Keywords) {
		cfg.Keywords = filepath.Join(filepath.Dir(path), cfg.Keywords)
	}
	return cfg, nil
}

// newViper returns a viper instance seeded with the defaults and bound to
// the HIREBENCH_ environment.
func newViper() *viper.Viper {
	d := New()

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("keywords", d.Keywords)
	v.SetDefault("linter.binary", d.Linter.Binary)
	v.SetDefault("linter.args", d.Linter.Args)
	v.SetDefault("linter.timeout", d.Linter.Timeout)
	v.SetDefault("parallel", d.Parallel)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("history.dsn", d.History.DSN)
	v.SetDefault("history.candidate", d.History.Candidate)
	v.SetDefault("report.format", d.Report.Format)
	v.SetDefault("report.output", d.Report.Output)
	v.SetDefault("min_score", d.MinScore)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadDotEnv loads dir/.env without overriding variables that are already
// set. A missing file is not an error.
func loadDotEnv(dir string) error {
	p := filepath.Join(dir, ".env")
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %q: %w", p, err)
	}
	if err := godotenv.Load(p); err != nil {
		return fmt.Errorf("loading %q: %w", p, err)
	}
	return nil
}

// findConfigFile walks up from dir looking for .hirebench.yaml (max 10
// levels) and returns its path. Returns os.ErrNotExist if no config file is
// found. Propagates real I/O errors instead of silently swallowing them.
func findConfigFile(dir string) (string, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < maxSearchDepth; i++ {
		p := filepath.Join(dir, ConfigFileName)
		fi, err := os.Stat(p)
		if err == nil && !fi.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return "", os.ErrNotExist
}
