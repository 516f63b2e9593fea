// Package config loads and validates the optional .parallelphpcs YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Default values for runner configuration.
const (
	DefaultTimeout   = 5 * time.Minute
	DefaultMaxOutput = 1 << 20 // 1 MB
	DefaultReport    = "full"
)

// File names searched for at the repository root, in order.
const (
	FileName        = ".parallelphpcs"
	GrumPHPFileName = "grumphp.yml"
	// GrumPHPTask is the task key read from grumphp.yml.
	GrumPHPTask = "phpcs_parallel"
)

// DefaultExtensions are linted when triggered_by is not configured.
var DefaultExtensions = []string{"php"}

// Config holds the parsed .parallelphpcs configuration.
type Config struct {
	Version      int         `yaml:"version"`
	RawTimeout   string      `yaml:"timeout"`    // e.g. "5m", "30s"
	RawMaxOutput int         `yaml:"max_output"` // bytes
	Tools        ToolsConfig `yaml:"tools"`
	PHPCS        LintConfig  `yaml:"phpcs"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{PHPCS: DefaultLintConfig()}
}

// Timeout returns the configured timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// ToolsConfig overrides how the linter and fixer are invoked.
// Each value is a shell-like command line, e.g. "php -d memory_limit=-1 vendor/bin/phpcs".
type ToolsConfig struct {
	PHPCS  string `yaml:"phpcs"`
	PHPCBF string `yaml:"phpcbf"`
}

// LintConfig is the phpcs option surface. It is built once per run.
type LintConfig struct {
	Standard            StringList  `yaml:"standard"`
	TabWidth            *int        `yaml:"tab_width" validate:"omitempty,min=1"`
	Encoding            string      `yaml:"encoding"`
	WhitelistPatterns   []string    `yaml:"whitelist_patterns"`
	IgnorePatterns      []string    `yaml:"ignore_patterns"`
	Sniffs              []string    `yaml:"sniffs"`
	Severity            *int        `yaml:"severity" validate:"omitempty,min=0"`
	ErrorSeverity       *int        `yaml:"error_severity" validate:"omitempty,min=0"`
	WarningSeverity     *int        `yaml:"warning_severity" validate:"omitempty,min=0"`
	TriggeredBy         []string    `yaml:"triggered_by" validate:"min=1,dive,required"`
	Report              *string     `yaml:"report"` // nil omits --report
	ReportWidth         *int        `yaml:"report_width" validate:"omitempty,min=1"`
	Exclude             []string    `yaml:"exclude"`
	ShowSniffsErrorPath bool        `yaml:"show_sniffs_error_path"`
	Parallel            Parallelism `yaml:"parallel"`
}

// DefaultLintConfig returns the option defaults. YAML is decoded on top of it,
// so absent keys keep these values.
func DefaultLintConfig() LintConfig {
	report := DefaultReport
	return LintConfig{
		TriggeredBy:         append([]string(nil), DefaultExtensions...),
		Report:              &report,
		ShowSniffsErrorPath: true,
		Parallel:            Count(1),
	}
}

// StringList decodes from either a YAML scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate reports every problem with the configuration at once.
// An invalid parallel setting wraps ErrInvalidConfiguration.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validate.Struct(&c.PHPCS); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				result = multierror.Append(result, fmt.Errorf("%w: phpcs.%s failed %q", ErrInvalidConfiguration, fe.Field(), constraint(fe)))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}
	if err := c.PHPCS.Parallel.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.RawTimeout != "" {
		if _, err := time.ParseDuration(c.RawTimeout); err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: timeout %q: %v", ErrInvalidConfiguration, c.RawTimeout, err))
		}
	}

	return result.ErrorOrNil()
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// LoadResult holds the parsed config and the discovered repository root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory containing composer.json; falls back to workspace
	Path     string // file the config was read from; empty when defaults are used
}

// Load reads the configuration from the repository root.
// The repository root is discovered by walking upward from workspace
// looking for composer.json. .parallelphpcs is preferred; grumphp.yml is
// consulted next. If neither exists, a default Config is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRepoRoot(workspace)
	if err != nil {
		// No composer.json found; use workspace as root.
		root = workspace
	}

	cfg, path, err := loadFile(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", displayName(path), err)
	}
	return &LoadResult{Config: cfg, RepoRoot: root, Path: path}, nil
}

func loadFile(root string) (*Config, string, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err == nil {
		cfg := Default()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", FileName, err)
		}
		return cfg, path, nil
	}
	if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("reading %s: %w", FileName, err)
	}

	path = filepath.Join(root, GrumPHPFileName)
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), "", nil
		}
		return nil, "", fmt.Errorf("reading %s: %w", GrumPHPFileName, err)
	}
	cfg, found, err := parseGrumPHP(data)
	if err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", GrumPHPFileName, err)
	}
	if !found {
		return Default(), "", nil
	}
	return cfg, path, nil
}

// grumphpFile is the subset of grumphp.yml we read.
type grumphpFile struct {
	GrumPHP struct {
		Tasks map[string]yaml.Node `yaml:"tasks"`
	} `yaml:"grumphp"`
}

func parseGrumPHP(data []byte) (*Config, bool, error) {
	var f grumphpFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, false, err
	}
	node, ok := f.GrumPHP.Tasks[GrumPHPTask]
	if !ok {
		return nil, false, nil
	}
	cfg := Default()
	if node.Kind == 0 || node.Tag == "!!null" {
		// "phpcs_parallel: ~" enables the task with defaults.
		return cfg, true, nil
	}
	if err := node.Decode(&cfg.PHPCS); err != nil {
		return nil, false, fmt.Errorf("task %s: %w", GrumPHPTask, err)
	}
	return cfg, true, nil
}

func displayName(path string) string {
	if path == "" {
		return "default configuration"
	}
	return filepath.Base(path)
}

// findRepoRoot walks upward from dir looking for a directory containing composer.json.
func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "composer.json")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("composer.json not found")
		}
		dir = parent
	}
}
