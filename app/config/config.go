// Package config loads the optional YAML suite definition. Flags cover the
// common cases, the file form is for monitor deployments where the whole
// suite setup lives next to the service.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// scenario set selectors
const (
	SetAll      = "all"
	SetMain     = "main"
	SetSubmenu  = "submenu"
	SetCategory = "category"
)

// Preflight mirrors conditions.Preflight thresholds in the file form
type Preflight struct {
	CPUBelow      int     `yaml:"cpu_below"`
	MemoryBelow   int     `yaml:"memory_below"`
	LoadAvgBelow  float64 `yaml:"load_avg_below"`
	DiskFreeAbove int     `yaml:"disk_free_above"`
	DiskFreePath  string  `yaml:"disk_free_path"`
}

// Notify holds delivery settings for run reports
type Notify struct {
	OnFailure    bool          `yaml:"on_failure"`
	OnCompletion bool          `yaml:"on_completion"`
	Destinations []string      `yaml:"destinations"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Config is the suite definition
type Config struct {
	Target        string   `yaml:"target"`
	ScenariosFile string   `yaml:"scenarios_file"` // empty means embedded default
	NegativeFile  string   `yaml:"negative_file"`  // empty means embedded default
	Set           string   `yaml:"set"`            // all, main, submenu or category
	Categories    []string `yaml:"categories"`     // for set: category
	Concurrency   int      `yaml:"concurrency"`
	Schedule      string   `yaml:"schedule"` // cron spec, empty means one-shot

	Preflight Preflight `yaml:"preflight"`
	Notify    Notify    `yaml:"notify"`
}

// Load reads and validates a YAML suite file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the suite definition and fills defaults, used for both
// the file form and the flags-built form.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target is required")
	}
	if c.Set == "" {
		c.Set = SetAll
	}
	switch c.Set {
	case SetAll, SetMain, SetSubmenu:
		if len(c.Categories) > 0 {
			return fmt.Errorf("categories only apply to set: category")
		}
	case SetCategory:
		if len(c.Categories) == 0 {
			return fmt.Errorf("set: category needs at least one category")
		}
	default:
		return fmt.Errorf("unknown set %q", c.Set)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency can't be negative")
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	return nil
}
