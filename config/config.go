// Package config holds the injected configuration value the orchestrator is
// constructed with. There is deliberately no process-wide configuration
// state: two orchestrators built from two different Config values in the
// same process never interfere.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the orchestrator-level configuration: parser limits, the
// table-name exception list, default relation confidences, and report
// pagination bounds.
type Config struct {
	MaxErrorsPerFile    int                `yaml:"max_errors_per_file"`
	TableNameExceptions []string           `yaml:"table_name_exceptions"`
	Concurrency         int                `yaml:"concurrency"`
	DefaultConfidence   map[string]float64 `yaml:"default_confidence"`
	ReportRowLimit      int                `yaml:"report_row_limit"`
}

// Default returns the baseline configuration: max_errors_per_file=100,
// table exceptions={"dual"}, one worker per CPU, the default per-relation
// confidence table, and a 200-row report default.
func Default() Config {
	return Config{
		MaxErrorsPerFile:    100,
		TableNameExceptions: []string{"dual"},
		Concurrency:         runtime.NumCPU(),
		DefaultConfidence: map[string]float64{
			"function-call": 0.85,
			"screen-open":   0.95,
			"event-trigger": 0.70,
			"data-grid-use": 0.90,
			"table-io":      0.90,
		},
		ReportRowLimit: 200,
	}
}

// Load reads a YAML configuration file and fills in any field left at its
// zero value from Default(): an empty path is not an error, it just yields
// the defaults. A path naming a file that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(buf, &loaded); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}

	if loaded.MaxErrorsPerFile > 0 {
		cfg.MaxErrorsPerFile = loaded.MaxErrorsPerFile
	}
	if len(loaded.TableNameExceptions) > 0 {
		cfg.TableNameExceptions = loaded.TableNameExceptions
	}
	if loaded.Concurrency > 0 {
		cfg.Concurrency = loaded.Concurrency
	}
	for k, v := range loaded.DefaultConfidence {
		cfg.DefaultConfidence[k] = v
	}
	if loaded.ReportRowLimit > 0 {
		cfg.ReportRowLimit = loaded.ReportRowLimit
	}

	return cfg, nil
}

// ClampRowLimit applies the documented 10-2000 row-limit range to a
// caller-supplied limit, falling back to the configured default when the
// caller passes zero.
func (c Config) ClampRowLimit(requested int) int {
	if requested <= 0 {
		requested = c.ReportRowLimit
	}
	if requested < 10 {
		return 10
	}
	if requested > 2000 {
		return 2000
	}
	return requested
}
