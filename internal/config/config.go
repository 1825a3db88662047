// Package config loads pyquality's runtime configuration from file, environment,
// and defaults, mirroring the teacher's viper/mapstructure-based config layer.
package config

import "errors"

// Config is the top-level configuration struct for pyquality.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Operators OperatorsConfig `mapstructure:"operators"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Walker    WalkerConfig    `mapstructure:"walker"`
	Store     StoreConfig     `mapstructure:"store"`
}

// OperatorsConfig selects which metric families the pipeline computes.
type OperatorsConfig struct {
	Raw             bool `mapstructure:"raw"`
	Cyclomatic      bool `mapstructure:"cyclomatic"`
	Halstead        bool `mapstructure:"halstead"`
	Maintainability bool `mapstructure:"maintainability"`
	NoAssert        bool `mapstructure:"no_assert"`
}

// PipelineConfig holds per-revision resource knobs.
type PipelineConfig struct {
	Workers               int  `mapstructure:"workers"`
	MultiStringAsComment  bool `mapstructure:"multi_string_as_comment"`
	SkipUnchangedFiles    bool `mapstructure:"skip_unchanged_files"`
	AnalysisCacheEntries  int  `mapstructure:"analysis_cache_entries"`
}

// WalkerConfig holds source walker knobs (component A's contract).
type WalkerConfig struct {
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
	SkipDirPatterns []string `mapstructure:"skip_dir_patterns"`
	IncludeNotebooks bool    `mapstructure:"include_notebooks"`
}

// StoreConfig holds columnar store knobs (component I).
type StoreConfig struct {
	Path        string `mapstructure:"path"`
	MaxRevisions int   `mapstructure:"max_revisions"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("pipeline.workers must be non-negative")
	// ErrInvalidAnalysisCacheEntries indicates a negative cache size.
	ErrInvalidAnalysisCacheEntries = errors.New("pipeline.analysis_cache_entries must be non-negative")
	// ErrInvalidMaxRevisions indicates a negative revision cap.
	ErrInvalidMaxRevisions = errors.New("store.max_revisions must be non-negative")
	// ErrEmptyStorePath indicates the store path was not configured.
	ErrEmptyStorePath = errors.New("store.path must not be empty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Pipeline.AnalysisCacheEntries < 0 {
		return ErrInvalidAnalysisCacheEntries
	}

	if c.Store.MaxRevisions < 0 {
		return ErrInvalidMaxRevisions
	}

	if c.Store.Path == "" {
		return ErrEmptyStorePath
	}

	return nil
}
