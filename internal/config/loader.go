package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".pyquality"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for pyquality settings.
const envPrefix = "PYQUALITY"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Default values applied before a config file or environment is consulted.
const (
	DefaultStorePath            = "pyquality.parquet"
	DefaultMaxRevisions         = 0
	DefaultAnalysisCacheEntries = 4096
	DefaultIncludeNotebooks     = false
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("operators.raw", true)
	viperCfg.SetDefault("operators.cyclomatic", true)
	viperCfg.SetDefault("operators.halstead", true)
	viperCfg.SetDefault("operators.maintainability", true)
	viperCfg.SetDefault("operators.no_assert", true)

	viperCfg.SetDefault("pipeline.workers", 0)
	viperCfg.SetDefault("pipeline.multi_string_as_comment", true)
	viperCfg.SetDefault("pipeline.skip_unchanged_files", false)
	viperCfg.SetDefault("pipeline.analysis_cache_entries", DefaultAnalysisCacheEntries)

	viperCfg.SetDefault("walker.exclude_patterns", []string{})
	viperCfg.SetDefault("walker.skip_dir_patterns", []string{})
	viperCfg.SetDefault("walker.include_notebooks", DefaultIncludeNotebooks)

	viperCfg.SetDefault("store.path", DefaultStorePath)
	viperCfg.SetDefault("store.max_revisions", DefaultMaxRevisions)
}
