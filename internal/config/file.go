package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/corey/dakota/internal/log"
	"gopkg.in/yaml.v3"
)

// Config file search paths (in order of precedence within each scope).
var projectConfigFiles = []string{"dakota.yaml", "dakota.yml", ".dakotarc"}

// globalConfigPath returns the global config file path (~/.dakota/config.yaml).
var globalConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dakota", "config.yaml")
}

// GlobalPath returns the global config file path, or "" when the home
// directory is unknown.
func GlobalPath() string { return globalConfigPath() }

// LoadConfig loads and merges dakota configuration from global and project config files.
//
// Precedence (later overrides earlier):
//  1. Global config (~/.dakota/config.yaml)
//  2. Project config (dakota.yaml, dakota.yml, .dakotarc in projectPath),
//     or the explicit file when one is given
//
// A missing explicit file or any malformed file is an error. CLI flags
// should be applied on top of the returned config by the caller.
func LoadConfig(projectPath, explicit string) (Config, error) {
	globalCfg, err := loadGlobalConfig()
	if err != nil {
		return Config{}, err
	}

	var projectCfg *Config
	if explicit != "" {
		projectCfg, err = loadConfigFile(explicit)
		if err == nil && projectCfg == nil {
			err = fmt.Errorf("config %s: %w", explicit, os.ErrNotExist)
		}
	} else {
		projectCfg, err = loadProjectConfig(projectPath)
	}
	if err != nil {
		return Config{}, err
	}

	cfg := mergeConfigs(globalCfg, projectCfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadProjectConfig finds and loads project-specific config.
func loadProjectConfig(projectPath string) (*Config, error) {
	for _, filename := range projectConfigFiles {
		configPath := filepath.Join(projectPath, filename)
		cfg, err := loadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			log.Debugf("Loaded project config: %s", configPath)
			return cfg, nil
		}
	}
	return nil, nil
}

// loadGlobalConfig loads the global config file.
func loadGlobalConfig() (*Config, error) {
	path := globalConfigPath()
	if path == "" {
		return nil, nil
	}
	cfg, err := loadConfigFile(path)
	if cfg != nil {
		log.Debugf("Loaded global config: %s", path)
	}
	return cfg, err
}

// loadConfigFile reads and parses a single config file using yaml.v3.
// Returns nil, nil if the file does not exist.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Sources = []string{path}
	return &cfg, nil
}

// mergeConfigs merges multiple configs with later values taking precedence.
// nil configs are skipped.
func mergeConfigs(configs ...*Config) Config {
	result := Config{}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		if len(cfg.IncludeDirs) > 0 {
			result.IncludeDirs = cfg.IncludeDirs
		}
		if cfg.Engine != "" {
			result.Engine = cfg.Engine
		}
		if cfg.Set != "" {
			result.Set = cfg.Set
		}
		if cfg.MaxSource > 0 {
			result.MaxSource = cfg.MaxSource
		}
		if cfg.LogLevel != "" {
			result.LogLevel = cfg.LogLevel
		}

		// Defines: merge (later overrides same names)
		if cfg.Defines != nil {
			if result.Defines == nil {
				result.Defines = make(map[string]string)
			}
			for k, v := range cfg.Defines {
				result.Defines[k] = v
			}
		}

		result.Sources = append(result.Sources, cfg.Sources...)
	}

	return result
}
