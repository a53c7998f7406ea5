// Package config is the CLI's plain-struct configuration, following
// the teacher's manager.Config/worker.Config convention: a literal
// struct populated from flags, with an optional YAML override file
// rather than a general env/viper framework.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything a session needs to run one invocation.
type Config struct {
	DataDir        string `yaml:"data_dir"`
	BlobBaseDir    string `yaml:"blob_base_dir"`
	SchedulerAddr  string `yaml:"scheduler_addr"`
	PrivilegeSeed  string `yaml:"privilege_seed"`
	MetricsOutPath string `yaml:"metrics_out_path"`
	LogLevel       string `yaml:"log_level"`
	LogJSON        bool   `yaml:"log_json"`
}

// Default returns the baseline configuration the CLI starts from
// before flags and an optional override file are applied.
func Default() Config {
	return Config{
		DataDir:       ".",
		BlobBaseDir:   ".",
		PrivilegeSeed: "T",
		LogLevel:      "info",
	}
}

// LoadOverride merges a YAML file's fields into cfg, leaving fields
// absent from the file untouched. Returns cfg unchanged if path is
// empty.
func LoadOverride(cfg Config, path string) (Config, error) {
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// EnvLogLevelFallback reads FAASTEN_LOG the way the teacher's source
// lineage read RUST_LOG: a fallback only consulted when no
// --log-level flag was given.
func EnvLogLevelFallback() (string, bool) {
	v := os.Getenv("FAASTEN_LOG")
	return v, v != ""
}
