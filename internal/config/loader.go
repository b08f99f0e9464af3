package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config.yaml"

// Load reads the file named by CONFIG_PATH (default ./config.yaml) and then
// the environment; ENV wins over YAML, YAML over env-default tags. A missing
// default file is not an error: ENV and defaults are used alone.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || path == "" {
		cfg, err := LoadFile(defaultConfigPath)
		if errors.Is(err, os.ErrNotExist) {
			return loadEnv()
		}
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile reads one YAML file plus the environment. A relative toc.dir is
// taken relative to the file, so a config can sit next to its corpus.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if _, fromEnv := os.LookupEnv("TOC_DIR"); !fromEnv && cfg.TOC.Dir != "" && !filepath.IsAbs(cfg.TOC.Dir) {
		cfg.TOC.Dir = filepath.Join(filepath.Dir(path), cfg.TOC.Dir)
	}

	return validated(&cfg)
}

func loadEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return validated(&cfg)
}

func validated(cfg *Config) (*Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
