package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jobwatch/internal/config"
	"jobwatch/internal/logging"
	"jobwatch/internal/secrets"
)

const (
	defaultConfigPath = "config/jobwatch.yml"
	sourcesFileName   = "sources.yml"
)

func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if d := os.Getenv("JOBWATCH_DATA_DIR"); d != "" {
		return d
	}
	return "."
}

// loadConfig runs the whole configuration pipeline: bootstrap, file, sources
// overlay, environment, validation and credentials.
func loadConfig() (config.Config, *logging.Logger, error) {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return config.Config{}, nil, fmt.Errorf("create data dir: %w", err)
	}

	path := configPath
	if path == "" {
		p, err := config.EnsureUserConfig(dir, defaultConfigPath)
		if err != nil {
			return config.Config{}, nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := config.OverlaySources(&cfg, filepath.Join(dir, sourcesFileName)); err != nil {
		return cfg, nil, fmt.Errorf("sources overlay: %w", err)
	}
	config.ApplyEnv(&cfg, os.Getenv)

	cfg, v := config.NormalizeAndValidate(cfg)
	log := logging.New(cfg.Log.Level)
	for _, w := range v.Warnings {
		log.Warn("[config] " + w)
	}
	if !v.OK() {
		return cfg, log, fmt.Errorf("%w: %s", config.ErrInvalid, strings.Join(v.Errors, "; "))
	}

	cfg.History.Path = underDir(dir, cfg.History.Path)
	cfg.Journal.Path = underDir(dir, cfg.Journal.Path)
	cfg.Credentials = config.LoadCredentials(secrets.Lookup)

	log.Debug("[config] loaded", "path", path, "sources", len(cfg.Sources), "terms", len(cfg.SearchTerms))
	return cfg, log, nil
}

func underDir(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
