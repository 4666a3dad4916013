package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const FileName = "jobwatch.yml"

// EnsureUserConfig returns the config path inside dataDir, creating the file
// on first use from the template at defaultPath (or from Default() when the
// template is absent). An existing file is never touched.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, FileName)

	if _, err := os.Stat(userPath); err == nil {
		return userPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	tmpl, err := os.ReadFile(defaultPath)
	if errors.Is(err, os.ErrNotExist) || defaultPath == "" {
		return userPath, SaveAtomic(userPath, Default())
	}
	if err != nil {
		return "", err
	}

	// the template keeps its comments, so it is copied rather than re-encoded
	var probe Config
	if err := yaml.Unmarshal(tmpl, &probe); err != nil {
		return "", fmt.Errorf("config template %s: %w", defaultPath, err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	tmp := userPath + ".tmp"
	if err := os.WriteFile(tmp, tmpl, 0o644); err != nil {
		return "", err
	}
	return userPath, os.Rename(tmp, userPath)
}
