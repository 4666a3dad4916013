// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"jobwatch/internal/domain"
)

type SourcesFile struct {
	Sources     []domain.Source `yaml:"sources"`
	SearchTerms []string        `yaml:"search_terms"`
}

// OverlaySources replaces the board list (and terms, when given) from a
// separate sources file, so the list can be edited without touching settings.
func OverlaySources(cfg *Config, sourcesPath string) error {
	b, err := os.ReadFile(sourcesPath)
	if err != nil {
		// Missing sources file should not kill startup
		return nil
	}

	var sf SourcesFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return err
	}

	if len(sf.Sources) > 0 {
		cfg.Sources = sf.Sources
	}
	if len(sf.SearchTerms) > 0 {
		cfg.SearchTerms = sf.SearchTerms
	}
	return nil
}
