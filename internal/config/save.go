package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config validation failed")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structErrors(cfg Config) []string {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	var errs []string
	for _, fe := range verrs {
		errs = append(errs, fmt.Sprintf("%s failed %q (value %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value()))
	}
	return errs
}

// fieldPath turns "Config.Scrape.Burst" into "scrape.burst".
func fieldPath(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}

func Validate(cfg Config) error {
	errs := structErrors(cfg)
	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalid, strings.Join(errs, "\n- "))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
