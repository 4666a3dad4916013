package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "jobwatch"
)

// Names that Lookup is allowed to read from the keychain.
var Known = []string{
	"JOBWATCH_SMTP_PASSWORD",
	"SENHA_APP",
	"GOOGLE_SERVICE_ACCOUNT_CREDENTIALS",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"TELEGRAM_BOT_TOKEN",
}

// Lookup returns the environment value for name, falling back to the OS
// keychain. Missing secrets are the empty string.
func Lookup(name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	if !isKnown(name) {
		return ""
	}
	v, err := keyring.Get(KeyringService, name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func Set(name, value string) error {
	if !isKnown(name) {
		return errors.New("unknown secret name " + name)
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, name, value)
}

func Delete(name string) error {
	if !isKnown(name) {
		return errors.New("unknown secret name " + name)
	}
	err := keyring.Delete(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func isKnown(name string) bool {
	for _, k := range Known {
		if k == name {
			return true
		}
	}
	return false
}
