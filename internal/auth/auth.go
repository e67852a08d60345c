// Package auth stores API keys in the OS keychain and resolves them from
// the environment.
package auth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const serviceName = "nyamanga"

// Account names a keychain entry.
type Account string

const (
	AccountAPI    Account = "api-key"
	AccountGemini Account = "gemini-api-key"
)

// Sources reported by Resolve.
const (
	SourceKeychain = "Keychain"
	SourceEnv      = "Environment Variable"
)

// ErrNotFound is returned when no key is stored.
var ErrNotFound = errors.New("no API key found")

// Accounts lists every entry managed by this package.
var Accounts = []Account{AccountAPI, AccountGemini}

func (a Account) Label() string {
	switch a {
	case AccountGemini:
		return "Gemini API key"
	default:
		return "API key"
	}
}

// GetKey reads the keychain entry for account.
func GetKey(account Account) (string, error) {
	key, err := keyring.Get(serviceName, string(account))
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(key) == "") {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// SaveKey stores key for account. Empty keys are rejected.
func SaveKey(account Account, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s is empty", account.Label())
	}
	return keyring.Set(serviceName, string(account), key)
}

// DeleteKey removes the entry. A missing entry is not an error.
func DeleteKey(account Account) error {
	err := keyring.Delete(serviceName, string(account))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasKey reports whether the keychain holds a key for account.
func HasKey(account Account) bool {
	_, err := GetKey(account)
	return err == nil
}

// EnvKey reads the key for account from the environment. The returned name
// is the variable that supplied it.
func EnvKey(account Account) (key, name string) {
	if account == AccountGemini {
		if v := strings.TrimSpace(os.Getenv(config.EnvGeminiAPIKey)); v != "" {
			return v, config.EnvGeminiAPIKey
		}
		return "", ""
	}
	return config.LookupKey()
}

// Resolve returns the key from the environment first, then the keychain
// when allowKeychain is set.
func Resolve(account Account, allowKeychain bool) (key, source string) {
	if key, _ := EnvKey(account); key != "" {
		return key, SourceEnv
	}
	if allowKeychain {
		if key, err := GetKey(account); err == nil {
			return key, SourceKeychain
		}
	}
	return "", ""
}

// PromptForAPIKey reads a key from the terminal without echo.
func PromptForAPIKey(out io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal")
	}
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
