// Package secrets resolves credentials such as the storage connection string.
package secrets

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
)

// Provider returns the secret stored under scope and key.
type Provider interface {
	GetSecret(scope, key string) (string, error)
}

// EnvName maps a scope/key pair to an environment variable name:
// ("datalakefs", "CONNECTION_STRING") -> "DATALAKEFS_CONNECTION_STRING".
func EnvName(scope, key string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToUpper(r)
			}
			return '_'
		}, s)
	}
	if scope == "" {
		return clean(key)
	}
	return clean(scope) + "_" + clean(key)
}

// EnvProvider reads secrets from the process environment.
type EnvProvider struct{}

func (EnvProvider) GetSecret(scope, key string) (string, error) {
	name := EnvName(scope, key)
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("secret %s/%s not found (environment variable %s not set)", scope, key, name)
	}
	return v, nil
}

// FileProvider reads secrets from a dotenv file without touching the environment.
type FileProvider struct {
	values map[string]string
}

func NewFileProvider(path string) (*FileProvider, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file '%s': %w", path, err)
	}
	return &FileProvider{values: values}, nil
}

func (p *FileProvider) GetSecret(scope, key string) (string, error) {
	name := EnvName(scope, key)
	v, ok := p.values[name]
	if !ok || v == "" {
		return "", fmt.Errorf("secret %s/%s not found (%s missing from secrets file)", scope, key, name)
	}
	return v, nil
}
