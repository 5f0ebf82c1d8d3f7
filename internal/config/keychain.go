package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const keychainService = "softrh"

// Keychain reads and writes secrets that must not live in config.json.
type Keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

// NewKeychain returns the file-backed secret store in the data directory.
func NewKeychain() Keychain {
	return fileKeychain{path: secretsFilePath()}
}

func secretsFilePath() string {
	return filepath.Join(defaultDataDir(), "secrets.json")
}

// fileKeychain keeps secrets as {service: {account: value}} in a 0600 file.
type fileKeychain struct {
	path string
}

func (k fileKeychain) Get(service, account string) (string, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return "", fmt.Errorf("keychain not available: %w", err)
	}
	var secrets map[string]map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("parsing secrets file: %w", err)
	}
	svc, ok := secrets[service]
	if !ok {
		return "", fmt.Errorf("service %q not found", service)
	}
	val, ok := svc[account]
	if !ok {
		return "", fmt.Errorf("account %q not found in service %q", account, service)
	}
	return strings.TrimSpace(val), nil
}

func (k fileKeychain) Set(service, account, value string) error {
	var secrets map[string]map[string]string

	data, err := os.ReadFile(k.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &secrets); err != nil {
			return fmt.Errorf("parsing secrets file %s: %w", k.path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("reading secrets file: %w", err)
	}
	if secrets == nil {
		secrets = make(map[string]map[string]string)
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = value

	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(k.path, out, 0o600)
}

// GetAPIToken returns the bearer token guarding the local HTTP API.
// SOFTRH_API_TOKEN wins; otherwise a token is generated on first use and
// kept in the keychain.
func GetAPIToken(kc Keychain) (string, error) {
	if tok := os.Getenv("SOFTRH_API_TOKEN"); tok != "" {
		return tok, nil
	}
	if tok, err := kc.Get(keychainService, "api_token"); err == nil && tok != "" {
		return tok, nil
	}
	tok := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := kc.Set(keychainService, "api_token", tok); err != nil {
		return "", fmt.Errorf("storing api token: %w", err)
	}
	return tok, nil
}
