package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// KeyInfo is one line of `softrh config show`.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll lists every key with its effective value. Secrets only report
// whether they are set.
func ShowAll(cfg Config) []KeyInfo {
	out := make([]KeyInfo, 0, len(specs))
	for _, s := range specs {
		v := fmt.Sprint(s.extract(cfg))
		if s.secret {
			v = "(not set)"
			if s.extract(cfg) != "" {
				v = "(set)"
			}
		}
		out = append(out, KeyInfo{Key: s.key, EnvVar: s.env, Value: v})
	}
	return out
}

// SetKey validates value for key and stores it in config.json.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), key, value)
}

// Values accepted by `config set` for enumerated keys. Load rejects the
// same mistakes, but only on the next command.
var choices = map[string][]string{
	"storage.backend": {"sqlite", "mongo"},
	"log.level":       {"debug", "info", "warn", "warning", "error"},
	"log.format":      {"text", "json"},
}

func lookup(key string) (keySpec, bool) {
	i := slices.IndexFunc(specs, func(s keySpec) bool { return s.key == key })
	if i < 0 {
		return keySpec{}, false
	}
	return specs[i], true
}

func setKeyWith(b ConfigBackend, key, value string) error {
	s, ok := lookup(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		return fmt.Errorf("cannot set secret %q via config; use environment variable %s", key, s.env)
	}

	if s.typ == kInt {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		if strings.HasSuffix(key, ".port") && (n < 1 || n > 65535) {
			return fmt.Errorf("invalid port for %s: %d", key, n)
		}
		return b.SetInt(key, n)
	}

	value = strings.TrimSpace(value)
	if allowed, ok := choices[key]; ok && !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid value for %s: %q (one of %s)", key, value, strings.Join(allowed, ", "))
	}
	if value == "" && key == "storage.key" {
		return fmt.Errorf("storage.key cannot be empty")
	}
	return b.SetString(key, value)
}

// ValidKeys lists the keys `config set` accepts.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
