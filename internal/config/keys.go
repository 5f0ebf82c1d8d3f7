package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SOFTRH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.backend", typ: kString, env: "SOFTRH_STORAGE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Storage.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Backend },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SOFTRH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.key", typ: kString, env: "SOFTRH_STORAGE_KEY",
		apply:   func(cfg *Config, v any) { cfg.Storage.Key = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Key },
	},
	{
		key: "storage.mongo_uri", typ: kString, env: "SOFTRH_STORAGE_MONGO_URI",
		apply:   func(cfg *Config, v any) { cfg.Storage.MongoURI = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.MongoURI },
	},
	{
		key: "storage.mongo_database", typ: kString, env: "SOFTRH_STORAGE_MONGO_DATABASE",
		apply:   func(cfg *Config, v any) { cfg.Storage.MongoDatabase = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.MongoDatabase },
	},
	{
		key: "log.level", typ: kString, env: "SOFTRH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.format", typ: kString, env: "SOFTRH_LOG_FORMAT",
		apply:   func(cfg *Config, v any) { cfg.Log.Format = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Format },
	},
	{
		key: "broker.url", typ: kString, env: "SOFTRH_BROKER_URL",
		apply:   func(cfg *Config, v any) { cfg.Broker.URL = v.(string) },
		extract: func(cfg Config) any { return cfg.Broker.URL },
	},
	{
		key: "broker.queue", typ: kString, env: "SOFTRH_BROKER_QUEUE",
		apply:   func(cfg *Config, v any) { cfg.Broker.Queue = v.(string) },
		extract: func(cfg Config) any { return cfg.Broker.Queue },
	},
	{
		key: "mail.host", typ: kString, env: "SOFTRH_MAIL_HOST",
		apply:   func(cfg *Config, v any) { cfg.Mail.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.Host },
	},
	{
		key: "mail.port", typ: kInt, env: "SOFTRH_MAIL_PORT",
		apply:   func(cfg *Config, v any) { cfg.Mail.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Mail.Port },
	},
	{
		key: "mail.username", typ: kString, env: "SOFTRH_MAIL_USERNAME",
		apply:   func(cfg *Config, v any) { cfg.Mail.Username = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.Username },
	},
	{
		key: "mail.password", typ: kString, env: "SOFTRH_MAIL_PASSWORD",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Mail.Password = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.Password },
	},
	{
		key: "mail.from", typ: kString, env: "SOFTRH_MAIL_FROM",
		apply:   func(cfg *Config, v any) { cfg.Mail.From = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.From },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
