package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Broker  BrokerConfig
	Mail    MailConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	Backend       string // sqlite | mongo
	DataDir       string
	Key           string
	MongoURI      string
	MongoDatabase string
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

// BrokerConfig enables RabbitMQ change events when URL is set.
type BrokerConfig struct {
	URL   string
	Queue string
}

// MailConfig enables the alert digest when Host is set.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4300,
		},
		Storage: StorageConfig{
			Backend:       "sqlite",
			DataDir:       defaultDataDir(),
			Key:           "soft_rh_db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "softrh",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Broker: BrokerConfig{
			Queue: "softrh.changes",
		},
		Mail: MailConfig{
			Port: 587,
			From: "softrh@localhost",
		},
	}
}

// Load reads configuration in increasing precedence: defaults, the JSON file
// at $XDG_CONFIG_HOME/softrh/config.json, a .env file in the working
// directory, and SOFTRH_* environment variables. Values from .env never
// replace variables already set in the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return loadWith(newPlatformBackend(), NewKeychain())
}

// keychain abstracts secret lookup for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadFromPath(path string, kc keychain) (Config, error) {
	return loadWith(newFileBackend(path), kc)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Mail.Password == "" {
		if pw, err := kc.Get(keychainService, "mail_password"); err == nil && pw != "" {
			cfg.Mail.Password = pw
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case "sqlite":
	case "mongo":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("missing required config: storage.mongo_uri. " +
				"Set it via environment variable SOFTRH_STORAGE_MONGO_URI")
		}
	default:
		return fmt.Errorf("invalid config: storage.backend must be sqlite or mongo, got %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("missing required config: storage.key")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
