package config

import (
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/gamedex.yaml"
)

// DefaultImportSourceURLs are the top-100 datasets loaded by the populate
// endpoint when no sources are configured.
var DefaultImportSourceURLs = []string{
	"https://interview-marketing-eng-dev.s3.eu-west-1.amazonaws.com/android.top100.json",
	"https://interview-marketing-eng-dev.s3.eu-west-1.amazonaws.com/ios.top100.json",
}

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	ImportSourceURLs          []string      `koanf:"import_source_urls"`
	ImportTimeout             time.Duration `koanf:"import_timeout" default:"30s"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"3000"`
	StaticDir                 string        `koanf:"static_dir"`
}

// New loads the config file (if present) and layers environment variables on
// top of it. Env vars are the upper snake case version of the file keys.
func New() (*Config, error) {
	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file: %s", path)
		}
	}

	err := k.Load(env.Provider("", ".", strings.ToLower), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.DatabaseFilePath == "" {
		key := "DatabaseFilePath"
		return nil, errors.Errorf("missing required config: set %s or %s in the config file", strings.ToUpper(toSnakeCase(key)), toSnakeCase(key))
	}
	if len(cfg.ImportSourceURLs) == 0 {
		cfg.ImportSourceURLs = DefaultImportSourceURLs
	}

	return cfg, nil
}

// NewForTest returns a config pointed at an in-memory database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.DatabaseConnectRetryCount = 1
	cfg.DatabaseConnectRetryDelay = 0
	cfg.ServerHost = "127.0.0.1"
	cfg.ImportSourceURLs = DefaultImportSourceURLs
	return cfg
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
