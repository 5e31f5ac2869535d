package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/techwire/internal/logger"
)

// EnvPrefix namespaces environment overrides, e.g. TECHWIRE_FETCH_LIMIT.
const EnvPrefix = "TECHWIRE"

// Config holds runtime settings for the harvester CLI.
type Config struct {
	LogLevel      string
	HTTPTimeout   time.Duration
	FetchLimit    int
	UserAgent     string
	ProvidersFile string
	NotifiersFile string
	HistoryPath   string
}

// Load reads settings from defaults, an optional config file and the
// environment, in increasing precedence. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("http_timeout", "15s")
	v.SetDefault("fetch_limit", 5)
	v.SetDefault("user_agent", "")
	v.SetDefault("providers_file", "")
	v.SetDefault("notifiers_file", "")
	v.SetDefault("history_path", "techwire.db")

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("http_timeout")))
	if err != nil {
		return nil, fmt.Errorf("http_timeout: %w", err)
	}

	cfg := &Config{
		LogLevel:      strings.TrimSpace(v.GetString("log_level")),
		HTTPTimeout:   timeout,
		FetchLimit:    v.GetInt("fetch_limit"),
		UserAgent:     strings.TrimSpace(v.GetString("user_agent")),
		ProvidersFile: strings.TrimSpace(v.GetString("providers_file")),
		NotifiersFile: strings.TrimSpace(v.GetString("notifiers_file")),
		HistoryPath:   strings.TrimSpace(v.GetString("history_path")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPTimeout <= 0 {
		return errors.New("http_timeout must be positive")
	}
	if c.FetchLimit <= 0 {
		return errors.New("fetch_limit must be positive")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}
