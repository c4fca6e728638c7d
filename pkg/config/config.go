// Package config loads the settings shared by the wordbook client and
// server from WORDBOOK_* environment variables and an optional .env file.
// Command-line flags are applied on top by each command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "WORDBOOK_"

// Config holds runtime settings.
type Config struct {
	// APIURL is the store base URL the client talks to.
	APIURL string `env:"API_URL" envDefault:"http://127.0.0.1:8000"`
	// RequestTimeout bounds each store request.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	// LogFile receives client logs; the terminal belongs to the UI.
	LogFile string `env:"LOG_FILE" envDefault:"wordbook.log"`
	// BookmarkTag is the category the bookmark key opens.
	BookmarkTag string `env:"BOOKMARK_TAG" envDefault:"북마크"`
	// Timezone is used to present timestamps.
	Timezone string `env:"TIMEZONE" envDefault:"Asia/Seoul"`

	ListenAddr     string   `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8000"`
	DBPath         string   `env:"DB_PATH" envDefault:"wordbook.db"`
	DictPath       string   `env:"DICT_PATH"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads envFile when it exists (missing files are not an error) and
// then parses the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
