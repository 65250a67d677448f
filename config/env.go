package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvOandaToken = "PAPERTRADER_OANDA_TOKEN"
	EnvLogLevel   = "PAPERTRADER_LOG_LEVEL"
	EnvStorePath  = "PAPERTRADER_STORE_PATH"
)

// LoadDotEnv loads the given files (".env" when none) into the process
// environment. Missing files are ignored and existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides secrets and deployment paths from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvOandaToken); v != "" {
		c.Data.OandaToken = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
}
