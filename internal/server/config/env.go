package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DotEnvFile is read, when present, before the environment is parsed.
const DotEnvFile = ".env"

// portEnv mirrors the conventional PORT variable; when set it overrides the
// HTTP address with ":<PORT>".
type portEnv struct {
	Port string `env:"PORT"`
}

// parseEnv loads dotenvPath (if it exists) into the process environment
// without overriding variables that are already set, and then overlays every
// Config field whose variable is present.
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := env.Parse(config); err != nil {
		return err
	}

	var p portEnv
	if err := env.Parse(&p); err != nil {
		return err
	}
	if p.Port != "" {
		config.EndpointAddrHTTP = ":" + p.Port
	}

	return nil
}
