package runtimeconfig

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable LoadEnv reads.
const EnvPrefix = "COMPOSER_"

// LoadEnv loads dotenv files (missing files are skipped), then overlays
// COMPOSER_* variables on DefaultConfig. The result is normalized and
// validated.
func LoadEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("composer config: load %s: %w", file, err)
		}
	}
	return parse(env.Options{Prefix: EnvPrefix})
}

// LoadEnvMap is LoadEnv over an explicit variable set.
func LoadEnvMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("composer config: parse env: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
