package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// config holds rowdex-seed's runtime configuration. Environment variables
// are parsed with the ROWDEX_SEED_ prefix (e.g. ROWDEX_SEED_DB_PATH);
// flags override them when set.
type config struct {
	DBPath   string `envconfig:"DB_PATH" default:"rowdex.db"`
	RootDir  string `envconfig:"ROOT_DIR" default:"./rowdex-index"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func loadConfig() (*config, error) {
	var cfg config
	if err := envconfig.Process("ROWDEX_SEED", &cfg); err != nil {
		return nil, fmt.Errorf("rowdex-seed: load config: %w", err)
	}
	return &cfg, nil
}
