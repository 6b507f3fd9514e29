package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using `env`
// tags. Every knob of the review API is configured this way, with defaults
// matching the local compose setup so a bare `go run ./cmd/server` works.
//
// Example:
//
//	type Config struct {
//	    Port      int    `env:"HTTP_PORT" envDefault:"8080"`
//	    RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
//	    Container string `env:"AZURE_STORAGE_CONTAINER" envDefault:"onsenreview-images"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
