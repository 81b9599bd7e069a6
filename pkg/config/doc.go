// Package config loads typed configuration from the process environment.
//
// It combines github.com/joho/godotenv (optional .env files) with
// github.com/caarlos0/env/v11 (struct tag parsing) and caches each parsed
// struct type, so repeated Load calls for the same type are cheap:
//
//	type ClientConfig struct {
//	    APIURL   string        `env:"NOTIFY_API_URL,required"`
//	    PageSize int           `env:"NOTIFY_PAGE_SIZE" envDefault:"10"`
//	    Timeout  time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"15s"`
//	}
//
//	var cfg ClientConfig
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// LoadEnv reads explicit .env files (later files override earlier ones);
// without arguments Load falls back to ./.env when present.
//
// ResetCache and ForceReload exist for tests that mutate the environment.
package config
