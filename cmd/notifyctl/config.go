package main

import (
	"errors"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/auth"
	"github.com/dmitrymomot/notifykit/pkg/config"
)

// Config is read from the environment (and ./.env when present).
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	APIURL string `env:"NOTIFY_API_URL,required"`
	WSURL  string `env:"NOTIFY_WS_URL,required"`

	Token      string        `env:"NOTIFY_TOKEN"`
	JWTSecret  string        `env:"NOTIFY_JWT_SECRET"`
	JWTSubject string        `env:"NOTIFY_JWT_SUBJECT" envDefault:"notifyctl"`
	JWTTTL     time.Duration `env:"NOTIFY_JWT_TTL" envDefault:"1h"`

	PageSize       int           `env:"NOTIFY_PAGE_SIZE" envDefault:"10"`
	RequestTimeout time.Duration `env:"NOTIFY_REQUEST_TIMEOUT" envDefault:"15s"`

	ReconnectBase     time.Duration `env:"NOTIFY_RECONNECT_BASE" envDefault:"1s"`
	ReconnectMax      time.Duration `env:"NOTIFY_RECONNECT_MAX" envDefault:"30s"`
	ReconnectAttempts int           `env:"NOTIFY_RECONNECT_ATTEMPTS" envDefault:"5"`
	Heartbeat         time.Duration `env:"NOTIFY_HEARTBEAT" envDefault:"25s"`
}

var errNoCredentials = errors.New("either NOTIFY_TOKEN or NOTIFY_JWT_SECRET must be set")

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// tokenProvider prefers a static token and falls back to minting one locally.
func (c Config) tokenProvider() (auth.TokenProvider, error) {
	if c.Token != "" {
		return auth.Static(c.Token), nil
	}
	if c.JWTSecret == "" {
		return nil, errNoCredentials
	}
	signer, err := auth.NewSigner(c.JWTSecret, c.JWTSubject, c.JWTTTL)
	if err != nil {
		return nil, err
	}
	return signer, nil
}
