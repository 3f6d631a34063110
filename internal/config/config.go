// Package config loads mdmail settings for the preview server, delivery and
// logging from the environment and an optional .env file.
package config

import (
	"errors"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	// ErrNilPointer is returned when a nil pointer is provided to a loader.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)

// Config holds settings that are not part of the rendering style.
type Config struct {
	Addr           string        `env:"MDMAIL_ADDR" envDefault:"127.0.0.1:8025"`
	LogFormat      string        `env:"MDMAIL_LOG_FORMAT" envDefault:"text"`
	LogLevel       string        `env:"MDMAIL_LOG_LEVEL" envDefault:"info"`
	RenderRate     float64       `env:"MDMAIL_RENDER_RATE" envDefault:"10"`
	RenderBurst    int           `env:"MDMAIL_RENDER_BURST" envDefault:"20"`
	ReloadDebounce time.Duration `env:"MDMAIL_RELOAD_DEBOUNCE" envDefault:"150ms"`
	Preset         string        `env:"MDMAIL_PRESET" envDefault:"default"`
	Highlight      string        `env:"MDMAIL_HIGHLIGHT"`

	Delivery Delivery
}

// Delivery configures test sends. Without Postmark tokens messages are
// written to OutboxDir instead.
type Delivery struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"MDMAIL_SENDER_EMAIL"`
	ReplyTo              string `env:"MDMAIL_REPLY_TO"`
	OutboxDir            string `env:"MDMAIL_OUTBOX_DIR" envDefault:"outbox"`
	Tag                  string `env:"MDMAIL_TAG" envDefault:"mdmail-test"`
}

// UsePostmark reports whether both Postmark tokens are configured.
func (d Delivery) UsePostmark() bool {
	return d.PostmarkServerToken != "" && d.PostmarkAccountToken != ""
}

var dotenvLoaded sync.Once

// Load reads the process environment, after loading .env from the working
// directory if one exists.
func Load() (Config, error) {
	dotenvLoaded.Do(func() {
		// A missing .env file is not an error.
		_ = godotenv.Load()
	})
	var cfg Config
	if err := parse(&cfg, env.Options{}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom parses cfg from the given variables only, ignoring the process
// environment.
func LoadFrom(cfg *Config, vars map[string]string) error {
	if cfg == nil {
		return ErrNilPointer
	}
	if vars == nil {
		vars = map[string]string{}
	}
	return parse(cfg, env.Options{Environment: vars})
}

func parse(cfg *Config, opts env.Options) error {
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}
