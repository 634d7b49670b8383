package telemetry

import (
	"time"

	"codeberg.org/mutker/roverdash/internal/errors"
)

const (
	defaultAddr         = "localhost:6379"
	defaultKey          = "roverdash"
	defaultDialTimeout  = 5 * time.Second
	defaultWriteTimeout = 2 * time.Second
)

type Config struct {
	Enabled bool
	Addr    string
	// Key names both the hash holding the latest values and the channel
	// each cycle result is published on
	Key          string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         defaultAddr,
		Key:          defaultKey,
		DialTimeout:  defaultDialTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return errFactory.New(ErrInvalidAddr)
	}
	if c.Key == "" {
		return errFactory.New(ErrInvalidKey)
	}
	return nil
}
