package emu

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("emu: invalid config")

// Config holds the runtime settings of an Emulator.
type Config struct {
	Workers   int    `yaml:"workers"`
	Seed      uint64 `yaml:"seed"`
	Draws     int    `yaml:"draws"`
	CacheSize int    `yaml:"cache_size"`
}

func DefaultConfig() Config {
	return Config{
		Workers: 1,
		Seed:    DefaultSeed,
		Draws:   DefaultDraws,
	}
}

// LoadConfig reads a YAML config. Missing keys keep their default.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseConfig decodes a YAML config. Missing keys keep their default.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	case c.Draws < 1:
		return fmt.Errorf("%w: draws must be at least 1, got %d", ErrInvalidConfig, c.Draws)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must not be negative, got %d", ErrInvalidConfig, c.CacheSize)
	}
	return nil
}

// Options returns the emulator options matching c.
func (c Config) Options() []Option {
	return []Option{
		WithWorkers(c.Workers),
		WithSeed(c.Seed),
		WithDraws(c.Draws),
		WithCache(c.CacheSize),
	}
}
