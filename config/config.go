// Package config loads the corpus CLI configuration.
//
// Configuration comes from an optional YAML file named with --config.
// Values not present in the file keep their defaults, and command-line
// flags override both.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meigma/corpus"
)

// Config is the corpus CLI configuration.
type Config struct {
	// Name identifies the corpus. It names the archive written by create.
	Name string `yaml:"name"`

	// Archive configures archive creation.
	Archive ArchiveConfig `yaml:"archive"`

	// Export configures archive export.
	Export ExportConfig `yaml:"export"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// ArchiveConfig configures where and how archives are written.
type ArchiveConfig struct {
	// Write enables archive creation. When false, create refuses to run.
	Write bool `yaml:"write"`

	// Dir is the directory archives are written to.
	Dir string `yaml:"dir"`

	// Compression is the compression name: zstd, gzip, lz4 or none.
	Compression string `yaml:"compression"`
}

// ExportConfig configures archive export.
type ExportConfig struct {
	// Dir is the default export destination.
	Dir string `yaml:"dir"`

	// MaxDecoderMemory bounds zstd decoder memory in bytes. Zero keeps the
	// decoder default.
	MaxDecoderMemory uint64 `yaml:"max_decoder_memory"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Archive: ArchiveConfig{
			Write:       true,
			Dir:         "archives",
			Compression: "zstd",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFile loads the configuration at path on top of the defaults.
// Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults and validates
// the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Compression(); err != nil {
		errs = append(errs, fmt.Errorf("archive.compression: %w", err))
	}
	if c.Archive.Write && c.Archive.Dir == "" {
		errs = append(errs, errors.New("archive.dir is required when archive.write is enabled"))
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// ArchiveDir returns the archive directory and true when archive writing
// is enabled, or "" and false otherwise.
func (c *Config) ArchiveDir() (string, bool) {
	if !c.Archive.Write {
		return "", false
	}
	return c.Archive.Dir, true
}

// Compression returns the configured archive compression.
func (c *Config) Compression() (corpus.Compression, error) {
	return corpus.ParseCompression(c.Archive.Compression)
}
