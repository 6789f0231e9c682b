// Package config loads harness settings from defaults, an optional YAML
// file, and command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/invoke"
	"github.com/roach88/verdict/internal/report"
)

// Duration is a timeout in a config file. It is written either as a Go
// duration string ("1m30s") or as a whole number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timeout must be a duration or a number of seconds", value.Line)
	}
	if value.Tag == "!!int" {
		secs, err := strconv.ParseInt(value.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid timeout %q: %w", value.Line, value.Value, err)
		}
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid timeout: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// DefaultFile is loaded from the working directory when present.
const DefaultFile = ".verdict.yaml"

// Config holds harness settings.
type Config struct {
	// Subject is the path to the program under test.
	Subject string `yaml:"subject"`

	// Root is the directory searched for test files.
	Root string `yaml:"root"`

	// Pattern is the doublestar glob, relative to Root, selecting test files.
	Pattern string `yaml:"pattern"`

	// Encoding decodes subject output (e.g. "utf-8", "latin1").
	Encoding string `yaml:"encoding"`

	// Timeout kills a subject run after this long (0 = no timeout).
	Timeout Duration `yaml:"timeout"`

	// Policy selects matching rules: "final" or "legacy".
	Policy string `yaml:"policy"`

	// ArgMap maps directive keys to extra subject arguments.
	ArgMap map[string][]string `yaml:"arg_map"`

	// Color is "auto", "always" or "never".
	Color string `yaml:"color"`

	// DB is the history database path (empty = no history).
	DB string `yaml:"db"`
}

// Default returns the built-in settings. The encoding comes from the
// process locale.
func Default() *Config {
	enc := PreferredEncoding(os.Getenv)
	if _, err := invoke.LookupEncoding(enc); err != nil {
		enc = invoke.DefaultEncoding
	}
	return &Config{
		Subject:  "./millie",
		Root:     "./tests",
		Pattern:  harness.DefaultPattern,
		Encoding: enc,
		Timeout:  0,
		Policy:   string(harness.PolicyFinal),
		ArgMap:   invoke.DefaultArgMap(),
		Color:    string(report.ColorAuto),
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadOptional loads path if it exists and returns the defaults otherwise.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes YAML config data over the defaults.
//
// The document is checked against the schema before decoding, so unknown
// keys and out-of-range values are rejected. An explicit empty arg_map
// disables the default argument mapping.
func Parse(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := Default()
	cfg.ArgMap = nil

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if cfg.ArgMap == nil {
		cfg.ArgMap = invoke.DefaultArgMap()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that the schema cannot, such as encoding names.
func (c *Config) Validate() error {
	if c.Subject == "" {
		return errors.New("subject is required")
	}
	if c.Root == "" {
		return errors.New("root is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", time.Duration(c.Timeout))
	}
	if _, err := harness.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, ok := report.ParseColorMode(c.Color); !ok {
		return fmt.Errorf("invalid color %q: must be auto, always or never", c.Color)
	}
	if _, err := invoke.LookupEncoding(c.Encoding); err != nil {
		return err
	}
	return nil
}
