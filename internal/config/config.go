// Package config loads the optional YAML settings file of the command-line tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/squanchy11/cryptor/internal/compress"
	"github.com/squanchy11/cryptor/internal/ecc"
	"github.com/squanchy11/cryptor/internal/flags"
	"github.com/squanchy11/cryptor/internal/raster"
)

// Config holds the settings that can be given in a file instead of on the command line.
// Command-line flags always win over the file.
type Config struct {
	Markers     string `yaml:"markers"`      // "derived" or "static"
	Policy      string `yaml:"policy"`       // "padded" or "layered"
	Compression string `yaml:"compression"`  // "none", "gzip" or "zstd"
	OutputLevel string `yaml:"output_level"` // "none", "steps", "info" or "debug"
	SecretFile  string `yaml:"secret_file"`  // relative paths are taken from the config file's directory

	// MaxCorrectableErrors is the BCH strength per chunk, 0 to turn error correction off.
	MaxCorrectableErrors int `yaml:"max_correctable_errors"`
}

// InvalidValueError is returned when a setting holds a value that is not recognized.
type InvalidValueError struct {
	Key, Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("The config value '%v' for '%v' is not valid.", e.Value, e.Key)
}

var outputLevels = []string{"none", "steps", "info", "debug"}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Markers:     flags.ModeDerived.String(),
		Policy:      raster.PolicyPadded.String(),
		Compression: compress.MethodNone.String(),
		OutputLevel: "steps",
	}
}

// Load reads filename over the defaults. An empty filename returns the defaults.
func Load(filename string) (*Config, error) {
	conf := Default()
	if len(filename) <= 0 {
		return conf, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parsing config '%v': %w", filename, err)
	}

	if len(conf.SecretFile) > 0 && !filepath.IsAbs(conf.SecretFile) {
		conf.SecretFile = filepath.Join(filepath.Dir(filename), conf.SecretFile)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Save writes c to filename as YAML, so it can be loaded again with Load.
func Save(filename string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0600)
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if !c.MarkerMode().IsValid() {
		return &InvalidValueError{"markers", c.Markers}
	}
	if !c.CapacityPolicy().IsValid() {
		return &InvalidValueError{"policy", c.Policy}
	}
	if _, err := compress.ParseMethod(c.Compression); err != nil {
		return &InvalidValueError{"compression", c.Compression}
	}
	if c.OutputLevelIndex() < 0 {
		return &InvalidValueError{"output_level", c.OutputLevel}
	}
	if c.MaxCorrectableErrors < 0 || c.MaxCorrectableErrors > ecc.MaxErrors {
		return &InvalidValueError{"max_correctable_errors", fmt.Sprint(c.MaxCorrectableErrors)}
	}
	return nil
}

func (c *Config) MarkerMode() flags.Mode {
	return flags.ParseMode(c.Markers)
}

func (c *Config) CapacityPolicy() raster.Policy {
	return raster.StringToPolicy(c.Policy)
}

// CompressionMethod returns the configured method, or MethodNone if it is not valid.
func (c *Config) CompressionMethod() compress.Method {
	m, _ := compress.ParseMethod(c.Compression)
	return m
}

// OutputLevelIndex returns the position of the output level in none, steps, info, debug, or -1.
func (c *Config) OutputLevelIndex() int {
	lvl := strings.ToLower(strings.TrimSpace(c.OutputLevel))
	for i, name := range outputLevels {
		if lvl == name {
			return i
		}
	}
	return -1
}
