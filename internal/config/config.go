// Package config loads the site configuration from YAML, with environment
// variable expansion and optional .env loading.
package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the site configuration.
type Config struct {
	Title        string             `yaml:"title"`
	SourceDir    string             `yaml:"source_dir"`
	OutputDir    string             `yaml:"output_dir"`
	ExampleIndex ExampleIndexConfig `yaml:"example_index"`
	Preview      PreviewConfig      `yaml:"preview,omitempty"`
}

// ExampleIndexConfig controls the example index extension. The extension is
// off by default; nothing is scanned or generated unless Enabled is set.
type ExampleIndexConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir is the directory for generated example pages, relative to the
	// source root. The whole directory is regenerated on every build.
	Dir string `yaml:"dir,omitempty"`

	// H1Char is the single character used to underline titles on generated
	// pages.
	H1Char string `yaml:"h1_char,omitempty"`
}

// PreviewConfig configures the preview server.
type PreviewConfig struct {
	Port    int  `yaml:"port,omitempty"`
	Metrics bool `yaml:"metrics,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env / .env.local if present; absence is not an error.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("load %s: %w", envPath, err)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "Documentation"
	}
	if c.SourceDir == "" {
		c.SourceDir = "./docs"
	}
	if c.OutputDir == "" {
		c.OutputDir = "./site"
	}
	if c.ExampleIndex.Dir == "" {
		c.ExampleIndex.Dir = "examples"
	}
	if c.ExampleIndex.H1Char == "" {
		c.ExampleIndex.H1Char = "#"
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = 1316
	}
}

func (c *Config) validate() error {
	if utf8.RuneCountInString(c.ExampleIndex.H1Char) != 1 {
		return fmt.Errorf("example_index.h1_char must be a single character, got %q", c.ExampleIndex.H1Char)
	}
	return nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Title:     "My Documentation Site",
		SourceDir: "./docs",
		OutputDir: "./site",
		ExampleIndex: ExampleIndexConfig{
			Enabled: true,
			Dir:     "examples",
			H1Char:  "#",
		},
		Preview: PreviewConfig{
			Port: 1316,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
