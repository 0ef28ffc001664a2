package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/markpatch/cmd/mdpatch/logger"
	"github.com/joshuapare/markpatch/pkg/preview"
)

// Config is the mdpatch configuration file.
type Config struct {
	Output     string        `yaml:"output"`      // output file; empty or "-" is stdout
	Debounce   time.Duration `yaml:"debounce"`    // watch debounce window
	Raw        string        `yaml:"raw"`         // escape | sanitize
	Images     string        `yaml:"images"`      // inline | placeholder
	HeadingIDs *bool         `yaml:"heading_ids"` // default true
	Linkify    bool          `yaml:"linkify"`
	LogLevel   string        `yaml:"log_level"`
	LogFile    string        `yaml:"log_file"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Debounce <= 0 {
		c.Debounce = 100 * time.Millisecond
	}
	if c.Raw == "" {
		c.Raw = preview.RawEscape.String()
	}
	if c.Images == "" {
		c.Images = preview.ImageInline.String()
	}
	if c.HeadingIDs == nil {
		on := true
		c.HeadingIDs = &on
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// sessionOptions builds preview options from the configuration.
func (c Config) sessionOptions() (preview.Options, error) {
	opts := preview.DefaultOptions()

	raw, err := preview.ParseRawMode(c.Raw)
	if err != nil {
		return opts, err
	}
	images, err := preview.ParseImageMode(c.Images)
	if err != nil {
		return opts, err
	}

	opts.Raw = raw
	opts.Images = images
	opts.Parser.Linkify = c.Linkify
	if c.HeadingIDs != nil {
		opts.HTML.HeadingIDs = *c.HeadingIDs
	}
	opts.Logger = logger.L
	return opts, nil
}
