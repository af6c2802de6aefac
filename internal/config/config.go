// Package config loads the settings shared by the symscan commands.
package config

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericlevine/symscan"
)

// Config is the effective configuration after defaults, the config file,
// SYMSCAN_* environment variables and command-line flags are merged.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose"`

	Decode DecodeConfig `mapstructure:"decode" yaml:"decode"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// DecodeConfig controls how images are searched.
type DecodeConfig struct {
	TryHarder    bool     `mapstructure:"try_harder" yaml:"try_harder"`
	PureBarcode  bool     `mapstructure:"pure_barcode" yaml:"pure_barcode"`
	AlsoInverted bool     `mapstructure:"also_inverted" yaml:"also_inverted"`
	Multi        bool     `mapstructure:"multi" yaml:"multi"`
	Formats      []string `mapstructure:"formats" yaml:"formats"`
	CharacterSet string   `mapstructure:"character_set" yaml:"character_set"`
	// Binarizer is "hybrid", "global" or "both"; "both" tries global
	// thresholding first and falls back to hybrid.
	Binarizer string `mapstructure:"binarizer" yaml:"binarizer"`
	// Rotate turns images clockwise by this many degrees before decoding.
	Rotate int `mapstructure:"rotate" yaml:"rotate"`
}

// OutputConfig controls how results are reported.
type OutputConfig struct {
	Format      string `mapstructure:"format" yaml:"format"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	outputFormats = []string{"text", "json", "yaml"}
	binarizers    = []string{"hybrid", "global", "both"}
	rotations     = []int{0, 90, 180, 270}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Decode: DecodeConfig{
			Binarizer: "both",
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("log_level %q: want one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if !slices.Contains(outputFormats, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("output.format %q: want one of %s", c.Output.Format, strings.Join(outputFormats, ", "))
	}
	if !slices.Contains(binarizers, strings.ToLower(c.Decode.Binarizer)) {
		return fmt.Errorf("decode.binarizer %q: want one of %s", c.Decode.Binarizer, strings.Join(binarizers, ", "))
	}
	if !slices.Contains(rotations, c.Decode.Rotate) {
		return fmt.Errorf("decode.rotate %d: want 0, 90, 180 or 270", c.Decode.Rotate)
	}
	if _, err := c.Decode.PossibleFormats(); err != nil {
		return fmt.Errorf("decode.formats: %w", err)
	}
	return nil
}

// PossibleFormats parses Formats. Entries may also be comma-separated lists,
// which is how a single flag or environment variable arrives.
func (d *DecodeConfig) PossibleFormats() ([]symscan.Format, error) {
	var out []symscan.Format
	for _, entry := range d.Formats {
		for _, name := range strings.Split(entry, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			f, err := symscan.ParseFormat(name)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// Options converts the decode settings into reader options.
func (d *DecodeConfig) Options() (*symscan.DecodeOptions, error) {
	formats, err := d.PossibleFormats()
	if err != nil {
		return nil, err
	}
	return &symscan.DecodeOptions{
		PureBarcode:     d.PureBarcode,
		TryHarder:       d.TryHarder,
		PossibleFormats: formats,
		CharacterSet:    d.CharacterSet,
		AlsoInverted:    d.AlsoInverted,
	}, nil
}

// YAML renders the configuration as a config file would hold it.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
