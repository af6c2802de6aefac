package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// FileName is the config file base name, without extension.
	FileName = "symscan"

	// EnvPrefix prefixes the environment variables, as in SYMSCAN_LOG_LEVEL
	// or SYMSCAN_DECODE_TRY_HARDER.
	EnvPrefix = "SYMSCAN"
)

// Loader merges defaults, a YAML file, environment variables and bound
// flags, in increasing order of precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with its own viper instance.
func NewLoader() *Loader {
	l := &Loader{v: viper.New()}
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
	l.setDefaults()
	return l
}

// BindFlag makes flag override key when it is set on the command line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: no such flag", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads file, or when file is empty the first symscan.yaml found on
// the search path. A missing default file is not an error.
func (l *Loader) Load(file string) (*Config, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		l.v.SetConfigFile(file)
	} else {
		l.v.SetConfigName(FileName)
		l.v.SetConfigType("yaml")
		for _, p := range SearchPaths() {
			l.v.AddConfigPath(p)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// FileUsed is the config file that was read, or "" if none.
func (l *Loader) FileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("decode.try_harder", d.Decode.TryHarder)
	l.v.SetDefault("decode.pure_barcode", d.Decode.PureBarcode)
	l.v.SetDefault("decode.also_inverted", d.Decode.AlsoInverted)
	l.v.SetDefault("decode.multi", d.Decode.Multi)
	l.v.SetDefault("decode.formats", d.Decode.Formats)
	l.v.SetDefault("decode.character_set", d.Decode.CharacterSet)
	l.v.SetDefault("decode.binarizer", d.Decode.Binarizer)
	l.v.SetDefault("decode.rotate", d.Decode.Rotate)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.metrics_file", d.Output.MetricsFile)
}

// SearchPaths lists the directories searched for symscan.yaml.
func SearchPaths() []string {
	paths := []string{"."}
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(dir, "symscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "symscan"))
	}
	return append(paths, "/etc/symscan")
}
