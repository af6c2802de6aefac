package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ericlevine/symscan"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad output", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"bad binarizer", func(c *Config) { c.Decode.Binarizer = "otsu" }, "decode.binarizer"},
		{"bad rotation", func(c *Config) { c.Decode.Rotate = 45 }, "decode.rotate"},
		{"bad format", func(c *Config) { c.Decode.Formats = []string{"qr", "ean13"} }, "decode.formats"},
		{"upper case is fine", func(c *Config) { c.LogLevel = "DEBUG"; c.Output.Format = "JSON" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestOptions(t *testing.T) {
	d := DecodeConfig{
		TryHarder:    true,
		AlsoInverted: true,
		Formats:      []string{"qr_code, pdf417", "", "QRCODE", "aztec"},
		CharacterSet: "ISO-8859-1",
	}
	opts, err := d.Options()
	require.NoError(t, err)
	assert.Equal(t, &symscan.DecodeOptions{
		TryHarder:       true,
		AlsoInverted:    true,
		PossibleFormats: []symscan.Format{symscan.FormatQRCode, symscan.FormatPDF417, symscan.FormatAztec},
		CharacterSet:    "ISO-8859-1",
	}, opts)
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	d := DefaultConfig()
	assert.Equal(t, d.LogLevel, cfg.LogLevel)
	assert.Equal(t, d.Output, cfg.Output)
	assert.Equal(t, d.Decode.Binarizer, cfg.Decode.Binarizer)
	assert.False(t, cfg.Decode.TryHarder)
	assert.Empty(t, cfg.Decode.Formats)
}

func TestLoadFilePrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scan.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log_level: warn
decode:
  try_harder: true
  formats: [qr_code, data_matrix]
  binarizer: hybrid
output:
  format: yaml
`), 0o600))
	t.Setenv("SYMSCAN_OUTPUT_FORMAT", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("log_level", flags.Lookup("log-level")))
	cfg, err := l.Load(file)
	require.NoError(t, err)

	assert.Equal(t, file, l.FileUsed())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Decode.TryHarder)
	assert.Equal(t, "hybrid", cfg.Decode.Binarizer)
	assert.Equal(t, []string{"qr_code", "data_matrix"}, cfg.Decode.Formats)
}

func TestLoadSearchPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "symscan.yaml"), []byte("decode:\n  rotate: 90\n"), 0o600))

	l := NewLoader()
	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Decode.Rotate)
	assert.Equal(t, "symscan.yaml", filepath.Base(l.FileUsed()))
}

func TestLoadErrors(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("output:\n  format: xml\n"), 0o600))
	_, err = NewLoader().Load(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")

	assert.Error(t, NewLoader().BindFlag("verbose", nil))
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Decode.Formats = []string{"aztec"}
	data, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "binarizer: both")

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, cfg, &back)
}

func TestSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, []string{".", "/xdg/symscan", "/etc/symscan"}, SearchPaths())
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
