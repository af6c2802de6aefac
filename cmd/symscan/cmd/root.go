// Package cmd implements the symscan command tree.
package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericlevine/symscan"
	_ "github.com/ericlevine/symscan/aztec"
	_ "github.com/ericlevine/symscan/datamatrix"
	"github.com/ericlevine/symscan/internal/config"
	"github.com/ericlevine/symscan/internal/imageio"
	"github.com/ericlevine/symscan/internal/metrics"
	"github.com/ericlevine/symscan/multi"
	mqrcode "github.com/ericlevine/symscan/multi/qrcode"
	_ "github.com/ericlevine/symscan/pdf417"
	_ "github.com/ericlevine/symscan/qrcode"
)

// app carries the state one invocation shares between its commands.
type app struct {
	cfgFile   string
	logFormat string
	loader    *config.Loader
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewRootCommand builds a fresh command tree. Each call has its own
// configuration, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	a := &app{loader: config.NewLoader(), metrics: metrics.New()}
	root := &cobra.Command{
		Use:   "symscan",
		Short: "Decode 2D barcodes in images and PDFs",
		Long: `symscan locates and decodes QR Code, Data Matrix, Aztec and PDF417 symbols.

Settings come from built-in defaults, then symscan.yaml (., $XDG_CONFIG_HOME/symscan
or ~/.config/symscan, /etc/symscan), then SYMSCAN_* environment variables, then flags.

Examples:
  symscan scan label.png
  symscan scan --multi --output json shelf.jpg
  symscan pdf invoice.pdf --pages 1-2
  symscan grid --format qr_code symbol.txt`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: search for symscan.yaml)")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format (text, json)")
	pf.BoolP("verbose", "v", false, "verbose output (same as --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Bool("try-harder", false, "spend more time looking for symbols")
	pf.Bool("pure", false, "the image is a clean, upright render of one symbol")
	pf.Bool("multi", false, "report every symbol in the image, not just the first")
	pf.Bool("inverted", false, "also try light-on-dark symbols")
	pf.StringSlice("formats", nil, "symbologies to try (qr_code, data_matrix, aztec, pdf_417); default all")
	pf.String("charset", "", "character set for byte data without an ECI")
	pf.String("binarizer", "both", "thresholding: global, hybrid, or both")
	pf.Int("rotate", 0, "rotate images clockwise by 0, 90, 180 or 270 degrees first")
	pf.StringP("output", "o", "text", "output format (text, json, yaml)")
	pf.String("metrics-file", "", "write Prometheus metrics to this file when done")

	for key, flag := range map[string]string{
		"verbose":              "verbose",
		"log_level":            "log-level",
		"decode.try_harder":    "try-harder",
		"decode.pure_barcode":  "pure",
		"decode.multi":         "multi",
		"decode.also_inverted": "inverted",
		"decode.formats":       "formats",
		"decode.character_set": "charset",
		"decode.binarizer":     "binarizer",
		"decode.rotate":        "rotate",
		"output.format":        "output",
		"output.metrics_file":  "metrics-file",
	} {
		cobra.CheckErr(a.loader.BindFlag(key, pf.Lookup(flag)))
	}

	root.AddCommand(a.scanCommand(), a.pdfCommand(), a.gridCommand(), a.configCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loader.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(a.logFormat) {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return fmt.Errorf("unknown log format %q", a.logFormat)
	}
	a.logger = slog.New(handler)
	if used := a.loader.FileUsed(); used != "" {
		a.logger.Debug("loaded config", "file", used)
	}
	return nil
}

// finish writes the metrics file, if one is configured.
func (a *app) finish() error {
	if a.cfg.Output.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteFile(a.cfg.Output.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	a.logger.Debug("wrote metrics", "file", a.cfg.Output.MetricsFile)
	return nil
}

// decodeImage tries each binarization of img in turn and returns the
// symbols from the first that yields any.
func (a *app) decodeImage(ctx context.Context, img image.Image) ([]*symscan.Result, error) {
	img, err := imageio.Rotate(img, a.cfg.Decode.Rotate)
	if err != nil {
		return nil, err
	}
	bitmaps, err := imageio.Bitmaps(img, a.cfg.Decode.Binarizer)
	if err != nil {
		return nil, err
	}
	opts, err := a.cfg.Decode.Options()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i, bitmap := range bitmaps {
		results, err := a.decodeBitmap(ctx, bitmap, opts)
		if err == nil {
			return results, nil
		}
		a.logger.Debug("binarization found nothing", "attempt", i, "class", symscan.Classify(err))
		lastErr = err
	}
	return nil, lastErr
}

func (a *app) decodeBitmap(ctx context.Context, bitmap *symscan.BinaryBitmap, opts *symscan.DecodeOptions) ([]*symscan.Result, error) {
	formats := &symscan.MultiFormatReader{Logger: a.logger}
	if !a.cfg.Decode.Multi {
		result, err := a.metrics.Wrap(metrics.AnyFormat, formats).Decode(bitmap, opts)
		if err != nil {
			return nil, err
		}
		return []*symscan.Result{result}, nil
	}

	var reader symscan.MultipleReader
	if len(opts.PossibleFormats) == 1 && opts.PossibleFormats[0] == symscan.FormatQRCode {
		// one pass over all finder patterns, with structured append merging
		reader = &mqrcode.MultiReader{Logger: a.logger}
	} else {
		generic := multi.NewGenericMultipleBarcodeReader(formats)
		generic.Logger = a.logger
		reader = generic
	}
	return a.metrics.WrapMultiple(metrics.AnyFormat, reader).DecodeMultiple(ctx, bitmap, opts)
}
