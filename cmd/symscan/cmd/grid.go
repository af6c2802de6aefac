package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

func (a *app) gridCommand() *cobra.Command {
	var (
		format       string
		set, unset   string
		scale, quiet int
	)
	cmd := &cobra.Command{
		Use:   "grid <file>",
		Short: "Decode a symbol drawn as a text grid",
		Long: `Decode a symbol written as text, one line per module row, each module
drawn with the --set or --unset string. The grid is rendered with a quiet
zone and read with pure-barcode extraction, so it must be an upright,
undistorted symbol. PDF417 has no pure path and goes through its detector.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				return errors.New("--format is required")
			}
			f, err := symscan.ParseFormat(format)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			grid, err := bitutil.ParseStringMatrix(string(data), set, unset)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			reader, err := symscan.NewReader(f)
			if err != nil {
				return err
			}
			opts, err := a.cfg.Decode.Options()
			if err != nil {
				return err
			}
			opts.PureBarcode = true
			opts.PossibleFormats = []symscan.Format{f}

			bitmap := symscan.NewBinaryBitmapFromMatrix(render(grid, scale, quiet))
			result, err := a.metrics.Wrap(f.String(), reader).Decode(bitmap, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := writeRecords(cmd.OutOrStdout(), a.cfg.Output.Format, []record{newRecord(args[0], 0, result)}); err != nil {
				return err
			}
			return a.finish()
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "symbology of the grid (required)")
	cmd.Flags().StringVar(&set, "set", "X ", "text of a dark module")
	cmd.Flags().StringVar(&unset, "unset", "  ", "text of a light module")
	cmd.Flags().IntVar(&scale, "scale", 3, "pixels per module when rendering")
	cmd.Flags().IntVar(&quiet, "quiet-zone", 4, "light modules around the symbol")
	return cmd
}

// render draws grid scale pixels per module inside quiet light modules.
func render(grid *bitutil.BitMatrix, scale, quiet int) *bitutil.BitMatrix {
	scale = max(scale, 1)
	quiet = max(quiet, 0)
	out := bitutil.NewBitMatrixWithSize((grid.Width()+2*quiet)*scale, (grid.Height()+2*quiet)*scale)
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			if grid.Get(x, y) {
				_ = out.SetRegion((x+quiet)*scale, (y+quiet)*scale, scale, scale)
			}
		}
	}
	return out
}
