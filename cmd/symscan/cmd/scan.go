package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/internal/imageio"
)

func (a *app) scanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image>...",
		Short: "Decode the symbols in image files",
		Long: `Decode the symbols in image files (PNG, JPEG, GIF, BMP, TIFF, WebP).

EXIF orientation is applied before decoding. The command fails if any
input holds no readable symbol; the others are still reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				records []record
				failed  int
			)
			for _, path := range args {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				results, err := a.scanFile(cmd, path)
				if err != nil {
					a.logger.Warn("no symbols decoded", "file", path, "class", symscan.Classify(err), "error", err)
					failed++
					continue
				}
				for _, r := range results {
					records = append(records, newRecord(path, 0, r))
				}
			}
			if err := writeRecords(cmd.OutOrStdout(), a.cfg.Output.Format, records); err != nil {
				return err
			}
			if err := a.finish(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs had no readable symbol", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) scanFile(cmd *cobra.Command, path string) ([]*symscan.Result, error) {
	img, err := imageio.Open(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("decoding", "file", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return a.decodeImage(cmd.Context(), img)
}
