package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/internal/imageio"
)

func (a *app) pdfCommand() *cobra.Command {
	var pages string
	cmd := &cobra.Command{
		Use:   "pdf <file.pdf>",
		Short: "Decode the symbols in the images embedded in a PDF",
		Long: `Extract the images embedded in a PDF and decode each of them.

Only raster images stored in the document are scanned; vector graphics
and text are not rendered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := imageio.ExtractPDFImages(args[0], pages)
			if err != nil {
				return err
			}
			a.logger.Debug("extracted images", "file", args[0], "count", len(images))

			var records []record
			for _, pi := range images {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				results, err := a.decodeImage(cmd.Context(), pi.Image)
				if err != nil {
					a.logger.Debug("image had no symbol", "page", pi.Page, "index", pi.Index, "class", symscan.Classify(err))
					continue
				}
				for _, r := range results {
					records = append(records, newRecord(args[0], pi.Page, r))
				}
			}
			if err := writeRecords(cmd.OutOrStdout(), a.cfg.Output.Format, records); err != nil {
				return err
			}
			if err := a.finish(); err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("%s: no readable symbol in %d images", args[0], len(images))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pages, "pages", "", "pages to scan, e.g. 1-3,7 (default all)")
	return cmd
}
