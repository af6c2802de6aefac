package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericlevine/symscan"
)

type point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// record is one decoded symbol as reported to the user.
type record struct {
	Source      string  `json:"source" yaml:"source"`
	Page        int     `json:"page,omitempty" yaml:"page,omitempty"`
	Format      string  `json:"format" yaml:"format"`
	Text        string  `json:"text" yaml:"text"`
	Symbology   string  `json:"symbology_identifier,omitempty" yaml:"symbology_identifier,omitempty"`
	ECLevel     string  `json:"ec_level,omitempty" yaml:"ec_level,omitempty"`
	Corrected   int     `json:"errors_corrected" yaml:"errors_corrected"`
	Orientation int     `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Points      []point `json:"points,omitempty" yaml:"points,omitempty"`
}

func newRecord(source string, page int, r *symscan.Result) record {
	rec := record{Source: source, Page: page, Format: r.Format.String(), Text: r.Text}
	rec.Symbology, _ = r.Metadata[symscan.MetadataSymbologyIdentifier].(string)
	rec.ECLevel, _ = r.Metadata[symscan.MetadataErrorCorrectionLevel].(string)
	rec.Corrected, _ = r.Metadata[symscan.MetadataErrorsCorrected].(int)
	rec.Orientation, _ = r.Metadata[symscan.MetadataOrientation].(int)
	for _, p := range r.Points {
		rec.Points = append(rec.Points, point{X: p.X, Y: p.Y})
	}
	return rec
}

// writeRecords renders records as text lines, a JSON array or a YAML
// sequence.
func writeRecords(w io.Writer, format string, records []record) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []record{}
		}
		return enc.Encode(records)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		for _, r := range records {
			source := r.Source
			if r.Page > 0 {
				source = fmt.Sprintf("%s#%d", source, r.Page)
			}
			if _, err := fmt.Fprintf(w, "%s: [%s] %s\n", source, r.Format, r.Text); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}
