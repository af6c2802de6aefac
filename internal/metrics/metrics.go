// Package metrics counts and times decode attempts with Prometheus
// collectors kept on a private registry.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericlevine/symscan"
)

// AnyFormat labels failed attempts of a reader that tries several
// symbologies, where no single format applies.
const AnyFormat = "any"

// Metrics holds the decode collectors.
type Metrics struct {
	registry *prometheus.Registry
	decodes  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	symbols  prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symscan_decode_total",
				Help: "Decode attempts by symbology and outcome",
			},
			[]string{"format", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "symscan_decode_duration_seconds",
				Help:    "Time spent in one decode attempt",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"format"},
		),
		symbols: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "symscan_symbols_decoded_total",
			Help: "Symbols returned, counting each result of a multiple decode",
		}),
	}
	m.registry.MustRegister(m.decodes, m.duration, m.symbols)
	return m
}

// Registry exposes the private registry, for tests and exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes every metric to path in the node_exporter textfile
// format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(label string, start time.Time, results []*symscan.Result, err error) {
	if err == nil && len(results) > 0 {
		label = results[0].Format.String()
	}
	m.decodes.WithLabelValues(label, symscan.Classify(err)).Inc()
	m.duration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	m.symbols.Add(float64(len(results)))
}

// Reader instruments a symscan.Reader. Successful attempts are labelled
// with the decoded format, failures with label.
type Reader struct {
	m     *Metrics
	label string
	next  symscan.Reader
}

// Wrap instruments next.
func (m *Metrics) Wrap(label string, next symscan.Reader) *Reader {
	return &Reader{m: m, label: label, next: next}
}

// Decode implements symscan.Reader.
func (r *Reader) Decode(image *symscan.BinaryBitmap, opts *symscan.DecodeOptions) (*symscan.Result, error) {
	start := time.Now()
	result, err := r.next.Decode(image, opts)
	var results []*symscan.Result
	if result != nil {
		results = append(results, result)
	}
	r.m.observe(r.label, start, results, err)
	return result, err
}

// MultipleReader instruments a symscan.MultipleReader.
type MultipleReader struct {
	m     *Metrics
	label string
	next  symscan.MultipleReader
}

// WrapMultiple instruments next.
func (m *Metrics) WrapMultiple(label string, next symscan.MultipleReader) *MultipleReader {
	return &MultipleReader{m: m, label: label, next: next}
}

// DecodeMultiple implements symscan.MultipleReader.
func (r *MultipleReader) DecodeMultiple(ctx context.Context, image *symscan.BinaryBitmap, opts *symscan.DecodeOptions) ([]*symscan.Result, error) {
	start := time.Now()
	results, err := r.next.DecodeMultiple(ctx, image, opts)
	r.m.observe(r.label, start, results, err)
	return results, err
}

var (
	_ symscan.Reader         = (*Reader)(nil)
	_ symscan.MultipleReader = (*MultipleReader)(nil)
)
