package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

type stubReader struct {
	result *symscan.Result
	err    error
}

func (s stubReader) Decode(*symscan.BinaryBitmap, *symscan.DecodeOptions) (*symscan.Result, error) {
	return s.result, s.err
}

type stubMulti []*symscan.Result

func (s stubMulti) DecodeMultiple(context.Context, *symscan.BinaryBitmap, *symscan.DecodeOptions) ([]*symscan.Result, error) {
	if len(s) == 0 {
		return nil, symscan.ErrNotFound
	}
	return s, nil
}

func bitmap() *symscan.BinaryBitmap {
	return symscan.NewBinaryBitmapFromMatrix(bitutil.NewBitMatrix(10))
}

func TestReaderCounts(t *testing.T) {
	m := New()
	ok := symscan.NewResult("x", nil, nil, symscan.FormatAztec)

	for _, r := range []*Reader{
		m.Wrap(AnyFormat, stubReader{result: ok}),
		m.Wrap(AnyFormat, stubReader{result: ok}),
		m.Wrap(AnyFormat, stubReader{err: symscan.ErrNotFound}),
		m.Wrap("QR_CODE", stubReader{err: fmt.Errorf("bad block: %w", symscan.ErrChecksum)}),
	} {
		_, _ = r.Decode(bitmap(), nil)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decodes.WithLabelValues("AZTEC", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodes.WithLabelValues(AnyFormat, "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodes.WithLabelValues("QR_CODE", "checksum")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.symbols))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))
}

func TestReaderPassesThrough(t *testing.T) {
	want := symscan.NewResult("y", nil, nil, symscan.FormatPDF417)
	got, err := New().Wrap(AnyFormat, stubReader{result: want}).Decode(bitmap(), nil)
	require.NoError(t, err)
	assert.Same(t, want, got)

	_, err = New().Wrap(AnyFormat, stubReader{err: symscan.ErrFormat}).Decode(bitmap(), nil)
	assert.ErrorIs(t, err, symscan.ErrFormat)
}

func TestMultipleReader(t *testing.T) {
	m := New()
	two := stubMulti{
		symscan.NewResult("a", nil, nil, symscan.FormatQRCode),
		symscan.NewResult("b", nil, nil, symscan.FormatQRCode),
	}
	results, err := m.WrapMultiple(AnyFormat, two).DecodeMultiple(context.Background(), bitmap(), nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	_, err = m.WrapMultiple(AnyFormat, stubMulti{}).DecodeMultiple(context.Background(), bitmap(), nil)
	assert.ErrorIs(t, err, symscan.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodes.WithLabelValues("QR_CODE", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodes.WithLabelValues(AnyFormat, "not_found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.symbols))
}

func TestWriteFile(t *testing.T) {
	m := New()
	_, _ = m.Wrap(AnyFormat, stubReader{err: symscan.ErrNotFound}).Decode(bitmap(), nil)

	path := filepath.Join(t.TempDir(), "symscan.prom")
	require.NoError(t, m.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `symscan_decode_total{format="any",outcome="not_found"} 1`)
	assert.Contains(t, string(data), "symscan_decode_duration_seconds_bucket")
}
