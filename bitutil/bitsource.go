package bitutil

import (
	"errors"
	"fmt"
)

// ErrShortRead is returned when more bits are requested than remain.
var ErrShortRead = errors.New("bitutil: not enough bits")

// BitSource reads an arbitrary number of bits at a time from a byte slice,
// most significant bit of the first byte first. Reads past the end fail
// instead of panicking, so decoders can treat a truncated stream as a
// format error.
type BitSource struct {
	data []byte
	pos  int // absolute bit position
}

// NewBitSource returns a cursor positioned at the first bit of data.
func NewBitSource(data []byte) *BitSource {
	return &BitSource{data: data}
}

// ByteOffset is the index of the byte holding the next bit.
func (s *BitSource) ByteOffset() int { return s.pos / 8 }

// BitOffset is the index of the next bit within its byte.
func (s *BitSource) BitOffset() int { return s.pos % 8 }

// Available is the number of unread bits.
func (s *BitSource) Available() int { return 8*len(s.data) - s.pos }

// ReadBits consumes n bits (1 to 32) and returns them right-aligned.
func (s *BitSource) ReadBits(n int) (int, error) {
	if n < 1 || n > 32 {
		return 0, fmt.Errorf("bitutil: cannot read %d bits at once", n)
	}
	if n > s.Available() {
		return 0, fmt.Errorf("%w: want %d, have %d", ErrShortRead, n, s.Available())
	}
	result := 0
	for n > 0 {
		offset := s.pos % 8
		take := min(8-offset, n)
		shift := 8 - offset - take
		chunk := (int(s.data[s.pos/8]) >> uint(shift)) & (1<<uint(take) - 1)
		result = result<<uint(take) | chunk
		s.pos += take
		n -= take
	}
	return result, nil
}
