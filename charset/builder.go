package charset

import "strings"

// Builder collects decoded bytes in a current character set and converts
// them to UTF-8 each time the set changes. The zero value starts in
// ISO-8859-1.
type Builder struct {
	sb      strings.Builder
	pending []byte
	name    string
}

// WriteByte appends one byte in the current character set.
func (b *Builder) WriteByte(c byte) error {
	b.pending = append(b.pending, c)
	return nil
}

// Write appends p in the current character set.
func (b *Builder) Write(p []byte) (int, error) {
	b.pending = append(b.pending, p...)
	return len(p), nil
}

// WriteString appends the bytes of s in the current character set. It is
// meant for ASCII literals such as macro headers.
func (b *Builder) WriteString(s string) (int, error) {
	b.pending = append(b.pending, s...)
	return len(s), nil
}

// SetCharset converts what has been collected so far and switches to name.
func (b *Builder) SetCharset(name string) error {
	if err := b.flush(); err != nil {
		return err
	}
	b.name = name
	return nil
}

// Len counts converted runes' bytes plus pending bytes. It is only exact
// while everything written is ASCII.
func (b *Builder) Len() int { return b.sb.Len() + len(b.pending) }

// String converts any pending bytes and returns the text.
func (b *Builder) String() (string, error) {
	if err := b.flush(); err != nil {
		return "", err
	}
	return b.sb.String(), nil
}

func (b *Builder) flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	s, err := Decode(b.pending, b.name)
	if err != nil {
		return err
	}
	b.sb.WriteString(s)
	b.pending = b.pending[:0]
	return nil
}
