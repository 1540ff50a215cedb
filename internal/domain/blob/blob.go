// Package blob provides a growable byte buffer whose growth is checked before
// any allocation happens: a size computation that would wrap fails with
// ErrOverflow, growth past the configured limit fails with ErrOutOfMemory.
// A failed write leaves the buffer unchanged.
package blob

import "errors"

var (
	// ErrOverflow is returned when the new length cannot be represented.
	ErrOverflow = errors.New("blob: size overflow")

	// ErrOutOfMemory is returned when growth would exceed Limit.
	ErrOutOfMemory = errors.New("blob: out of memory")
)

// Blob is an append-only byte buffer. The zero value is ready to use.
// It satisfies io.Writer, io.ByteWriter and io.StringWriter.
type Blob struct {
	data []byte

	// Limit caps the buffer length in bytes. Zero means no limit.
	Limit int
}

// New returns a Blob with room for size bytes.
func New(size int) *Blob {
	if size < 0 {
		size = 0
	}
	return &Blob{data: make([]byte, 0, size)}
}

// grow makes room for n more bytes.
func (b *Blob) grow(n int) error {
	have := len(b.data)
	next := have + n
	if n < 0 || next < have {
		return ErrOverflow
	}
	if b.Limit > 0 && next > b.Limit {
		return ErrOutOfMemory
	}
	if next <= cap(b.data) {
		return nil
	}

	size := cap(b.data) * 2
	if size < cap(b.data) || size < next {
		size = next
	}
	if b.Limit > 0 && size > b.Limit {
		size = b.Limit
	}

	data := make([]byte, have, size)
	copy(data, b.data)
	b.data = data
	return nil
}

// Write appends p.
func (b *Blob) Write(p []byte) (int, error) {
	if err := b.grow(len(p)); err != nil {
		return 0, err
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

// WriteString appends s.
func (b *Blob) WriteString(s string) (int, error) {
	if err := b.grow(len(s)); err != nil {
		return 0, err
	}
	b.data = append(b.data, s...)
	return len(s), nil
}

// WriteByte appends c.
func (b *Blob) WriteByte(c byte) error {
	if err := b.grow(1); err != nil {
		return err
	}
	b.data = append(b.data, c)
	return nil
}

// Bytes returns the buffer content. The slice aliases the buffer and is
// valid until the next write or Reset.
func (b *Blob) Bytes() []byte { return b.data }

// String returns a copy of the buffer content.
func (b *Blob) String() string { return string(b.data) }

// Len returns the number of bytes written.
func (b *Blob) Len() int { return len(b.data) }

// Cap returns the allocated capacity.
func (b *Blob) Cap() int { return cap(b.data) }

// Reset empties the buffer but keeps its storage for reuse.
func (b *Blob) Reset() { b.data = b.data[:0] }
