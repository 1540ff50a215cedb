package blob

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ io.Writer       = (*Blob)(nil)
	_ io.ByteWriter   = (*Blob)(nil)
	_ io.StringWriter = (*Blob)(nil)
)

func TestBlob_AppendsInOrder(t *testing.T) {
	var b Blob
	_, err := b.WriteString("con")
	require.NoError(t, err)
	_, err = b.Write([]byte("DOG"))
	require.NoError(t, err)
	require.NoError(t, b.WriteByte('e'))

	assert.Equal(t, "conDOGe", b.String())
	assert.Equal(t, 7, b.Len())
}

func TestBlob_ResetKeepsCapacity(t *testing.T) {
	b := New(16)
	_, _ = b.WriteString("hello world")
	c := b.Cap()

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, c, b.Cap())
	_, _ = b.WriteString("again")
	assert.Equal(t, "again", b.String())
}

func TestBlob_LimitRejectsGrowth(t *testing.T) {
	b := &Blob{Limit: 4}
	_, err := b.WriteString("abc")
	require.NoError(t, err)

	n, err := b.WriteString("de")
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 0, n)
	assert.Equal(t, "abc", b.String(), "failed write must leave the buffer unchanged")

	require.NoError(t, b.WriteByte('d'))
	assert.ErrorIs(t, b.WriteByte('e'), ErrOutOfMemory)
	assert.LessOrEqual(t, b.Cap(), 4)
}

func TestBlob_GrowOverflow(t *testing.T) {
	b := &Blob{data: make([]byte, 1)}
	assert.ErrorIs(t, b.grow(int(^uint(0)>>1)), ErrOverflow)
	assert.ErrorIs(t, b.grow(-1), ErrOverflow)
	assert.Equal(t, 1, b.Len())
}

func TestBlob_ManySmallWrites(t *testing.T) {
	var b Blob
	for i := 0; i < 1000; i++ {
		require.NoError(t, b.WriteByte(byte('a'+i%26)))
	}
	assert.Equal(t, 1000, b.Len())
	assert.Equal(t, byte('a'), b.Bytes()[0])
	assert.Equal(t, byte('a'+999%26), b.Bytes()[999])
}
